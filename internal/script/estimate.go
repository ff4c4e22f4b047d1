package script

import "regexp"

var wordPattern = regexp.MustCompile(`\w+`)

// WordCount counts the speakable words in text.
func WordCount(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// EstimateMinutes estimates the spoken duration of text at the given
// narration pace.
func EstimateMinutes(text string, wpm int) float64 {
	if wpm <= 0 {
		return 0
	}
	return float64(WordCount(text)) / float64(wpm)
}
