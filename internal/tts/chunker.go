package tts

import (
	"log"
	"regexp"
	"strings"
)

// sentencePattern matches runs of text ending at sentence punctuation,
// with a trailing catch-all for unterminated text.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+['"”’]?|[^.!?]+$`)

// SplitSentences breaks text into trimmed sentences.
func SplitSentences(text string) []string {
	var sentences []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// SplitChunks packs sentences into chunks that stay under maxBytes, the
// unit of one synthesis request. Sentences that alone exceed the limit
// are force-split on word boundaries.
func SplitChunks(text string, maxBytes int) []string {
	var chunks []string
	current := ""

	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}

	for _, sentence := range SplitSentences(text) {
		if len(sentence) > maxBytes {
			log.Printf("Sentence of %d bytes exceeds the %d byte chunk limit, splitting on words", len(sentence), maxBytes)
			flush()
			for _, piece := range splitWords(sentence, maxBytes) {
				chunks = append(chunks, piece)
			}
			continue
		}
		if current == "" {
			current = sentence
		} else if len(current)+1+len(sentence) > maxBytes {
			flush()
			current = sentence
		} else {
			current += " " + sentence
		}
	}
	flush()

	return chunks
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func splitWords(sentence string, maxBytes int) []string {
	var pieces []string
	current := ""
	for _, word := range strings.Fields(sentence) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) > maxBytes:
			pieces = append(pieces, current)
			current = word
		default:
			current += " " + word
		}
	}
	if current != "" {
		pieces = append(pieces, current)
	}
	return pieces
}
