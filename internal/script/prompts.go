package script

import (
	"fmt"

	"lullscript/internal/config"
)

// NarratorInstruction is the system instruction for the narration model.
// The persona is a calm, observational chronicler whose sole goal is a
// soothing, sleep-friendly delivery, regardless of how dramatic the
// subject matter is.
const NarratorInstruction = `You are a serene, all-knowing observer, a gentle chronicler of events, lives, historical periods and speculative scenarios. You narrate from a respectful, peaceful distance, like a documentarian watching a vast landscape unfold, and your primary purpose is to guide the listener through the topic with profound calm, fostering an atmosphere perfect for sleep.

Maintain an exceptionally calm, gentle and measured tone throughout. Favor soft, evocative, unhurried language and avoid jarring, dramatic or stimulating words (such as 'brutal', 'devastating', 'crisis', 'shocking', 'terrifying', 'chaos', 'urgent', 'panic'). Describe even intense events from a detached, tranquil perspective; the listener's calm must never be disturbed by the subject matter itself. Employ flowing sentences with smooth transitions and a lulling rhythm.

Ground the narration in substantive information where research is provided: weave in the most pivotal facts, named entities and their tangible consequences, presented softly as part of an unfolding tapestry rather than stark pronouncements. For factual topics, adhere strictly to established information. For "what-if" scenarios, you may invent plausible narrative developments that extend the premise, keeping them internally consistent and serene.

Your output MUST be pure narration text suitable for direct text-to-speech conversion. Do not include scene descriptions, stage directions, sound cues, parenthetical remarks or meta-commentary of any kind. Format with clear paragraph breaks for natural pausing. Ensure sufficient depth and detail to naturally fill the intended spoken duration. The absolute primary goal is to induce calm and facilitate sleep; all other objectives are secondary.`

// StructurerInstruction is the system instruction for the outline model.
const StructurerInstruction = `You are an expert content strategist and outline designer. You analyze research material and a user's topic, then propose a logical, engaging multi-section structure for a long-form narrative that guides the listener on a coherent journey through the topic.

For each section provide a concise title, a one-sentence description, and an estimated duration in minutes; the durations should sum to approximately the given total target. Sections and descriptions must be directly informed by the research material provided. Output your proposal STRICTLY as a JSON list of objects with 'title', 'description' and 'estimated_minutes' keys.

Example: [{"title": "Early Life", "description": "Exploring the protagonist's formative years.", "estimated_minutes": 10}]`

func researchPrompt(req Request) string {
	return fmt.Sprintf(`Conduct exceptionally detailed and comprehensive research using available tools for the user request below. The goal is to gather enough material for a long-form narrative approximately %d minutes long. Collect extensive key facts, figures, historical context, in-depth narratives covering multiple facets and sub-topics, supporting details and diverse perspectives. Identify the most pivotal or defining factual details, and for "what-if" scenarios the speculative consequences and logical branching points that could be explored with plausible invention.

The output should be a synthesized summary of the gathered information written in your own words: a rich, detailed body of flowing text, not a structured outline and not a concatenation of quotations. Prefer material suitable for a gentle, sleep-friendly narrative: descriptive passages, calm context, and specific illustrative examples of causes and effects that can be woven into a story-like account.

User Request:
%s`, req.TargetMinutes, req.Summary())
}

// sectionBand derives a reasonable range for the number of sections from
// the target length.
func sectionBand(targetMinutes int) (lower, upper int) {
	lower = 2
	if targetMinutes > 15 {
		lower = max(2, targetMinutes/15)
	}
	upper = 4
	if targetMinutes > 7 {
		upper = targetMinutes / 7
	}
	upper = max(lower+2, upper)
	return lower, upper
}

func proposalPrompt(req Request, research string) string {
	lower, upper := sectionBand(req.TargetMinutes)
	return fmt.Sprintf(`Based on the provided research material and the user's original request, propose a structured outline for a long-form narrative script approximately %d minutes long in total. The plan will form the backbone of a serene, sleep-friendly narrative; each section should contribute to a gentle unfolding of the topic.

Suggest between %d and %d distinct narrative sections. For each, provide a concise engaging 'title', a single-sentence 'description', and an integer 'estimated_minutes'. The sum of estimated minutes should be approximately %d. Sections must flow logically and collectively cover the topic based on the research. Output STRICTLY as a JSON list of objects with 'title', 'description' and 'estimated_minutes' keys.

User's Original Request:
%s

Comprehensive Research Material:
%s`, req.TargetMinutes, lower, upper, req.TargetMinutes, req.Summary(), truncate(research, config.PromptInputCharLimit))
}

func retoolPrompt(req Request, proposalJSON, feedback, research string) string {
	return fmt.Sprintf(`You previously proposed a section structure and the user has provided feedback. Revise the structure based strictly on that feedback. Interpret commands like 'keep 1,3', 'remove 2', 'reorder to 3,1,2', 'title of 1 is New Title', 'time of 2 is 10 min', and 'break up section X into Y (A min) and Z (B min)'. If the user asks to remove a theme, drop every section primarily focused on it. After applying explicit changes, if the sum of estimated minutes deviates significantly from the overall target of %d minutes, adjust section times (preferring sections whose time the user did not set) to approach the target. Keep the revised structure coherent and well supported by the research material.

Original Proposal (section numbers are 1-indexed as shown to the user):
%s

User's Feedback for Revision:
%s

Comprehensive Research Material:
%s

For each section in the revised proposal provide a 'title', a one-sentence 'description' and an integer 'estimated_minutes' of at least 1. Output STRICTLY as a JSON list of objects.`,
		req.TargetMinutes, proposalJSON, feedback, truncate(research, config.PromptInputCharLimit))
}

// influenceInstruction maps the research-influence factor onto how
// strictly the narrator must stay inside the research material.
func influenceInstruction(influence float64) string {
	switch {
	case influence >= 0.8:
		return "You MUST primarily and strictly base this section on the provided research material relevant to its theme, weaving its specific facts, anecdotes and narrative threads directly into the narration. Avoid introducing significant information not supported by the research."
	case influence <= 0.2:
		return "Use the research material as a foundational guide and inspiration. You have significant creative freedom to expand with complementary details and illustrative examples from general knowledge, as long as they align with the serene tone."
	default:
		return "Use the research material as the primary basis. You may supplement moderately with illustrative details or gentle elaborations from general knowledge to enhance flow and descriptive richness, keeping every addition within the established calm persona."
	}
}

func inventionInstruction(whatIf bool) string {
	if whatIf {
		return "This is a 'what-if' scenario: you are encouraged to invent plausible narrative beats, character interactions or logical consequences that extend the premise, using the research as a springboard. Gently explore the implications of each invention so one beat flows naturally into the next."
	}
	return "This topic is factual or historical: adhere strictly to the provided research and established information when detailing events and consequences. Do not invent narrative points the research does not support."
}

func sectionPrompt(req Request, sec Section, research string) string {
	return fmt.Sprintf(`Original User Topic/Direction (for overall context):
%s

Comprehensive Research Material (draw relevant details from this for the current section):
%s

Current Section:
Title: %s
Description: %s
Target Length: approximately %d minutes.

Write the narration ONLY for this specific section. It is imperative that the content is long and detailed enough to be spoken over approximately %d minutes; aim for your first attempt to land as close to that target as possible, expanding on relevant research details to get there. Convey the most impactful and defining specifics (key developments, named entities where central, and their tangible consequences), gently illustrated and woven into the calm, observational account. %s
%s
Conclude the section so it feels complete for its theme yet leaves a natural opening for a related topic to follow, without referencing other sections. Focus solely on the words the narrator will speak.`,
		req.Summary(), truncate(research, config.PromptInputCharLimit),
		sec.Title, sec.Description, sec.EstimatedMinutes, sec.EstimatedMinutes,
		inventionInstruction(req.IsWhatIf()), influenceInstruction(req.ResearchInfluence))
}

func expansionPrompt(req Request, sec Section, research, current string, currentMinutes float64, wordsNeeded, paragraphs, targetWords int) string {
	invention := "When expanding this factual topic, elaborate on existing information from the research or add further supporting details; do not invent new narrative points."
	if req.IsWhatIf() {
		invention = "As this is a 'what-if' scenario, you may introduce new plausible narrative developments that extend the story, gently elaborating on their ripple effects, consistent with the premise and the serene tone."
	}
	return fmt.Sprintf(`The following script was generated for the section titled '%s'. Its target length is approximately %d minutes (around %d words), but the current version runs only %.2f minutes. It needs roughly %d more words, about %d substantial paragraphs.

Original User Topic/Direction:
%s

Comprehensive Research Material (find more details relevant to this section here):
%s

Current Script for the Section:
%s

Task: significantly expand the current script by adding approximately %d new, substantial paragraphs. Identify one or two underdeveloped themes or passages within the existing text and deepen them with rich details drawn from the research, focusing on the most impactful specifics (concrete events, their causes and consequences), woven in softly. %s New content must integrate seamlessly, must not merely repeat what is there, and must keep the calm, observational, sleep-friendly style throughout. Provide the complete expanded script for THIS SECTION ONLY, aiming for a total of around %d words.`,
		sec.Title, sec.EstimatedMinutes, targetWords, currentMinutes, wordsNeeded, paragraphs,
		req.Summary(), truncate(research, config.PromptInputCharLimit), current,
		paragraphs, invention, targetWords)
}

func smoothingPrompt(req Request, chunk string, estimatedMinutes float64) string {
	return fmt.Sprintf(`The following text consists of concatenated script sections (or a continuation of previously smoothed text) forming a single long-form narrative on the topic: '%s'. The target total length was approximately %d minutes; the current concatenated length is approximately %.2f minutes.

Review the entire provided text with three objectives. First, smooth the transitions where section boundaries fall, with minor edits only. Second, rewrite any phrase that does not fit the established persona of an exceptionally calm, gentle, observational chronicler, replacing it with soothing language; pay particular attention to filtering dramatic events through the detached, peaceful lens. Third, keep the narrative perspective consistent throughout, gently rephrasing passages that slip into direct emotional accounts or stark analysis.

VERY IMPORTANT: preserve the approximate length of the provided text. Do not condense or remove content; rephrase rather than delete, and add only short transitional sentences where coherence requires them. Provide the final polished continuous text for THIS CHUNK only.

Script Text Chunk to Smooth:
%s`, req.Topic, req.TargetMinutes, estimatedMinutes, chunk)
}
