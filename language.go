package respondsdk

import "strings"

// ──────────────────────────────────────────────
// Two-class language classification
// ──────────────────────────────────────────────

type langClass int

const (
	langPrimary   langClass = iota // Cyrillic-scripted
	langSecondary                  // Latin-scripted
)

// Common-word hints break ties when character evidence alone is weak
// (short messages, transliteration, shared digits).
var primaryCommonWords = map[string]bool{
	"привет": true, "пока": true, "спасибо": true, "да": true, "нет": true,
	"как": true, "что": true, "это": true, "хорошо": true, "плохо": true,
	"можно": true, "нужно": true, "хочу": true, "буду": true,
}

var secondaryCommonWords = map[string]bool{
	"hello": true, "hi": true, "bye": true, "thanks": true, "yes": true,
	"no": true, "what": true, "how": true, "why": true, "this": true,
	"that": true, "have": true, "can": true, "will": true, "good": true,
}

// classifyLanguage assigns one message to the primary or secondary class.
// Character-class counts carry most of the weight; common-word hits count
// double. Ties and empty evidence default to primary, matching the
// configured default language.
func classifyLanguage(msg string) langClass {
	var primaryScore, secondaryScore int
	for _, r := range msg {
		switch {
		case r >= 0x0400 && r <= 0x04FF:
			primaryScore++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			secondaryScore++
		}
	}
	for _, w := range strings.Fields(strings.ToLower(msg)) {
		w = strings.Trim(w, ".,!?;:()\"'")
		if primaryCommonWords[w] {
			primaryScore += 2
		}
		if secondaryCommonWords[w] {
			secondaryScore += 2
		}
	}
	if secondaryScore > primaryScore {
		return langSecondary
	}
	return langPrimary
}
