package respondsdk

import (
	"crypto/sha256"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ──────────────────────────────────────────────
// OwnerStyleAnalyzer — corpus fingerprinting
// ──────────────────────────────────────────────

// AnalyzerConfig controls the owner-style analysis.
type AnalyzerConfig struct {
	MinSamples int `json:"min_samples"` // below this the profile is a fallback
	TopEmojis  int `json:"top_emojis"`
	TopBigrams int `json:"top_bigrams"`

	// Two-class language split. Primary is the Cyrillic-scripted language,
	// secondary the Latin-scripted one.
	PrimaryLanguage   string `json:"primary_language"`
	SecondaryLanguage string `json:"secondary_language"`

	FormalMarkers []string `json:"formal_markers,omitempty"`
	CasualMarkers []string `json:"casual_markers,omitempty"`
}

// DefaultAnalyzerConfig returns the production defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MinSamples:        50,
		TopEmojis:         10,
		TopBigrams:        10,
		PrimaryLanguage:   "ru",
		SecondaryLanguage: "en",
		FormalMarkers:     []string{"please", "thank you", "пожалуйста", "спасибо", "would you", "could you"},
		CasualMarkers:     []string{"lol", "лол", "yeah", "ага", "nah", "неа", "ok", "ок"},
	}
}

// OwnerStyleProfile is an immutable snapshot of a writing style. Regenerated
// wholesale whenever the corpus changes, never mutated in place. Given the
// same corpus the analyzer reproduces it bit-identically.
type OwnerStyleProfile struct {
	AvgMessageLen   float64            `json:"avg_message_len"`  // runes per message
	AvgSentenceLen  float64            `json:"avg_sentence_len"` // words per sentence
	EmojiFrequency  map[string]float64 `json:"emoji_frequency"`  // emoji -> per-message rate
	RankedEmojis    []string           `json:"ranked_emojis"`    // frequency order, deterministic ties
	TopBigrams      []string           `json:"top_bigrams"`
	PunctuationHist map[string]int     `json:"punctuation_histogram"` // "!", "!!", "?", "..."
	FormalityScore  float64            `json:"formality_score"`       // 0..1
	LanguageRatio   map[string]float64 `json:"language_ratio"`
	SampleCount     int                `json:"sample_count"`
	IsFallback      bool               `json:"is_fallback"`
	Fingerprint     string             `json:"fingerprint"` // sha256 over the corpus
}

// StyleAnalyzer computes OwnerStyleProfiles from sample corpora.
type StyleAnalyzer struct {
	config AnalyzerConfig
}

// NewStyleAnalyzer creates an analyzer. Zero-value config fields fall back
// to defaults.
func NewStyleAnalyzer(config AnalyzerConfig) *StyleAnalyzer {
	def := DefaultAnalyzerConfig()
	if config.MinSamples <= 0 {
		config.MinSamples = def.MinSamples
	}
	if config.TopEmojis <= 0 {
		config.TopEmojis = def.TopEmojis
	}
	if config.TopBigrams <= 0 {
		config.TopBigrams = def.TopBigrams
	}
	if config.PrimaryLanguage == "" {
		config.PrimaryLanguage = def.PrimaryLanguage
	}
	if config.SecondaryLanguage == "" {
		config.SecondaryLanguage = def.SecondaryLanguage
	}
	if config.FormalMarkers == nil {
		config.FormalMarkers = def.FormalMarkers
	}
	if config.CasualMarkers == nil {
		config.CasualMarkers = def.CasualMarkers
	}
	return &StyleAnalyzer{config: config}
}

// Analyze computes the style profile for an ordered corpus of samples.
// Pure batch recomputation: running it twice on the same corpus yields the
// same profile, fingerprint included.
func (a *StyleAnalyzer) Analyze(samples []string) *OwnerStyleProfile {
	fp := corpusFingerprint(samples)

	if len(samples) < a.config.MinSamples {
		log.Printf("[STYLE] corpus too thin (%d < %d samples), using fallback profile",
			len(samples), a.config.MinSamples)
		return &OwnerStyleProfile{
			EmojiFrequency:  map[string]float64{},
			RankedEmojis:    []string{},
			TopBigrams:      []string{},
			PunctuationHist: map[string]int{},
			FormalityScore:  0.5,
			LanguageRatio: map[string]float64{
				a.config.PrimaryLanguage:   0.5,
				a.config.SecondaryLanguage: 0.5,
			},
			SampleCount: len(samples),
			IsFallback:  true,
			Fingerprint: fp,
		}
	}

	profile := &OwnerStyleProfile{
		SampleCount: len(samples),
		Fingerprint: fp,
	}

	// Message and sentence lengths.
	var totalRunes, totalSentences, totalSentenceWords int
	for _, msg := range samples {
		totalRunes += utf8.RuneCountInString(msg)
		for _, sentence := range splitSentences(msg) {
			totalSentences++
			totalSentenceWords += len(strings.Fields(sentence))
		}
	}
	profile.AvgMessageLen = float64(totalRunes) / float64(len(samples))
	if totalSentences > 0 {
		profile.AvgSentenceLen = float64(totalSentenceWords) / float64(totalSentences)
	}

	// Emoji frequency, ranked.
	emojiCounts := map[string]int{}
	for _, msg := range samples {
		for _, e := range extractEmojis(msg) {
			emojiCounts[e]++
		}
	}
	profile.EmojiFrequency = make(map[string]float64, len(emojiCounts))
	for e, n := range emojiCounts {
		profile.EmojiFrequency[e] = float64(n) / float64(len(samples))
	}
	profile.RankedEmojis = rankByCount(emojiCounts, a.config.TopEmojis)

	// Top bigrams.
	bigramCounts := map[string]int{}
	for _, msg := range samples {
		words := tokenizeWords(msg)
		for i := 0; i+1 < len(words); i++ {
			bigramCounts[words[i]+" "+words[i+1]]++
		}
	}
	profile.TopBigrams = rankByCount(bigramCounts, a.config.TopBigrams)

	// Punctuation run histogram.
	profile.PunctuationHist = map[string]int{}
	for _, msg := range samples {
		for pattern, n := range punctuationRuns(msg) {
			profile.PunctuationHist[pattern] += n
		}
	}

	// Formality: formal vs casual marker hits, normalized to [0,1].
	var formal, casual int
	for _, msg := range samples {
		lower := strings.ToLower(msg)
		for _, m := range a.config.FormalMarkers {
			if strings.Contains(lower, m) {
				formal++
			}
		}
		for _, m := range a.config.CasualMarkers {
			if strings.Contains(lower, m) {
				casual++
			}
		}
	}
	if formal+casual > 0 {
		profile.FormalityScore = clampRange(float64(formal)/float64(formal+casual), 0, 1)
	} else {
		profile.FormalityScore = 0.5
	}

	// Two-class language ratio, per-message classification.
	var primary int
	for _, msg := range samples {
		if classifyLanguage(msg) == langPrimary {
			primary++
		}
	}
	profile.LanguageRatio = map[string]float64{
		a.config.PrimaryLanguage:   float64(primary) / float64(len(samples)),
		a.config.SecondaryLanguage: float64(len(samples)-primary) / float64(len(samples)),
	}

	return profile
}

// corpusFingerprint hashes the ordered corpus, length-prefixed so sample
// boundaries matter.
func corpusFingerprint(samples []string) string {
	h := sha256.New()
	for _, s := range samples {
		fmt.Fprintf(h, "%d:", len(s))
		h.Write([]byte(s))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// rankByCount orders keys by count descending, ties broken lexicographically
// so re-analysis is reproducible. Returns at most k keys.
func rankByCount(counts map[string]int, k int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

func splitSentences(msg string) []string {
	parts := strings.FieldsFunc(msg, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// tokenizeWords lowercases and strips punctuation, keeping letter/digit runs.
func tokenizeWords(msg string) []string {
	return strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// punctuationRuns counts run patterns: "!" (single), "!!" (two or more),
// "?" (any run), "..." (three or more dots).
func punctuationRuns(msg string) map[string]int {
	out := map[string]int{}
	runes := []rune(msg)
	for i := 0; i < len(runes); {
		r := runes[i]
		if r != '!' && r != '?' && r != '.' {
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] == r {
			j++
		}
		run := j - i
		switch r {
		case '!':
			if run == 1 {
				out["!"]++
			} else {
				out["!!"]++
			}
		case '?':
			out["?"]++
		case '.':
			if run >= 3 {
				out["..."]++
			}
		}
		i = j
	}
	return out
}

// extractEmojis pulls emoji runes out of a message.
func extractEmojis(msg string) []string {
	var out []string
	for _, r := range msg {
		if isEmoji(r) {
			out = append(out, string(r))
		}
	}
	return out
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F300 && r <= 0x1F5FF: // symbols & pictographs
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental
		return true
	case r >= 0x2700 && r <= 0x27BF: // dingbats
		return true
	case r >= 0x2600 && r <= 0x26FF: // misc symbols
		return true
	}
	return false
}

// ──────────────────────────────────────────────
// Prompt guidance
// ──────────────────────────────────────────────

// StyleInstructions renders generation guidance from the profile, for the
// prompt-construction collaborator.
func (p *OwnerStyleProfile) StyleInstructions() string {
	if p.IsFallback {
		return "Use a conservative, neutral style (insufficient samples for learning)."
	}
	var lines []string

	switch {
	case p.AvgMessageLen < 50:
		lines = append(lines, "Keep messages short, typically under 50 characters.")
	case p.AvgMessageLen < 150:
		lines = append(lines, "Use medium-length messages (50-150 characters).")
	default:
		lines = append(lines, "Longer messages are fine (150+ characters).")
	}

	totalEmojiRate := 0.0
	for _, rate := range p.EmojiFrequency {
		totalEmojiRate += rate
	}
	switch {
	case totalEmojiRate > 0.5 && len(p.RankedEmojis) > 0:
		lines = append(lines, "Use emojis frequently, especially: "+strings.Join(headN(p.RankedEmojis, 3), " "))
	case totalEmojiRate > 0.2 && len(p.RankedEmojis) > 0:
		lines = append(lines, "Use emojis occasionally: "+strings.Join(headN(p.RankedEmojis, 3), " "))
	default:
		lines = append(lines, "Rarely use emojis.")
	}

	switch {
	case p.FormalityScore > 0.6:
		lines = append(lines, "Maintain a formal tone.")
	case p.FormalityScore < 0.4:
		lines = append(lines, "Use casual, informal language.")
	default:
		lines = append(lines, "Mix formal and casual tone.")
	}

	if p.PunctuationHist["!!"] > 5 {
		lines = append(lines, "Multiple exclamation marks are in character.")
	}
	if p.PunctuationHist["..."] > 5 {
		lines = append(lines, "Trailing ellipses are in character.")
	}

	return strings.Join(lines, "\n")
}

func headN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
