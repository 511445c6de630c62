package intent

import (
	"strings"
	"unicode"

	"github.com/evidentia/ragline/core"
)

// Greeting and gratitude lexicons for the rule layer. Matching is done on
// the scrubbed, lowercased message, so "Hello!" and "hello" hit the same
// entry. Only short messages are rule-matched; longer text that merely
// starts with a greeting still carries a real question.
var greetingLexicon = map[string]bool{
	"hi": true, "hello": true, "hey": true, "yo": true, "hiya": true,
	"good morning": true, "good afternoon": true, "good evening": true,
	"morning": true, "evening": true, "greetings": true, "howdy": true,
	"hi there": true, "hello there": true, "hey there": true,
}

var gratitudeLexicon = map[string]bool{
	"thanks": true, "thank you": true, "thx": true, "ty": true,
	"thanks a lot": true, "thank you so much": true, "thanks so much": true,
	"many thanks": true, "much appreciated": true, "appreciated": true,
	"cheers": true, "perfect thanks": true, "great thanks": true,
}

// classifyByRules is the near-zero-cost layer: empty input, non-linguistic
// input, and exact lexicon matches resolve without any model call.
// The boolean reports whether the layer was confident.
func classifyByRules(message string) (core.Intent, bool) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return core.IntentGarbage, true
	}

	if !hasLetter(trimmed) {
		return core.IntentGarbage, true
	}

	scrubbed := scrub(trimmed)
	if scrubbed == "" {
		return core.IntentGarbage, true
	}

	if greetingLexicon[scrubbed] {
		return core.IntentGreeting, true
	}
	if gratitudeLexicon[scrubbed] {
		return core.IntentGratitude, true
	}

	// Keyboard mash: a single long "word" with no vowels is not language.
	if !strings.ContainsAny(scrubbed, "aeiou") && !strings.Contains(scrubbed, " ") && len(scrubbed) >= 6 {
		return core.IntentGarbage, true
	}

	return "", false
}

// scrub lowercases and strips punctuation for lexicon comparison.
func scrub(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// hasLetter reports whether the string contains any letter rune.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
