package chunking

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	phoneRe      = regexp.MustCompile(`\b\+?\d{2,3}[ -]?\d{3,4}[ -]?\d{4}\b`)
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize strips markup, masks PII and collapses whitespace. Runs in
// the worker before chunking; the content hash is taken over the raw
// submission, so any textual edit re-enters the pipeline.
func Normalize(text string) string {
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// DetectLanguage is a counting heuristic: scripts written without
// whitespace word boundaries get bi-gram lexical tokenization downstream.
func DetectLanguage(text string) string {
	var cjk, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Han, r) ||
			unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			cjk++
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			latin++
		}
	}
	switch {
	case cjk > latin*2:
		return "cjk"
	case latin > cjk*2:
		return "en"
	default:
		return "mixed"
	}
}
