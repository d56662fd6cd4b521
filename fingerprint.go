package quizbank

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CJK Unified Ideographs range kept by Fingerprint
const (
	cjkFirst = '一'
	cjkLast  = '龥'
)

// Fingerprint normalizes question text into the key used for duplicate detection.
// Only letters, numbers, '_' and CJK ideographs survive; the rest is lower-cased.
// Empty text yields an empty fingerprint, which is still a valid key.
func Fingerprint(text string) string {
	if text == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if keepRune(r) {
			sb.WriteRune(r)
		}
	}

	// cases.Caser is stateful, one per call
	return cases.Lower(language.Und).String(sb.String())
}

func keepRune(r rune) bool {
	if r >= cjkFirst && r <= cjkLast {
		return true
	}
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
