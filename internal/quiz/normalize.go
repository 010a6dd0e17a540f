package quiz

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	canonicalTrue  = "TRUE"
	canonicalFalse = "FALSE"
)

var (
	trueTokens = map[string]bool{
		"TRUE": true, "T": true, "1": true, "ĐÚNG": true,
	}
	falseTokens = map[string]bool{
		"FALSE": true, "F": true, "0": true, "SAI": true,
	}
)

// Normalize canonicalizes an answer for comparison. It trims whitespace,
// composes Unicode to NFC, upper-cases with Vietnamese rules and folds the
// true/false token sets onto TRUE and FALSE. Everything else passes through.
func Normalize(s string) string {
	// Casers are stateful; build one per call so Normalize stays goroutine-safe.
	v := cases.Upper(language.Vietnamese).String(strings.TrimSpace(s))
	v = norm.NFC.String(v)

	switch {
	case trueTokens[v]:
		return canonicalTrue
	case falseTokens[v]:
		return canonicalFalse
	}
	return v
}

// IsCorrect reports whether submitted matches the question's answer key after
// normalization. There is no partial credit.
func IsCorrect(q Question, submitted string) bool {
	return Normalize(submitted) == Normalize(q.AnswerKey)
}
