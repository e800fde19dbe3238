package common

import (
	"regexp"
	"strings"
)

// MatchRegex compiles and matches a regex pattern against a string.
// Returns an error if the pattern is invalid.
func MatchRegex(pattern, text string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// ContainsWord reports whether phrase occurs in text bounded by non-word
// characters on both sides. Matching is case-insensitive.
func ContainsWord(text, phrase string) bool {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return false
	}
	matched, err := MatchRegex(`(?i)(^|\W)`+regexp.QuoteMeta(phrase)+`($|\W)`, text)
	return err == nil && matched
}
