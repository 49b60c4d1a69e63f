package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// normalizer folds keys to the form stored in models: NFC, then Turkish
// lowercase so that "I" maps to "ı" and "İ" to "i".
type normalizer struct {
	lower cases.Caser
}

func newNormalizer() *normalizer {
	return &normalizer{lower: cases.Lower(language.Turkish)}
}

func (n *normalizer) key(s string) string {
	return n.lower.String(norm.NFC.String(strings.TrimSpace(s)))
}
