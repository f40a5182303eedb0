package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	multiSpaceRegex   = regexp.MustCompile(`[\t\f\v\x{00A0}]+`)
	doubleSpaceRegex  = regexp.MustCompile(` {2,}`)
	multiNewlineRegex = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText bereitet eingesammelten Rohtext für die Extraktion auf:
// NFC-Normalisierung, Ligaturen auflösen, Whitespace zusammenfalten.
func NormalizeText(s string) string {
	replacer := strings.NewReplacer(
		"ﬁ", "fi",
		"ﬂ", "fl",
		"ﬀ", "ff",
		"ﬃ", "ffi",
		"ﬄ", "ffl",
		"ﬆ", "st",
		"œ", "oe",
		"æ", "ae",
	)
	s = replacer.Replace(s)
	normalized, _, _ := transform.String(transform.Chain(norm.NFC), s)

	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = multiSpaceRegex.ReplaceAllString(normalized, " ")
	normalized = doubleSpaceRegex.ReplaceAllString(normalized, " ")
	normalized = multiNewlineRegex.ReplaceAllString(normalized, "\n\n")

	lines := strings.Split(normalized, "\n")
	for i := range lines {
		lines[i] = strings.TrimRightFunc(lines[i], unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// NormalizeName bildet den kanonischen Identitätsschlüssel für Namen:
// trimmen und case-folden. Substring-Matching ist ein bewusst getrennter
// zweiter Auflösungsschritt, nie Teil des Schlüssels.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// titleCase kapitalisiert jedes durch Whitespace getrennte Wort.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// FormatConfidence übersetzt einen Score in ein Report-Label.
func FormatConfidence(score float64) string {
	switch {
	case score >= 0.8:
		return "High"
	case score >= 0.6:
		return "Medium"
	case score >= 0.4:
		return "Low"
	default:
		return "Very Low"
	}
}
