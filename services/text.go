package services

import (
	"regexp"
	"strings"
)

var (
	nonAlnumSpaceRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	nonAlnumRegex      = regexp.MustCompile(`[^a-z0-9]+`)
	hyphenRunRegex     = regexp.MustCompile(`-+`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	symbolStripRegex   = regexp.MustCompile(`[^A-Z0-9]`)
)

var legalSuffixes = []string{" ltd.", " ltd", " limited", " pvt.", " pvt", " private", " ipo"}

// placeholder values that mean "not available" on IPO backends
var notAvailableValues = map[string]struct{}{
	"tba": {}, "to be announced": {}, "to be decided": {}, "tbd": {},
	"n/a": {}, "na": {}, "not available": {}, "not applicable": {},
	"not disclosed": {}, "awaited": {}, "coming soon": {},
	"will be updated": {}, "yet to be announced": {},
	"--": {}, "-": {}, "": {}, "nil": {}, "null": {},
}

// NormalizeIPOName lowercases a name and strips legal suffixes and punctuation
func NormalizeIPOName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range legalSuffixes {
		normalized = strings.TrimSuffix(normalized, suffix)
	}
	normalized = nonAlnumSpaceRegex.ReplaceAllString(normalized, "")
	return strings.TrimSpace(normalized)
}

// GenerateCompanyCode generates a URL-friendly company code from an IPO name
func GenerateCompanyCode(name string) string {
	code := nonAlnumRegex.ReplaceAllString(NormalizeIPOName(name), "-")
	code = hyphenRunRegex.ReplaceAllString(code, "-")
	return strings.Trim(code, "-")
}

// NormalizeTextContent collapses whitespace and drops currency prefixes
func NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRegex.ReplaceAllString(strings.TrimSpace(text), " ")
	text = strings.ReplaceAll(text, "₹", "")
	text = strings.ReplaceAll(text, "Rs.", "")
	text = strings.ReplaceAll(text, "Rs ", "")
	return strings.TrimSpace(text)
}

// IsNotAvailable reports placeholders like "TBA", "N/A" or "-"
func IsNotAvailable(text string) bool {
	_, ok := notAvailableValues[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// NormalizeSymbol uppercases a ticker and keeps only alphanumerics
func NormalizeSymbol(text string) *string {
	if IsNotAvailable(text) {
		return nil
	}
	symbol := symbolStripRegex.ReplaceAllString(strings.ToUpper(strings.TrimSpace(text)), "")
	if symbol == "" {
		return nil
	}
	return &symbol
}

// optionalText trims s and returns nil for placeholders.
func optionalText(s *string) *string {
	if s == nil || IsNotAvailable(*s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// textOrEmpty dereferences s, mapping placeholders to "".
func textOrEmpty(s *string) string {
	if v := optionalText(s); v != nil {
		return *v
	}
	return ""
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if t := optionalText(v); t != nil {
			return t
		}
	}
	return nil
}
