// Package language resolves the language of a chat request.
package language

import "unicode"

var scriptHints = map[string][]*unicode.RangeTable{
	"he": {unicode.Hebrew},
	"ar": {unicode.Arabic},
	"ru": {unicode.Cyrillic},
}

// Detect guesses the language of text by dominant script. Latin and anything
// unrecognized default to English.
func Detect(text string) string {
	if text == "" {
		return "en"
	}

	counts := make(map[string]int, len(scriptHints))
	for _, r := range text {
		for code, tables := range scriptHints {
			if unicode.In(r, tables...) {
				counts[code]++
			}
		}
	}

	best, bestCount := "en", 0
	for code, n := range counts {
		if n > bestCount {
			best, bestCount = code, n
		}
	}
	if bestCount == 0 {
		return "en"
	}
	return best
}

// Resolve picks the request language: an explicit request value wins, then
// the Accept-Language header, then script detection on the user's message.
func Resolve(explicit, header, lastUserMessage string, supported func(string) bool) string {
	if explicit != "" && supported(explicit) {
		return explicit
	}
	if header != "" && supported(header) {
		return header
	}
	return Detect(lastUserMessage)
}
