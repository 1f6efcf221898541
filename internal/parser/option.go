package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/jdahlin/disa-parser/internal/exam"
)

// looksLikeOption decides whether option-column text is an answer option.
// The rule deliberately over-includes; finalization corrects prose that
// merely resembles list items.
func looksLikeOption(text string) bool {
	text = strings.TrimSpace(text)

	// Bare letters and digits reference image-based options.
	if singleLetterOption.MatchString(text) {
		return true
	}
	// Chemistry ion tokens (H+, Ca2+, Mg2+) are short but valid.
	if ionTokenPattern.MatchString(text) {
		return true
	}

	length := utf8.RuneCountInString(text)
	if length < 3 || length > 300 {
		return false
	}
	if strings.Contains(text, "Totalpoäng:") || strings.Contains(strings.ToLower(text), "poäng:") {
		return false
	}
	for _, prefix := range optionSkipPrefixes {
		if strings.HasPrefix(text, prefix) {
			return false
		}
	}
	if strings.Contains(text, "?") && length > 60 {
		return false
	}
	for _, stem := range interrogativeOptionStarts {
		if strings.HasPrefix(text, stem) && length > 60 {
			return false
		}
	}
	if bulletPrefixPattern.MatchString(text) || letterParenPrefix.MatchString(text) {
		return true
	}
	return length < 250
}

// parseOption strips option decorations (bullets, letter prefixes,
// correctness glyphs) and builds the Option. Single-letter image options
// keep their letter.
func parseOption(text string, isCorrect bool) (exam.Option, bool) {
	text = strings.TrimSpace(text)

	if !singleLetterOption.MatchString(text) {
		text = bulletPrefixPattern.ReplaceAllString(text, "")
		text = letterParenPrefix.ReplaceAllString(text, "")
		text = letterDotPrefix.ReplaceAllString(text, "")
		// Orphan close-parens appear when a rendering splits "a)" across
		// spans.
		text = orphanParenPrefix.ReplaceAllString(text, "")
	}
	for _, glyph := range correctGlyphs {
		text = strings.ReplaceAll(text, glyph, "")
	}
	for _, glyph := range incorrectGlyphs {
		text = strings.ReplaceAll(text, glyph, "")
	}
	text = strings.TrimSpace(text)

	if text == "" {
		return exam.Option{}, false
	}
	if utf8.RuneCountInString(text) < 2 && !singleLetterOption.MatchString(text) {
		return exam.Option{}, false
	}
	return exam.Option{Text: text, IsCorrect: isCorrect}, true
}
