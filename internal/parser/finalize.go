package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jdahlin/disa-parser/internal/exam"
)

var (
	wordLimitPattern    = regexp.MustCompile(`(?is)\(Max\s+\d+\s+ord\)\s*(.+)$`)
	bareParenPattern    = regexp.MustCompile(`(?s)\(\s*\)\s*(.+)$`)
	pointsParenAnswer   = regexp.MustCompile(`(?s)\(\d+(?:[.,]\d+)?p\)\s*(.+)$`)
	inlineQAPattern     = regexp.MustCompile(`\?\s*([^?]+?)(?:\s+[a-d]\)|$)`)
	trailingPointsFrag  = regexp.MustCompile(`\s*Totalpoäng:\s*[\d.,]+\s*`)
	numberedListPattern = regexp.MustCompile(`\d+[.:]\s*\w`)
	upperLabelPattern   = regexp.MustCompile(`(?:^|\s)[A-Z]\.\s`)
	lowerLabelPattern   = regexp.MustCompile(`(?:^|\s)[a-z]\)\s`)
	hotspotParenPoints  = regexp.MustCompile(`\(\d+p\)`)
	hotspotClickTrailer = regexp.MustCompile(`Klicka på bilden.*`)
	hotspotShortAnswer  = regexp.MustCompile(`^(\d+|[A-Za-z])(?:\s|$)`)
	chooseOneOption     = regexp.MustCompile(`\s*Välj ett (eller flera )?alternativ:?\s*`)
	markCorrectPhrase   = regexp.MustCompile(`\s*Markera det korrekta alternativet\.?\s*`)
	parenPointsAnnot    = regexp.MustCompile(`\(\d+(?:[.,]\d+)?p\)`)
	trailingPointsAnnot = regexp.MustCompile(`\s+\d+(?:[.,]\d+)?p\b`)
	helpPhrase          = regexp.MustCompile(`\s*Hjälp\s*`)
)

// answerRule is one step of the answer-extraction cascade: it either
// splits the accumulated body text into (answer, remaining question) or
// reports no match, in which case the next rule runs.
type answerRule struct {
	name    string
	extract func(fullText string) (answer, question string, ok bool)
}

// answerTextRules is the ordered cascade tried when no higher-priority
// source (dropdowns, hotspots, answer-font lines) produced an answer.
var answerTextRules = []answerRule{
	{
		name: "word-limit-trailer",
		extract: func(fullText string) (string, string, bool) {
			loc := wordLimitPattern.FindStringSubmatchIndex(fullText)
			if loc == nil {
				return "", "", false
			}
			answer := strings.TrimSpace(fullText[loc[2]:loc[3]])
			if utf8.RuneCountInString(answer) <= 10 {
				return "", "", false
			}
			return answer, strings.TrimSpace(fullText[:loc[1]]), true
		},
	},
	{
		name: "write-answer-marker",
		extract: func(fullText string) (string, string, bool) {
			for _, marker := range answerMarkers {
				if idx := strings.Index(fullText, marker); idx >= 0 {
					answer := strings.TrimSpace(fullText[idx+len(marker):])
					return answer, fullText[:idx], true
				}
			}
			return "", "", false
		},
	},
	{
		name: "bare-paren-marker",
		extract: func(fullText string) (string, string, bool) {
			loc := bareParenPattern.FindStringSubmatchIndex(fullText)
			if loc == nil {
				return "", "", false
			}
			answer := strings.TrimSpace(fullText[loc[2]:loc[3]])
			if answer == "" {
				return "", "", false
			}
			return answer, strings.TrimSpace(fullText[:loc[0]]), true
		},
	},
	{
		name: "paren-points-trailer",
		extract: func(fullText string) (string, string, bool) {
			loc := pointsParenAnswer.FindStringSubmatchIndex(fullText)
			if loc == nil || loc[3]-loc[2] <= 3 {
				return "", "", false
			}
			answer := strings.TrimSpace(fullText[loc[2]:loc[3]])
			return answer, strings.TrimSpace(fullText[:loc[0]]), true
		},
	},
	{
		name: "inline-qa-pairs",
		extract: func(fullText string) (string, string, bool) {
			matches := inlineQAPattern.FindAllStringSubmatch(fullText, -1)
			if len(matches) < 2 {
				return "", "", false
			}
			var answers []string
			for _, m := range matches {
				if a := strings.TrimSpace(m[1]); a != "" {
					answers = append(answers, a)
				}
			}
			if len(answers) == 0 {
				return "", "", false
			}
			return strings.Join(answers, " | "), fullText, true
		},
	},
}

// fontAnswerTypes are the question types whose answer-font lines are the
// answer key.
var fontAnswerTypes = map[string]bool{
	exam.TypeTextArea:    true,
	exam.TypeTextField:   true,
	exam.TypeTextInImage: true,
	exam.TypeNumberField: true,
	exam.TypeEssayShort:  true,
	exam.TypeEssay:       true,
	exam.TypeShortAnswer: true,
	exam.TypeHotspot:     true,
	exam.TypeDropdown:    true,
}

// essayTypes are corrected when option detection over-fired on prose.
var essayTypes = map[string]bool{
	exam.TypeEssayShort:  true,
	exam.TypeEssay:       true,
	exam.TypeShortAnswer: true,
	exam.TypeTextArea:    true,
}

// mcqTypes may carry inline answers instead of a real option set.
var mcqTypes = map[string]bool{
	exam.TypeSingleChoice: true,
	exam.TypeMultiChoice:  true,
	exam.TypeUnknown:      true,
}

// finalizeQuestion turns the accumulated buffers into the question's
// final text, answer, options and expected-answer count. Every step is
// best-effort: a non-matching heuristic leaves the field at its prior
// value and the next step runs.
func (p *Parser) finalizeQuestion(open *openQuestion) {
	q := &open.question

	// Dropdown questions parse from page geometry; success short-circuits
	// the generic cascade.
	if q.Type == exam.TypeDropdown && q.PageNum >= 0 {
		if p.parseDropdownQuestion(open) {
			return
		}
	}

	fullText := strings.Join(open.textParts, "\n")
	questionText := fullText
	answerText := ""

	// Captured blue regions are the answer for hotspot questions; the
	// regions stay on the question for downstream geometric checks.
	if len(open.hotspots) > 0 && q.Type == exam.TypeHotspot {
		coords := make([]string, len(open.hotspots))
		for i, r := range open.hotspots {
			coords[i] = fmt.Sprintf("(%d,%d)", r.X, r.Y)
		}
		answerText = strings.Join(coords, ", ")
		q.HotspotRegions = open.hotspots
	}

	if answerText == "" && len(open.answerParts) > 0 && fontAnswerTypes[q.Type] {
		answerText = strings.Join(open.answerParts, ", ")
	}

	if answerText == "" {
		for _, rule := range answerTextRules {
			if a, rest, ok := rule.extract(fullText); ok {
				answerText = a
				questionText = rest
				break
			}
		}
	}

	if answerText != "" {
		answerText = strings.TrimSpace(trailingPointsFrag.ReplaceAllString(answerText, ""))
	}

	options := open.options

	// Essay prose split across the option column is not an option set.
	if essayTypes[q.Type] && len(options) > 0 && answerText == "" {
		texts := make([]string, len(options))
		anyCorrect := false
		for i, o := range options {
			texts[i] = o.Text
			anyCorrect = anyCorrect || o.IsCorrect
		}
		combined := strings.Join(texts, " ")
		if numberedListPattern.MatchString(combined) || (len(options) <= 3 && !anyCorrect) {
			answerText = combined
			options = nil
		}
	}

	// A lone unmarked option on a choice question is an inline answer,
	// not a one-entry option set.
	if mcqTypes[q.Type] && len(options) == 1 && answerText == "" && !options[0].IsCorrect {
		answerText = options[0].Text
		options = nil
	}

	if mcqTypes[q.Type] && len(options) == 0 && answerText == "" {
		answerText, questionText = recoverInlineAnswers(fullText, questionText)
	}

	if q.Type == exam.TypeHotspot && answerText == "" {
		answerText = hotspotTextFallback(fullText)
	}

	q.Text = cleanQuestionText(questionText)
	q.Expected = extractExpectedAnswers(questionText)
	q.Answer = answerText
	q.Options = options
	identifyCorrectAnswers(q)

	// A multi-select without an explicit count inherits the observed
	// count of marked-correct options.
	if q.Type == exam.TypeMultiChoice && q.Expected == exam.One {
		if n := len(q.CorrectOptions()); n > 1 {
			q.Expected = exam.Exactly(n)
		}
	}
}

// recoverInlineAnswers recovers answer fragments from unsegmented prose
// for choice questions that produced no option set: "A. ..." lists,
// "a) ..." lists, then text after a final question mark.
func recoverInlineAnswers(fullText, questionText string) (string, string) {
	if answers := splitLabeledList(fullText, upperLabelPattern); len(answers) >= 2 {
		return strings.Join(answers, " | "), questionText
	}
	if answers := splitLabeledList(fullText, lowerLabelPattern); len(answers) >= 2 {
		return strings.Join(answers, " | "), questionText
	}

	if idx := strings.LastIndex(fullText, "?"); idx >= 0 {
		candidate := strings.TrimSpace(fullText[idx+1:])
		if utf8.RuneCountInString(candidate) > 5 {
			lower := strings.ToLower(candidate)
			if !strings.Contains(lower, "välj") && !strings.Contains(lower, "markera") &&
				!strings.Contains(lower, "svara") {
				return candidate, fullText[:idx] + "?"
			}
		}
	}
	return "", questionText
}

// splitLabeledList splits text at label positions ("A. " or "a) ") and
// returns the fragments longer than a few characters.
func splitLabeledList(text string, label *regexp.Regexp) []string {
	locs := label.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return nil
	}
	var answers []string
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		fragment := strings.TrimSpace(text[loc[1]:end])
		if utf8.RuneCountInString(fragment) > 5 {
			answers = append(answers, fragment)
		}
	}
	if len(answers) == 0 {
		return nil
	}
	return answers
}

// hotspotTextFallback recovers a short textual answer rendered after the
// question mark when no blue regions were captured.
func hotspotTextFallback(fullText string) string {
	idx := strings.Index(fullText, "?")
	if idx < 0 {
		return ""
	}
	after := strings.TrimSpace(fullText[idx+1:])
	after = strings.TrimSpace(hotspotParenPoints.ReplaceAllString(after, ""))
	after = strings.TrimSpace(hotspotClickTrailer.ReplaceAllString(after, ""))

	if m := hotspotShortAnswer.FindStringSubmatch(after); m != nil {
		return m[1]
	}
	if n := utf8.RuneCountInString(after); n > 0 && n < 50 {
		return after
	}
	return ""
}

// cleanQuestionText collapses whitespace and strips instructional
// boilerplate and point-value annotations from the final body text.
func cleanQuestionText(text string) string {
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	text = chooseOneOption.ReplaceAllString(text, " ")
	text = markCorrectPhrase.ReplaceAllString(text, " ")
	text = parenPointsAnnot.ReplaceAllString(text, "")
	text = trailingPointsAnnot.ReplaceAllString(text, "")
	text = helpPhrase.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// extractExpectedAnswers derives the expected-answer count from explicit
// cues in the question text. Defaults to one.
func extractExpectedAnswers(text string) exam.ExpectedCount {
	for _, loc := range expectedAnswersPattern.FindAllStringSubmatchIndex(text, -1) {
		token := ""
		tokenEnd := -1
		for g := 1; g < len(loc)/2; g++ {
			if loc[2*g] >= 0 && loc[2*g] < loc[2*g+1] {
				token = strings.ToLower(text[loc[2*g]:loc[2*g+1]])
				tokenEnd = loc[2*g+1]
				break
			}
		}
		// "ett eller flera" is the open phrasing, not a count of one.
		if (token == "ett" || token == "en") && tokenEnd >= 0 &&
			strings.HasPrefix(strings.TrimLeft(text[tokenEnd:], " \t"), "eller flera") {
			continue
		}
		switch {
		case token == "påståenden":
			// The bare plural implies at least two.
			return exam.AtLeast(2)
		case token != "":
			if n, err := strconv.Atoi(token); err == nil {
				return exam.Exactly(n)
			}
			if n, ok := swedishNumbers[token]; ok {
				return exam.Exactly(n)
			}
		}
	}
	if multipleAnswersPattern.MatchString(text) {
		return exam.AtLeast(1)
	}
	return exam.One
}

// identifyCorrectAnswers derives the correct answer from marked options:
// single-select takes the first marked option, every other type with
// marked options takes all of them.
func identifyCorrectAnswers(q *exam.Question) {
	correct := q.CorrectOptions()
	if len(correct) == 0 {
		return
	}
	if q.Type == exam.TypeSingleChoice {
		q.CorrectAnswer = exam.AnswerList{correct[0].Text}
		return
	}
	texts := make(exam.AnswerList, len(correct))
	for i, o := range correct {
		texts[i] = o.Text
	}
	q.CorrectAnswer = texts
}
