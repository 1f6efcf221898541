package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
)

// Parser extracts questions, answer options and graded answers from one
// exam document. All mutable parse state (resolved type map, seen
// question numbers, column thresholds) is scoped to the instance; one
// Parser handles exactly one document and is not safe for concurrent use.
// Independent documents parse concurrently with independent Parsers.
type Parser struct {
	doc      layout.Document
	filename string
	course   string

	profile       FormatProfile
	questionTypes map[int]string
	seen          map[int]bool
	metadata      exam.Metadata
	questions     []exam.Question
}

// New creates a parser for the given layout document. The filename and
// course identifier are carried through to the parsed result.
func New(doc layout.Document, filename, course string) *Parser {
	return &Parser{
		doc:      doc,
		filename: filename,
		course:   course,
		profile:  formatProfiles["other"],
		seen:     make(map[int]bool),
	}
}

// Parse runs the full extraction pipeline: format detection, metadata,
// table-of-contents resolution, question segmentation and finalization,
// and graded detection. A document that yields no questions is a valid,
// empty result, not an error.
func (p *Parser) Parse() (*exam.ParsedExam, error) {
	if p.doc == nil {
		return nil, fmt.Errorf("parser has no document")
	}

	p.profile = detectFormat(p.doc)
	p.metadata = parseMetadata(p.doc)
	p.questionTypes = resolveQuestionTypes(p.doc)
	p.parseQuestions()
	p.metadata.IsGraded = detectGraded(p.doc, p.questions)

	return &exam.ParsedExam{
		Filename:  p.filename,
		Course:    p.course,
		Metadata:  p.metadata,
		Questions: p.questions,
	}, nil
}

// openQuestion is the accumulator for the question currently being
// segmented: the question record under construction plus its text,
// answer-font, option and hotspot buffers. A nil *openQuestion is the
// idle state.
type openQuestion struct {
	question    exam.Question
	textParts   []string
	answerParts []string
	options     []exam.Option
	hotspots    []exam.HotspotRegion
}

// parseQuestions walks assembled blocks in document order, opening a
// question at each new question-number block and finalizing the previous
// one. Question numbers already seen never reopen; footer repeats of a
// number cannot corrupt an open question.
func (p *Parser) parseQuestions() {
	start := p.firstQuestionPage()
	var open *openQuestion

	for pageNum := start; pageNum < p.doc.PageCount(); pageNum++ {
		page := p.doc.Page(pageNum)
		regions := classifyRegions(page)
		blocks := assembleBlocks(page, regions)

		for _, block := range blocks {
			text := strings.TrimSpace(block.text)
			if text == "" || isHeaderFooter(text) {
				continue
			}

			if next, opened := p.tryOpenQuestion(open, block, text, pageNum, regions); opened {
				open = next
				continue
			}
			if open != nil {
				p.accumulateBlock(open, block, text)
			}
		}
	}

	if open != nil {
		p.closeQuestion(open)
	}

	// False question-start detections leave questions with no body;
	// drop them.
	kept := p.questions[:0]
	for i := range p.questions {
		if strings.TrimSpace(p.questions[i].Text) != "" {
			kept = append(kept, p.questions[i])
		}
	}
	p.questions = kept
}

// tryOpenQuestion checks whether the block is a valid question start and,
// if so, finalizes any open question and returns a fresh accumulator.
func (p *Parser) tryOpenQuestion(open *openQuestion, block textBlock, text string, pageNum int, regions pageRegions) (*openQuestion, bool) {
	if block.x >= p.profile.QuestionNumberX {
		return open, false
	}

	num, remaining, ok := matchQuestionStart(text)
	if !ok || num < 1 || num > maxQuestionNumber || p.seen[num] {
		return open, false
	}

	if open != nil {
		p.closeQuestion(open)
	}

	p.seen[num] = true
	qType, found := p.questionTypes[num]
	if !found {
		qType = exam.TypeUnknown
	}
	category := extractCategory(remaining)

	next := &openQuestion{
		question: exam.Question{
			Number:    num,
			Type:      qType,
			Category:  category,
			Expected:  exam.One,
			PageNum:   pageNum,
			YPosition: block.y,
		},
		// The page's hotspot regions are snapshot once, at open time.
		hotspots: regions.hotspots,
	}

	if seed := seedText(remaining, category); seed != "" {
		next.textParts = append(next.textParts, seed)
	}

	return next, true
}

// matchQuestionStart parses "digits [remainder]" and the merged-number
// artifact "digitsLetter..." that some renderings produce.
func matchQuestionStart(text string) (int, string, bool) {
	if m := questionStartPattern.FindStringSubmatch(text); m != nil {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", false
		}
		return num, m[2], true
	}
	if m := mergedNumberPattern.FindStringSubmatch(text); m != nil {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", false
		}
		return num, m[2], true
	}
	return 0, "", false
}

// seedText derives the initial body text from the remainder of the
// question-start block, net of any category prefix.
func seedText(remaining, category string) string {
	remaining = strings.TrimSpace(remaining)
	if remaining == "" {
		return ""
	}
	if category == "" {
		if utf8.RuneCountInString(remaining) > 10 {
			return remaining
		}
		return ""
	}
	if utf8.RuneCountInString(remaining) > utf8.RuneCountInString(category)+5 {
		return strings.TrimSpace(remaining[len(category):])
	}
	return ""
}

// accumulateBlock routes one non-start block into the open question's
// buffers according to its position, flags and the question's type.
func (p *Parser) accumulateBlock(open *openQuestion, block textBlock, text string) {
	q := &open.question

	switch {
	case strings.Contains(text, "Totalpoäng:"):
		if m := pointsTotalPattern.FindStringSubmatch(text); m != nil {
			q.Points = parsePoints(m[1])
		}
		return

	case q.Type == exam.TypeDropdown:
		p.accumulateDropdownBlock(open, block, text)

	case q.Type == exam.TypeTrueFalse:
		// A compound statement renders in the option column too; only the
		// bare tokens are options, everything else is body text.
		if text == "Sant" || text == "Falskt" {
			open.options = append(open.options, exam.Option{Text: text, IsCorrect: block.isCorrect})
		} else if !isSkippable(text) {
			open.textParts = append(open.textParts, text)
		}

	case block.x >= p.profile.OptionX && looksLikeOption(text):
		if opt, ok := parseOption(text, block.isCorrect); ok {
			open.options = append(open.options, opt)
		}

	default:
		if !isSkippable(text) {
			switch {
			case block.isCorrect && isFreeTextType(q.Type):
				open.answerParts = append(open.answerParts, text)
			case block.isAnswerFont:
				open.answerParts = append(open.answerParts, text)
			default:
				open.textParts = append(open.textParts, text)
			}
		}
		if q.Points == 0 {
			q.Points = extractInlinePoints(text)
		}
	}
}

// accumulateDropdownBlock handles blocks of a dropdown question outside
// the dropdown sub-parser: the disclosed option lists render far right in
// parentheses and are skipped here, selected values render in a narrow
// column with the correct-text color, everything else is body text.
func (p *Parser) accumulateDropdownBlock(open *openQuestion, block textBlock, text string) {
	if block.x >= 200 && strings.HasPrefix(text, "(") {
		return
	}
	if block.isCorrect && block.x > 63 && block.x < 68 &&
		utf8.RuneCountInString(text) < 50 &&
		!strings.HasPrefix(text, "(") && !strings.Contains(text, ")") {
		open.answerParts = append(open.answerParts, text)
		return
	}
	if !isSkippable(text) {
		open.textParts = append(open.textParts, text)
	}
}

// closeQuestion finalizes the accumulator and appends the question.
func (p *Parser) closeQuestion(open *openQuestion) {
	p.finalizeQuestion(open)
	p.questions = append(p.questions, open.question)
}

// firstQuestionPage finds the first page that carries question content:
// an instructional marker phrase together with a line opening with a
// question number. Falls back to a fixed page when nothing matches.
func (p *Parser) firstQuestionPage() int {
	for pageNum := 0; pageNum < p.doc.PageCount(); pageNum++ {
		text := p.doc.Page(pageNum).Text()
		if !containsAny(text, questionMarkers) {
			continue
		}
		if questionBodyLine.MatchString(text) {
			return pageNum
		}
	}
	if p.doc.PageCount() > 3 {
		return 3
	}
	return 1
}

// isHeaderFooter matches the boilerplate repeated on every page.
func isHeaderFooter(text string) bool {
	if lpgHeaderPattern.MatchString(text) || pageNumberFooter.MatchString(text) {
		return true
	}
	return strings.Contains(text, "Candidate") || strings.Contains(text, "Digital tentamen")
}

// isSkippable matches inline instructions and numeric noise that belong
// to neither body nor answer.
func isSkippable(text string) bool {
	if strings.HasPrefix(text, "Ord:") || text == "Skriv in ditt svar här" {
		return true
	}
	if strings.HasPrefix(text, "Bifoga ritning") || strings.HasPrefix(text, "Använd följande kod:") {
		return true
	}
	return pureNumericPattern.MatchString(text)
}

// isFreeTextType reports whether a correctness-flagged block of this
// question type carries answer text rather than body text.
func isFreeTextType(qType string) bool {
	switch qType {
	case exam.TypeTextField, exam.TypeTextArea, exam.TypeTextInImage, exam.TypeNumberField:
		return true
	}
	return false
}

// extractCategory pulls a category code from the question-start
// remainder. Interrogative openers never form a category; otherwise a
// short uppercase code or a short phrase ending in a number qualifies.
func extractCategory(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	for _, stem := range interrogativeStems {
		if strings.HasPrefix(text, stem) {
			return ""
		}
	}
	if m := categoryCodePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := categoryPhrasePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractInlinePoints tries the inline "(Np)" and trailing " Np" point
// patterns used when no points-total line is present.
func extractInlinePoints(text string) float64 {
	if m := inlineParenPoints.FindStringSubmatch(text); m != nil {
		return parsePoints(m[1])
	}
	if m := inlineTrailingPoints.FindStringSubmatch(text); m != nil {
		return parsePoints(m[1])
	}
	return 0
}

func parsePoints(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}
