package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
)

const (
	// Label text sits on the same rendered line as its dropdown box.
	dropdownLabelYTol = 25.0
	// Option lists open no earlier than just above their box.
	dropdownYSlack = 5.0
	// Text this close above the next box belongs to that box.
	dropdownNextBoxMargin = 15.0
)

var (
	pageRatioPattern      = regexp.MustCompile(`^\d+/\d+$`)
	categoryMarkerPattern = regexp.MustCompile(`^[A-Z]{2,3}\s*\d*$`)
	dropdownListTrailer   = regexp.MustCompile(`\)+\s*(och\s*)?$`)
	optionSeparator       = regexp.MustCompile(`,\s+`)
)

// posSpan is one text span flattened to its anchor position, the unit the
// dropdown sub-parser works in.
type posSpan struct {
	text string
	x, y float64
}

// parseDropdownQuestion rebuilds a dropdown question from page geometry:
// each gray-bordered box becomes a ${choicesN} placeholder, the green
// text inside the box is the recorded answer, and the parenthesized list
// after the box is the disclosed option set. Returns false when the page
// carries no usable boxes, in which case the generic cascade runs.
func (p *Parser) parseDropdownQuestion(open *openQuestion) bool {
	q := &open.question
	page := p.doc.Page(q.PageNum)
	dropdowns := classifyRegions(page).dropdowns
	if len(dropdowns) == 0 {
		return false
	}

	spans := flattenSpans(page)
	startY := questionStartY(spans, q.Number)

	choices := make(map[string]exam.DropdownChoice)
	for i, dd := range dropdowns {
		rect := dd.rect

		selected := ""
		for _, s := range spans {
			if rect.X0 < s.x && s.x < rect.X1 && rect.Y0 < s.y && s.y < rect.Y1 {
				selected = strings.TrimSpace(s.text)
				break
			}
		}
		if selected == "" {
			continue
		}

		nextY := 9999.0
		if i+1 < len(dropdowns) {
			nextY = dropdowns[i+1].rect.Y0
		}
		options := collectBoxOptions(spans, rect, nextY)

		choices[fmt.Sprintf("choices%d", i+1)] = exam.DropdownChoice{
			Answer:  selected,
			Options: options,
		}
	}
	if len(choices) == 0 {
		return false
	}

	firstY := dropdowns[0].rect.Y0

	var mainParts []string
	for _, s := range spans {
		if s.y <= startY || s.y >= firstY-dropdownYSlack {
			continue
		}
		if categoryMarkerPattern.MatchString(strings.TrimSpace(s.text)) {
			continue
		}
		mainParts = append(mainParts, s.text)
	}
	main := strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.Join(mainParts, " "), " "))

	dsl := buildPlaceholderText(spans, dropdowns)

	if main != "" {
		q.Text = main + "\n\n" + dsl
	} else {
		q.Text = dsl
	}
	q.Choices = choices
	q.Expected = exam.Exactly(len(choices))
	q.Answer = ""

	return true
}

// flattenSpans collects every positioned span on the page in reading
// order, dropping page-ratio footers like "13/25".
func flattenSpans(page layout.Page) []posSpan {
	var spans []posSpan
	for _, block := range page.Blocks {
		for _, line := range block.Lines {
			for _, s := range line.Spans {
				if pageRatioPattern.MatchString(strings.TrimSpace(s.Text)) {
					continue
				}
				spans = append(spans, posSpan{text: s.Text, x: s.BBox.X0, y: s.BBox.Y0})
			}
		}
	}
	sort.SliceStable(spans, func(a, b int) bool {
		if spans[a].y != spans[b].y {
			return spans[a].y < spans[b].y
		}
		return spans[a].x < spans[b].x
	})
	return spans
}

// questionStartY locates the y of the line opening with the question
// number, the upper bound for the question's own content.
func questionStartY(spans []posSpan, num int) float64 {
	numStr := strconv.Itoa(num)
	for _, s := range spans {
		text := strings.TrimSpace(s.text)
		if text == numStr {
			return s.y
		}
		rest, ok := strings.CutPrefix(text, numStr)
		if !ok || rest == "" {
			continue
		}
		trimmed := strings.TrimLeft(rest, " \t")
		if trimmed != rest && trimmed != "" && trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
			return s.y
		}
	}
	return 0
}

// collectBoxOptions gathers the parenthesized option list rendered after
// a dropdown box, tracking paren depth across spans until the list
// closes or the next box begins.
func collectBoxOptions(spans []posSpan, rect layout.Rect, nextY float64) []string {
	var parts []string
	inOptions := false
	depth := 0

	for _, s := range spans {
		if s.y < rect.Y0-dropdownYSlack {
			continue
		}
		if s.y > nextY-dropdownNextBoxMargin {
			break
		}
		if rect.X0 < s.x && s.x < rect.X1 && rect.Y0 < s.y && s.y < rect.Y1 {
			continue
		}

		if !inOptions {
			idx := strings.Index(s.text, "(")
			if idx < 0 {
				continue
			}
			inOptions = true
			after := s.text[idx+1:]
			depth = 1 + strings.Count(after, "(") - strings.Count(after, ")")
			if strings.TrimSpace(after) != "" {
				parts = append(parts, after)
			}
			if depth <= 0 && strings.Contains(s.text, "))") {
				break
			}
			continue
		}

		depth += strings.Count(s.text, "(") - strings.Count(s.text, ")")
		parts = append(parts, s.text)
		if strings.Contains(s.text, "))") ||
			(depth <= 0 && strings.HasSuffix(strings.TrimRight(s.text, " "), ")")) {
			break
		}
	}

	if len(parts) == 0 {
		return nil
	}
	return splitOptionList(strings.Join(parts, " "))
}

// splitOptionList splits a joined option string on commas that introduce
// a new lowercase word, preserving commas inside individual options, and
// deduplicates the result.
func splitOptionList(text string) []string {
	text = dropdownListTrailer.ReplaceAllString(text, "")

	var raw []string
	last := 0
	for _, loc := range optionSeparator.FindAllStringIndex(text, -1) {
		r, _ := utf8.DecodeRuneInString(text[loc[1]:])
		if (r >= 'a' && r <= 'z') || r == 'å' || r == 'ä' || r == 'ö' {
			raw = append(raw, text[last:loc[0]])
			last = loc[1]
		}
	}
	raw = append(raw, text[last:])

	seen := make(map[string]bool)
	var options []string
	for _, opt := range raw {
		opt = strings.TrimSpace(opt)
		for strings.Count(opt, ")") > strings.Count(opt, "(") && strings.HasSuffix(opt, ")") {
			opt = strings.TrimSpace(opt[:len(opt)-1])
		}
		if len(opt) > 2 && !seen[opt] {
			seen[opt] = true
			options = append(options, opt)
		}
	}
	return options
}

// buildPlaceholderText renders the boxes as ${choicesN} placeholders:
// boxes within the section gap share a line joined by "och", each box
// prefixed by the label text to its left on the same line.
func buildPlaceholderText(spans []posSpan, dropdowns []dropdownBox) string {
	type entry struct {
		idx   int
		label string
	}

	var sections [][]entry
	var current []entry
	prevY := -1.0

	for i, dd := range dropdowns {
		rect := dd.rect
		y := rect.Y0

		label := ""
		for _, s := range spans {
			text := strings.TrimSpace(s.text)
			if abs(s.y-y) >= dropdownLabelYTol || s.x >= rect.X0-dropdownYSlack {
				continue
			}
			insidePrev := false
			for j := 0; j < i; j++ {
				pr := dropdowns[j].rect
				if pr.X0 < s.x && s.x < pr.X1 && pr.Y0 < s.y && s.y < pr.Y1 {
					insidePrev = true
					break
				}
			}
			if !insidePrev && text != "" && !strings.HasPrefix(text, "(") {
				label = text
			}
		}

		if prevY < 0 || abs(y-prevY) > dropdownSectionGap {
			if len(current) > 0 {
				sections = append(sections, current)
			}
			current = []entry{{idx: i, label: label}}
		} else {
			current = append(current, entry{idx: i, label: label})
		}
		prevY = y
	}
	if len(current) > 0 {
		sections = append(sections, current)
	}

	lines := make([]string, 0, len(sections))
	for _, section := range sections {
		parts := make([]string, 0, len(section))
		for _, e := range section {
			part := fmt.Sprintf("${choices%d}", e.idx+1)
			if e.label != "" {
				part = e.label + " " + part
			}
			parts = append(parts, part)
		}
		lines = append(lines, strings.Join(parts, " och "))
	}
	return strings.Join(lines, "\n\n")
}
