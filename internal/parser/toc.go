package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
)

// tocToken is a positioned token collected from the table-of-contents
// window: either a candidate question number or a type label.
type tocToken struct {
	page int
	x, y int
}

type tocNumber struct {
	tocToken
	value int
}

type tocType struct {
	tocToken
	label string
}

// resolveQuestionTypes scans the first tocPageWindow pages for the
// number-to-type summary table and returns the resolved mapping. Column
// clustering is the primary strategy; when it resolves too few entries
// the line-order fallback zips numbers and labels in reading order.
func resolveQuestionTypes(doc layout.Document) map[int]string {
	numbers, types := collectTOCTokens(doc)
	resolved := matchByColumns(doc.PageCount(), numbers, types)

	if len(resolved) < tocFallbackThreshold {
		fillByLineOrder(doc, resolved)
	}

	return resolved
}

// collectTOCTokens gathers single-token numbers (1-3 digits, value up to
// maxTOCNumber) and exact type-label tokens with span-level positions.
func collectTOCTokens(doc layout.Document) ([]tocNumber, []tocType) {
	var numbers []tocNumber
	var types []tocType

	pages := minInt(tocPageWindow, doc.PageCount())
	for pageNum := 0; pageNum < pages; pageNum++ {
		for _, block := range doc.Page(pageNum).Blocks {
			for _, line := range block.Lines {
				for _, span := range line.Spans {
					text := strings.TrimSpace(span.Text)
					pos := tocToken{
						page: pageNum,
						x:    int(math.Round(span.BBox.X0)),
						y:    int(math.Round(span.BBox.Y0)),
					}

					if tocNumberPattern.MatchString(text) {
						if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= maxTOCNumber {
							numbers = append(numbers, tocNumber{tocToken: pos, value: n})
						}
					}
					if isQuestionType(text) {
						types = append(types, tocType{tocToken: pos, label: text})
					}
				}
			}
		}
	}

	return numbers, types
}

// matchByColumns resolves the type column as the modal x of type labels,
// scores number columns left of it by distinct-value count (bonus for
// values above 10, which rules out a points column), and then pairs
// numbers with types by y-proximity within the resolved columns.
func matchByColumns(pageCount int, numbers []tocNumber, types []tocType) map[int]string {
	resolved := make(map[int]string)

	typeX, haveTypeX := modalTypeX(types)
	numberX, haveNumberX := bestNumberColumn(numbers, typeX, haveTypeX)

	pages := minInt(tocPageWindow, pageCount)
	for pageNum := 0; pageNum < pages; pageNum++ {
		var pageNumbers []tocNumber
		for _, n := range numbers {
			if n.page != pageNum {
				continue
			}
			if haveNumberX && absInt(n.x-numberX) >= 15 {
				continue
			}
			pageNumbers = append(pageNumbers, n)
		}
		var pageTypes []tocType
		for _, t := range types {
			if t.page != pageNum {
				continue
			}
			if haveTypeX && absInt(t.x-typeX) >= 20 {
				continue
			}
			pageTypes = append(pageTypes, t)
		}

		for _, n := range pageNumbers {
			for _, t := range pageTypes {
				if absInt(n.y-t.y) < 5 {
					resolved[n.value] = t.label
					break
				}
			}
		}
	}

	return resolved
}

func modalTypeX(types []tocType) (int, bool) {
	if len(types) == 0 {
		return 0, false
	}
	counts := make(map[int]int)
	for _, t := range types {
		counts[t.x]++
	}
	bestX, bestCount := 0, 0
	for x, c := range counts {
		if c > bestCount || (c == bestCount && x < bestX) {
			bestX, bestCount = x, c
		}
	}
	return bestX, true
}

func bestNumberColumn(numbers []tocNumber, typeX int, haveTypeX bool) (int, bool) {
	byX := make(map[int][]int)
	for _, n := range numbers {
		if haveTypeX && n.x >= typeX {
			continue
		}
		byX[n.x] = append(byX[n.x], n.value)
	}

	bestX, bestScore := 0, 0
	for x, values := range byX {
		distinct := make(map[int]struct{}, len(values))
		hasLarge := false
		for _, v := range values {
			distinct[v] = struct{}{}
			if v > 10 {
				hasLarge = true
			}
		}
		score := len(distinct)
		if hasLarge {
			score += 10
		}
		if score > bestScore {
			bestX, bestScore = x, score
		}
	}

	return bestX, bestScore > 0
}

// fillByLineOrder is the fallback for renderings without reliable column
// alignment: collect numbers and type-label lines in reading order and,
// when the counts line up, zip them positionally, filling only gaps the
// column pass left open. The order assumption is unvalidated; a silently
// mismatched zip is a known fidelity gap of the source layout.
func fillByLineOrder(doc layout.Document, resolved map[int]string) {
	var numbers []int
	var labels []string

	pages := minInt(tocPageWindow, doc.PageCount())
	for pageNum := 0; pageNum < pages; pageNum++ {
		for _, line := range strings.Split(doc.Page(pageNum).Text(), "\n") {
			line = strings.TrimSpace(line)
			if isQuestionType(line) {
				labels = append(labels, line)
			} else if tocNumberPattern.MatchString(line) {
				if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= maxQuestionNumber {
					numbers = append(numbers, n)
				}
			}
		}
	}

	if len(numbers) == 0 || len(numbers) != len(labels) {
		return
	}
	for i, n := range numbers {
		if _, ok := resolved[n]; !ok {
			resolved[n] = labels[i]
		}
	}
}

func isQuestionType(text string) bool {
	for _, t := range exam.QuestionTypes {
		if text == t {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
