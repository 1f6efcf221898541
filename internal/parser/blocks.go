package parser

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jdahlin/disa-parser/internal/layout"
)

// textBlock is one assembled, position-tagged text unit. Blocks live only
// for the duration of a single page's segmentation pass.
type textBlock struct {
	text string
	x, y float64

	// isCorrect is set by a correctness glyph, green text color, or
	// y-proximity to a green marker region.
	isCorrect   bool
	isIncorrect bool
	// isAnswerFont is set when any non-whitespace span uses the
	// designated answer font family or the correct-text color.
	isAnswerFont bool
}

// assembleBlocks merges a page's raw spans into position-sorted text
// blocks, annotating each with the correctness and answer-font flags
// derived from span metadata and the page's classified regions. Blocks
// with no visible text are dropped.
func assembleBlocks(page layout.Page, regions pageRegions) []textBlock {
	blocks := make([]textBlock, 0, len(page.Blocks))

	for _, raw := range page.Blocks {
		var sb strings.Builder
		block := textBlock{x: raw.BBox.X0, y: raw.BBox.Y0}

		for _, line := range raw.Lines {
			for _, span := range line.Spans {
				text := norm.NFC.String(span.Text)
				sb.WriteString(text)

				if containsAny(text, correctGlyphs) {
					block.isCorrect = true
				}
				if containsAny(text, incorrectGlyphs) {
					block.isIncorrect = true
				}
				if strings.TrimSpace(text) != "" {
					if strings.Contains(span.Font, answerFontFamily) {
						block.isAnswerFont = true
					}
					if span.Color == greenTextColor {
						block.isCorrect = true
						block.isAnswerFont = true
					}
				}
			}
			// A space between source lines keeps words on adjacent
			// lines from fusing.
			sb.WriteByte(' ')
		}

		if regions.nearGreenSpan(block.y) {
			block.isCorrect = true
		}

		block.text = sb.String()
		if strings.TrimSpace(block.text) == "" {
			continue
		}
		blocks = append(blocks, block)
	}

	sort.SliceStable(blocks, func(a, b int) bool {
		if blocks[a].y != blocks[b].y {
			return blocks[a].y < blocks[b].y
		}
		return blocks[a].x < blocks[b].x
	})

	return blocks
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
