package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
)

func TestResolveQuestionTypesByColumns(t *testing.T) {
	// A summary table with a points column between the question numbers
	// and the type labels. The points column must lose the column vote.
	page := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("1", 100, 50)),
			blockOf(span("2", 150, 50)),
			blockOf(span("Flervalsfråga", 200, 50)),
			blockOf(span("2", 100, 70)),
			blockOf(span("1", 150, 70)),
			blockOf(span("Essäfråga", 200, 70)),
			blockOf(span("3", 100, 90)),
			blockOf(span("1", 150, 90)),
			blockOf(span("Sant/Falskt", 200, 90)),
		},
	}

	resolved := resolveQuestionTypes(docOf(page))
	assert.Equal(t, map[int]string{
		1: exam.TypeSingleChoice,
		2: exam.TypeEssay,
		3: exam.TypeTrueFalse,
	}, resolved)
}

func TestResolveQuestionTypesLineOrderFallback(t *testing.T) {
	// Numbers and labels on separate rendered lines, too far apart for
	// y-pairing. The reading-order zip picks up the slack.
	page := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("1", 100, 50)),
			blockOf(span("Essäfråga", 200, 80)),
			blockOf(span("2", 100, 110)),
			blockOf(span("Flervalsfråga", 200, 140)),
		},
	}

	resolved := resolveQuestionTypes(docOf(page))
	assert.Equal(t, map[int]string{
		1: exam.TypeEssay,
		2: exam.TypeSingleChoice,
	}, resolved)
}

func TestResolveQuestionTypesIgnoresLargeNumbers(t *testing.T) {
	page := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("250", 100, 50)),
			blockOf(span("Essäfråga", 200, 50)),
		},
	}

	resolved := resolveQuestionTypes(docOf(page))
	assert.Empty(t, resolved)
}

func TestResolveQuestionTypesEmptyDocument(t *testing.T) {
	resolved := resolveQuestionTypes(docOf(layout.Page{}))
	assert.Empty(t, resolved)
}
