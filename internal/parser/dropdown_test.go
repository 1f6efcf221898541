package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
)

func dropdownBorder(x0, y0, x1, y1 float64) layout.Drawing {
	r := layout.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
	return layout.Drawing{Bounds: &r, Stroke: &layout.Color{R: 0.8, G: 0.8, B: 0.8}, Items: 20}
}

func TestParseDropdownQuestion(t *testing.T) {
	toc := layout.Page{
		Blocks: append(tocRow("1", "Textalternativ", 20),
			blockOf(span("Innehåll", 40, 40)),
		),
	}
	question := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("1 Mitokondrien kallas cellens kraftverk", 40, 100)),
			blockOf(span("Fyll i det som saknas.", 40, 110)),
			blockOf(span("energimolekylen", 20, 135)),
			blockOf(span("(ATP, glukos, syre))", 170, 135)),
			blockOf(styledSpan("ATP", 100, 135, "Helvetica", greenTextColor)),
			blockOf(span("Totalpoäng: 2", 40, 200)),
		},
		Drawings: []layout.Drawing{dropdownBorder(60, 130, 160, 150)},
	}

	parsed := parseDoc(t, docOf(toc, question))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, exam.TypeDropdown, q.Type)
	assert.Equal(t, "Fyll i det som saknas.\n\nenergimolekylen ${choices1}", q.Text)
	assert.Equal(t, exam.Exactly(1), q.Expected)
	assert.Empty(t, q.Answer)

	require.Contains(t, q.Choices, "choices1")
	choice := q.Choices["choices1"]
	assert.Equal(t, "ATP", choice.Answer)
	assert.Equal(t, []string{"ATP", "glukos", "syre"}, choice.Options)
}

func TestSplitOptionList(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"simple_list",
			"glukos, laktos, fruktos",
			[]string{"glukos", "laktos", "fruktos"},
		},
		{
			"keeps_comma_before_uppercase",
			"natrium, ATP, kalium",
			[]string{"natrium, ATP", "kalium"},
		},
		{
			"strips_closing_parens",
			"insulin, glukagon))",
			[]string{"insulin", "glukagon"},
		},
		{
			"trailing_och_removed",
			"aktin, myosin) och",
			[]string{"aktin", "myosin"},
		},
		{
			"dedupes",
			"galla, galla, pepsin",
			[]string{"galla", "pepsin"},
		},
		{
			"drops_short_fragments",
			"hemoglobin, av, myoglobin",
			[]string{"hemoglobin", "myoglobin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitOptionList(tt.text))
		})
	}
}

func TestQuestionStartY(t *testing.T) {
	spans := []posSpan{
		{text: "Kurskod BIO123", x: 40, y: 30},
		{text: "7 Vilken organell saknas?", x: 40, y: 120},
		{text: "7", x: 500, y: 700},
	}

	assert.Equal(t, 120.0, questionStartY(spans, 7))
	assert.Equal(t, 0.0, questionStartY(spans, 9))
}

func TestDropdownFallsBackWithoutBoxes(t *testing.T) {
	toc := layout.Page{Blocks: tocRow("1", "Textalternativ", 20)}
	question := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("1 Komplettera meningen nedan i fritext", 40, 100)),
			blockOf(span("Totalpoäng: 1", 40, 200)),
		},
	}

	parsed := parseDoc(t, docOf(toc, question))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Empty(t, q.Choices)
	assert.Equal(t, "Komplettera meningen nedan i fritext", q.Text)
}
