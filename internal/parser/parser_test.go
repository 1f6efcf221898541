package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
)

// Fixture helpers shared by the parser tests. Pages are built from
// positioned spans the way the exam platform's renderer reports them.

func span(text string, x, y float64) layout.Span {
	return layout.Span{
		Text: text,
		BBox: layout.Rect{X0: x, Y0: y, X1: x + 8*float64(len([]rune(text))), Y1: y + 12},
		Font: "Helvetica",
	}
}

func styledSpan(text string, x, y float64, font string, color uint32) layout.Span {
	s := span(text, x, y)
	s.Font = font
	s.Color = color
	return s
}

func blockOf(spans ...layout.Span) layout.Block {
	return layout.Block{
		BBox:  spans[0].BBox,
		Lines: []layout.Line{{Spans: spans}},
	}
}

// greenMarker is a wide correctness highlight bar.
func greenMarker(y0, y1 float64) layout.Drawing {
	r := layout.Rect{X0: 70, Y0: y0, X1: 400, Y1: y1}
	return layout.Drawing{Bounds: &r, Fill: &layout.Color{R: 0.1, G: 0.7, B: 0.1}, Items: 1}
}

// tocRow renders one table-of-contents row: question number column at
// x=480, type label column at x=520.
func tocRow(num, label string, y float64) []layout.Block {
	return []layout.Block{
		blockOf(span(num, 480, y)),
		blockOf(span(label, 520, y)),
	}
}

func docOf(pages ...layout.Page) layout.Document {
	m := make(map[int]layout.Page, len(pages))
	for i, p := range pages {
		m[i] = p
	}
	return layout.NewFixtureSource("fixture.pdf", len(pages), m)
}

func parseDoc(t *testing.T, doc layout.Document) *exam.ParsedExam {
	t.Helper()
	parsed, err := New(doc, "fixture.pdf", "biokemi").Parse()
	require.NoError(t, err)
	return parsed
}

func TestParseEssayAnswerFont(t *testing.T) {
	page := layout.Page{
		Blocks: append(tocRow("1", "Essäfråga", 20),
			blockOf(span("1 Vad heter Sveriges huvudstad?", 40, 100)),
			blockOf(styledSpan("Stockholm", 60, 130, "Georgia", 0)),
			blockOf(span("Totalpoäng: 1", 40, 160)),
		),
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, 1, q.Number)
	assert.Equal(t, exam.TypeEssay, q.Type)
	assert.Equal(t, "Vad heter Sveriges huvudstad?", q.Text)
	assert.Equal(t, "Stockholm", q.Answer)
	assert.Equal(t, 1.0, q.Points)
	assert.Equal(t, exam.One, q.Expected)
	assert.True(t, q.HasAnswer())
}

func TestParseQuestionOpeningWithSwedishLetter(t *testing.T) {
	// The first question page is found even when its only numbered line
	// opens with a letter outside ASCII.
	page := layout.Page{
		Blocks: append(tocRow("1", "Essäfråga", 20),
			blockOf(span("1 Äter alla bakterier samma näringsämnen?", 40, 100)),
			blockOf(styledSpan("Nej, de är specialiserade", 60, 130, "Georgia", 0)),
			blockOf(span("Totalpoäng: 2", 40, 160)),
		),
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, "Äter alla bakterier samma näringsämnen?", q.Text)
	assert.Equal(t, "Nej, de är specialiserade", q.Answer)
}

func TestParseSingleChoiceGreenMarker(t *testing.T) {
	page := layout.Page{
		Blocks: append(tocRow("1", "Flervalsfråga", 20),
			blockOf(span("1 Vilken gas dominerar i jordens atmosfär?", 40, 100)),
			blockOf(span("Välj ett alternativ:", 60, 115)),
			blockOf(span("Syre", 80, 140)),
			blockOf(span("Kväve", 80, 170)),
			blockOf(span("Koldioxid", 80, 200)),
			blockOf(span("Totalpoäng: 2", 40, 230)),
		),
		Drawings: []layout.Drawing{greenMarker(168, 180)},
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, exam.TypeSingleChoice, q.Type)
	assert.Equal(t, "Vilken gas dominerar i jordens atmosfär?", q.Text)
	assert.Equal(t, 2.0, q.Points)

	require.Len(t, q.Options, 3)
	assert.False(t, q.Options[0].IsCorrect)
	assert.True(t, q.Options[1].IsCorrect)
	assert.False(t, q.Options[2].IsCorrect)
	assert.Equal(t, exam.AnswerList{"Kväve"}, q.CorrectAnswer)
	assert.True(t, parsed.Metadata.IsGraded)
}

func TestParseMultiChoiceExpectedCount(t *testing.T) {
	page := layout.Page{
		Blocks: append(tocRow("1", "Flersvarsfråga", 20),
			blockOf(span("1 Markera tre korrekta påståenden om enzymer", 40, 100)),
			blockOf(span("Enzymer sänker aktiveringsenergin", 80, 140)),
			blockOf(span("Enzymer förbrukas i reaktionen", 80, 170)),
			blockOf(span("Enzymer är oftast proteiner", 80, 200)),
			blockOf(span("Enzymer verkar endast vid 37 grader", 80, 230)),
			blockOf(span("Enzymer kan återanvändas", 80, 260)),
			blockOf(span("Totalpoäng: 3", 40, 300)),
		),
		Drawings: []layout.Drawing{
			greenMarker(138, 150),
			greenMarker(198, 210),
			greenMarker(258, 270),
		},
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, exam.TypeMultiChoice, q.Type)
	assert.Equal(t, exam.Exactly(3), q.Expected)
	assert.Len(t, q.CorrectOptions(), 3)
	assert.Equal(t, exam.AnswerList{
		"Enzymer sänker aktiveringsenergin",
		"Enzymer är oftast proteiner",
		"Enzymer kan återanvändas",
	}, q.CorrectAnswer)
}

func TestParseNoQuestionMarkers(t *testing.T) {
	page := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("Kursintroduktion", 40, 50)),
			blockOf(span("Föreläsningsanteckningar om cellbiologi", 40, 80)),
		},
	}

	parsed := parseDoc(t, docOf(page))
	assert.Equal(t, 0, parsed.QuestionCount())
}

func TestDuplicateNumberDoesNotReopen(t *testing.T) {
	page := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("2/10", 40, 90)),
			blockOf(span("3 Beskriv nedbrytningen av glykogen i levern", 40, 100)),
			blockOf(span("LPG123 R7", 40, 95)),
			blockOf(span("3", 40, 300)),
			blockOf(span("Cellens energibehov styr processen.", 60, 320)),
			blockOf(span("150 Stora tal öppnar ingen ny fråga", 40, 350)),
			blockOf(span("Totalpoäng: 1", 40, 400)),
		},
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, 3, q.Number)
	assert.Contains(t, q.Text, "Cellens energibehov styr processen.")
	assert.Contains(t, q.Text, "150 Stora tal öppnar ingen ny fråga")
	assert.Equal(t, 1.0, q.Points)
}

func TestEmptyQuestionDropped(t *testing.T) {
	page := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("17 Kort", 40, 100)),
			blockOf(span("Totalpoäng: 1", 40, 160)),
		},
	}

	parsed := parseDoc(t, docOf(page))
	assert.Equal(t, 0, parsed.QuestionCount())
}

func TestQuestionSpansPages(t *testing.T) {
	page0 := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("7 Beskriv begreppet homeostas", 40, 100)),
			blockOf(span("Totalpoäng: 1", 40, 200)),
		},
	}
	page1 := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("Ge ett konkret exempel.", 60, 50)),
			blockOf(span("8 Hur regleras kroppstemperaturen hos människan", 40, 100)),
		},
	}

	parsed := parseDoc(t, docOf(page0, page1))
	require.Equal(t, 2, parsed.QuestionCount())

	assert.Equal(t, 7, parsed.Questions[0].Number)
	assert.Contains(t, parsed.Questions[0].Text, "Beskriv begreppet homeostas")
	assert.Contains(t, parsed.Questions[0].Text, "Ge ett konkret exempel.")
	assert.Equal(t, 1.0, parsed.Questions[0].Points)

	assert.Equal(t, 8, parsed.Questions[1].Number)
	assert.Equal(t, 1, parsed.Questions[1].PageNum)
}

func TestParseHotspotRegions(t *testing.T) {
	blue := layout.Rect{X0: 100, Y0: 300, X1: 150, Y1: 340}
	page := layout.Page{
		Blocks: append(tocRow("1", "Hotspot", 20),
			blockOf(span("1 Klicka på bilden där processen sker", 40, 100)),
			blockOf(span("Totalpoäng: 1", 40, 400)),
		),
		Drawings: []layout.Drawing{
			{Bounds: &blue, Fill: &layout.Color{R: 0, G: 0.6, B: 0.9}, Items: 1},
		},
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, exam.TypeHotspot, q.Type)
	assert.Equal(t, "(100,300)", q.Answer)
	require.Len(t, q.HotspotRegions, 1)
	assert.Equal(t, exam.HotspotRegion{X: 100, Y: 300, Width: 50, Height: 40}, q.HotspotRegions[0])
}

func TestInlinePointsAndExpectedFromText(t *testing.T) {
	page := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("6 Förklara fotosyntesen", 40, 100)),
			blockOf(span("Ange två exempel. (2p)", 60, 130)),
			blockOf(span("Skriv in ditt svar här", 60, 160)),
		},
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, 2.0, q.Points)
	assert.Equal(t, exam.Exactly(2), q.Expected)
	assert.Equal(t, "Förklara fotosyntesen Ange två exempel.", q.Text)
	assert.Empty(t, q.Answer)
}

func TestParseTrueFalse(t *testing.T) {
	page := layout.Page{
		Blocks: append(tocRow("1", "Sant/Falskt", 20),
			blockOf(span("1 Vatten kokar vid 100 grader vid havsnivå", 40, 100)),
			blockOf(span("Sant", 80, 140)),
			blockOf(span("Falskt", 80, 170)),
			blockOf(span("Totalpoäng: 1", 40, 200)),
		),
		Drawings: []layout.Drawing{greenMarker(138, 150)},
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	assert.Equal(t, exam.TypeTrueFalse, q.Type)
	require.Len(t, q.Options, 2)
	assert.Equal(t, exam.Option{Text: "Sant", IsCorrect: true}, q.Options[0])
	assert.Equal(t, exam.Option{Text: "Falskt", IsCorrect: false}, q.Options[1])
	assert.Equal(t, exam.AnswerList{"Sant"}, q.CorrectAnswer)
}

func TestParseTrueFalseCompoundStatement(t *testing.T) {
	page := layout.Page{
		Blocks: append(tocRow("1", "Sant/Falskt", 20),
			blockOf(span("1 Ta ställning till följande påstående.", 40, 100)),
			blockOf(span("Mitokondrien är cellens kraftverk", 80, 130)),
			blockOf(span("Sant", 80, 160)),
			blockOf(span("Falskt", 80, 190)),
			blockOf(span("Totalpoäng: 1", 40, 220)),
		),
		Drawings: []layout.Drawing{greenMarker(158, 170)},
	}

	parsed := parseDoc(t, docOf(page))
	require.Equal(t, 1, parsed.QuestionCount())

	q := parsed.Questions[0]
	require.Len(t, q.Options, 2)
	assert.Equal(t, exam.Option{Text: "Sant", IsCorrect: true}, q.Options[0])
	assert.Equal(t, exam.Option{Text: "Falskt", IsCorrect: false}, q.Options[1])
	assert.Contains(t, q.Text, "Mitokondrien är cellens kraftverk")
	assert.Equal(t, exam.AnswerList{"Sant"}, q.CorrectAnswer)
}

func TestParseDeterministic(t *testing.T) {
	build := func() layout.Document {
		return docOf(layout.Page{
			Blocks: append(tocRow("1", "Flervalsfråga", 20),
				blockOf(span("1 Vilken gas dominerar i jordens atmosfär?", 40, 100)),
				blockOf(span("Syre", 80, 140)),
				blockOf(span("Kväve", 80, 170)),
				blockOf(span("Totalpoäng: 1", 40, 230)),
			),
			Drawings: []layout.Drawing{greenMarker(168, 180)},
		})
	}

	first := parseDoc(t, build())
	second := parseDoc(t, build())
	assert.Equal(t, first, second)
}
