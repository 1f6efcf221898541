// Package parser implements the layout-driven extraction engine that
// turns a sequence of per-page layout primitives into a typed sequence of
// exam question records. The entry point is New followed by Parse; the
// detection predicates in detect.go classify documents before parsing.
package parser

import "regexp"

// FormatProfile carries the column-position thresholds of one known exam
// rendering. A block left of QuestionNumberX sits in the question-number
// column; a block at or right of OptionX sits in the option column.
// Supporting a new vendor layout means adding a profile, not code.
type FormatProfile struct {
	Name            string
	QuestionNumberX float64
	OptionX         float64
}

// formatProfiles is the closed set of known layout profiles, selected by
// banner markers on the first page. "other" is the fallback and always
// matches.
var formatProfiles = map[string]FormatProfile{
	"TENTAMEN":    {Name: "TENTAMEN", QuestionNumberX: 45, OptionX: 70},
	"LPG-digital": {Name: "LPG-digital", QuestionNumberX: 42, OptionX: 62},
	"other":       {Name: "other", QuestionNumberX: 45, OptionX: 70},
}

// colorBounds is an RGB box in [0,1] component space. A channel bound of
// the form min<=c<=max; Matches applies all six comparisons.
type colorBounds struct {
	rMin, rMax float64
	gMin, gMax float64
	bMin, bMax float64
}

func (b colorBounds) matches(r, g, bl float64) bool {
	return r >= b.rMin && r <= b.rMax &&
		g >= b.gMin && g <= b.gMax &&
		bl >= b.bMin && bl <= b.bMax
}

var (
	// greenFillBounds matches the correctness marker fill: low red,
	// mid-high green, low blue.
	greenFillBounds = colorBounds{rMin: 0, rMax: 0.3, gMin: 0.4, gMax: 1, bMin: 0, bMax: 0.2}
	// blueFillBounds matches hotspot overlays: low red, mid-high green,
	// high blue.
	blueFillBounds = colorBounds{rMin: 0, rMax: 0.2, gMin: 0.5, gMax: 1, bMin: 0.8, bMax: 1}
)

const (
	// grayBorderValue and grayBorderTolerance identify the dropdown
	// widget border color.
	grayBorderValue     = 0.8
	grayBorderTolerance = 0.1
	// dropdownMinItems separates rounded widget borders from incidental
	// gray rules: rounded corners need many curve primitives.
	dropdownMinItems = 15
	// dropdownSectionGap groups dropdown boxes into one templated line
	// when vertically closer than this.
	dropdownSectionGap = 80.0

	// greenMarkerYTolerance is the vertical distance within which a text
	// block picks up a green marker's correctness signal.
	greenMarkerYTolerance = 20.0
	// checkmarkMinSide/MaxSide bound the small point-like checkmark
	// boxes used for image-based options.
	checkmarkMinSide = 5.0
	checkmarkMaxSide = 30.0
	// hotspotMinSide/MaxSide exclude degenerate and page-sized blues.
	hotspotMinSide = 5.0
	hotspotMaxSide = 400.0

	// answerFontFamily marks free-text answers in graded exams.
	answerFontFamily = "Georgia"
	// greenTextColor is the packed RGB of correct-answer text.
	greenTextColor uint32 = 0x008000

	// tocPageWindow is the early-page range scanned for the
	// number-to-type table.
	tocPageWindow = 6
	// tocFallbackThreshold switches to the line-order fallback when
	// column matching resolved fewer entries than this.
	tocFallbackThreshold = 10

	// maxQuestionNumber bounds valid question numbers in the body.
	maxQuestionNumber = 100
	// maxTOCNumber bounds candidate numbers in the TOC window.
	maxTOCNumber = 200
)

// correctGlyphs and incorrectGlyphs are the checkbox glyphs the platform
// renders next to options.
var (
	correctGlyphs   = []string{"✓", "✔", "●"}
	incorrectGlyphs = []string{"✗", "✘", "○"}
)

// Compiled patterns shared across the engine.
var (
	questionStartPattern  = regexp.MustCompile(`^(\d{1,3})(?:\s+(.*))?$`)
	mergedNumberPattern   = regexp.MustCompile(`^(\d{1,3})([A-Za-z].*)$`)
	tocNumberPattern      = regexp.MustCompile(`^\d{1,3}$`)
	// RE2's \w is ASCII-only; question bodies open with å/ä/ö words too.
	questionBodyLine      = regexp.MustCompile(`(?m)^\d{1,3}\s+[\p{L}\d_]`)
	pointsTotalPattern    = regexp.MustCompile(`Totalpoäng:\s*(\d+(?:[.,]\d+)?)`)
	inlineParenPoints     = regexp.MustCompile(`\((\d+(?:[.,]\d+)?)\s*p\)`)
	inlineTrailingPoints  = regexp.MustCompile(`\s(\d+(?:[.,]\d+)?)\s*p\b`)
	pageNumberFooter      = regexp.MustCompile(`^\d+/\d+$`)
	lpgHeaderPattern      = regexp.MustCompile(`^LPG\d+`)
	pureNumericPattern    = regexp.MustCompile(`^[\d\s]+$`)
	courseCodePattern     = regexp.MustCompile(`Kurskod\s+([A-Z]{2,5}\d{3})`)
	examTitlePattern      = regexp.MustCompile(`TENTAMEN\s*\n\s*(.+?)(?:\n|$)`)
	examDatePattern       = regexp.MustCompile(`Starttid\s+(\d{2}\.\d{2}\.\d{4})`)
	categoryCodePattern   = regexp.MustCompile(`^([A-Z]{2,4})\s*(\d*)(?:\s|$)`)
	categoryPhrasePattern = regexp.MustCompile(`^([A-Za-zÅÄÖåäö\s,]{2,25}?)\s+\d+$`)
	singleLetterOption    = regexp.MustCompile(`^[A-E1-9]$`)
	ionTokenPattern       = regexp.MustCompile(`^[A-Za-z]{1,2}\d*[+-]$`)
	bulletPrefixPattern   = regexp.MustCompile(`^[○●◯◉]\s*`)
	letterParenPrefix     = regexp.MustCompile(`^[a-zA-Z]\)\s*`)
	letterDotPrefix       = regexp.MustCompile(`^[a-zA-Z]\.\s*`)
	orphanParenPrefix     = regexp.MustCompile(`^\)\s*`)
	whitespaceRun         = regexp.MustCompile(`\s+`)
)

// questionMarkers indicate a page that carries actual question content
// rather than cover or summary material.
var questionMarkers = []string{
	"Skriv in ditt svar",
	"Totalpoäng:",
	"Bifoga ritning",
	"Välj ett alternativ",
	"Välj ett eller flera",
}

// interrogativeStems are word stems a category code never starts with.
var interrogativeStems = []string{
	"Vilket",
	"Vilka",
	"Vad",
	"Hur",
	"Varför",
	"När",
	"Var",
	"Beskriv",
	"Förklara",
}

// optionSkipPrefixes disqualify a block from option parsing: these open
// instructions or question stems, not options.
var optionSkipPrefixes = []string{
	"Välj ett",
	"Välj två",
	"Välj det",
	"Markera",
	"Skriv in ditt svar",
	"Skriv ditt svar",
	"Besvara följande",
	"Svara på",
	"Beskriv",
	"Namnge",
	"Förklara",
	"Redogör",
}

// interrogativeOptionStarts disqualify long question-like text from
// option parsing.
var interrogativeOptionStarts = []string{
	"Vilken ",
	"Vilka ",
	"Vad ",
	"Hur ",
	"Varför ",
	"När är",
	"Var ",
	"Vilket ",
}

// answerMarkers split accumulated body text into question and answer.
var answerMarkers = []string{
	"Skriv in ditt svar här",
	"Skriv ditt svar här",
	"( )Skriv in ditt svar",
}

// swedishNumbers maps number words as they appear in expected-answer
// phrasing.
var swedishNumbers = map[string]int{
	"en":   1,
	"ett":  1,
	"två":  2,
	"tre":  3,
	"fyra": 4,
	"fem":  5,
	"sex":  6,
	"sju":  7,
	"åtta": 8,
	"nio":  9,
	"tio":  10,
}

// expectedAnswersPattern recognizes explicit answer-count cues: "Välj
// två", "Markera 3", "Ange två svar", "Vilka tre påståenden", "två
// korrekta", "3 alternativ" and the bare plural "Vilka påståenden".
// Word boundaries are spelled out because RE2's \b is ASCII-only and
// misfires after å/ä/ö.
var expectedAnswersPattern = regexp.MustCompile(
	`(?i)(?:välj|markera|ange|vilka)\s+(en|ett|två|tre|fyra|fem|sex|sju|åtta|nio|tio|\d+)(?:[\s.,:;!?)]|$)` +
		`|(?:^|\s)(en|ett|två|tre|fyra|fem|sex|sju|åtta|nio|tio|\d+)\s+(?:korrekta|alternativ|svar|påståenden)(?:[\s.,:;!?)]|$)` +
		`|vilka\s+(påståenden)`,
)

// multipleAnswersPattern recognizes "choose one or more" phrasing.
var multipleAnswersPattern = regexp.MustCompile(`(?i)(?:välj\s+)?ett\s+eller\s+flera`)
