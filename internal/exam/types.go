// Package exam defines the parsed exam data model: questions, answer
// options, dropdown choices, hotspot regions and exam-level metadata. The
// types here are the output graph of the parser and the input of the
// exporters; they carry no parsing state.
package exam

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Question type labels as they appear in the exam platform's table of
// contents. The vocabulary is closed; anything else resolves to
// TypeUnknown.
const (
	TypeSingleChoice  = "Flervalsfråga"
	TypeMultiChoice   = "Flersvarsfråga"
	TypeTrueFalse     = "Sant/Falskt"
	TypeEssay         = "Essäfråga"
	TypeEssayShort    = "Essä"
	TypeShortAnswer   = "Kortsvarsfråga"
	TypeMatching      = "Matchning"
	TypeHotspot       = "Hotspot"
	TypeDragDrop      = "Dra och släpp"
	TypeDragDropText  = "Dra och släpp i text"
	TypeDragDropImage = "Dra och släpp i bild"
	TypeDropdown      = "Textalternativ"
	TypeTextArea      = "Textområde"
	TypeTextField     = "Textfält"
	TypeTextInImage   = "Textfält i bild"
	TypeNumberField   = "Sifferfält"
	TypeCompound      = "Sammansatt"
	TypeUnknown       = "Okänd"
)

// QuestionTypes lists every type label the table-of-contents resolver
// recognizes.
var QuestionTypes = []string{
	TypeEssayShort,
	TypeEssay,
	TypeMultiChoice,
	TypeSingleChoice,
	TypeTrueFalse,
	TypeMatching,
	TypeTextArea,
	TypeShortAnswer,
	TypeHotspot,
	TypeDragDropText,
	TypeDragDrop,
	TypeDragDropImage,
	"Dra och släpp text",
	TypeDropdown,
	TypeCompound,
	TypeTextField,
	TypeTextInImage,
	TypeNumberField,
}

// TypeCodes maps the platform's type labels to the short codes used in
// export filenames.
var TypeCodes = map[string]string{
	TypeSingleChoice:     "mc1",
	TypeMultiChoice:      "mcn",
	TypeTrueFalse:        "tf",
	TypeEssay:            "ess",
	TypeEssayShort:       "ess",
	TypeShortAnswer:      "short",
	TypeMatching:         "match",
	TypeHotspot:          "hot",
	TypeDragDropText:     "drag",
	TypeDragDrop:         "drag",
	TypeDragDropImage:    "drag",
	"Dra och släpp text": "drag",
	TypeDropdown:         "drop",
	TypeTextArea:         "txt",
	TypeTextField:        "txt",
	TypeTextInImage:      "txt",
	TypeNumberField:      "txt",
	TypeCompound:         "ess",
	TypeUnknown:          "unk",
}

// TypeCode returns the short code for a type label, "unk" when the label
// is not in the vocabulary.
func TypeCode(label string) string {
	if code, ok := TypeCodes[label]; ok {
		return code
	}
	return "unk"
}

// CourseCodes maps known course directory names to the short codes used
// in exam identifiers.
var CourseCodes = map[string]string{
	"anatomi_och_histologi_1":                              "ah1",
	"anatomi_och_histologi_2":                              "ah2",
	"biokemi":                                              "bio",
	"fysiologi":                                            "fys",
	"genetik,_patologi,_pu,_farmakologi_och_konsultation":  "gen",
	"infektion,_immunologi,_reumatologi_mfl":               "inf",
	"klinisk_anatomi,_radiologi_och_konsultation":          "kli",
	"molekylär_cellbiologi_och_utvecklingsbiologi":         "mcb",
}

// CourseCode returns the short code for a course name, falling back to
// the first three characters of the name itself.
func CourseCode(course string) string {
	if code, ok := CourseCodes[course]; ok {
		return code
	}
	if r := []rune(course); len(r) > 3 {
		return string(r[:3])
	}
	return course
}

// ExpectedCount is the number of answers a question calls for: either an
// exact count or an open lower bound ("N or more"). The zero value is not
// valid; use One for the default.
type ExpectedCount struct {
	N    int
	Open bool
}

// One is the default expected-answer count.
var One = ExpectedCount{N: 1}

// Exactly returns an exact expected-answer count.
func Exactly(n int) ExpectedCount {
	return ExpectedCount{N: n}
}

// AtLeast returns an open lower-bound count, rendered as "N+".
func AtLeast(n int) ExpectedCount {
	return ExpectedCount{N: n, Open: true}
}

// String renders the count as an integer or as "N+".
func (c ExpectedCount) String() string {
	if c.Open {
		return fmt.Sprintf("%d+", c.N)
	}
	return strconv.Itoa(c.N)
}

// MarshalYAML renders exact counts as integers and open counts as "N+",
// matching the exported exam format.
func (c ExpectedCount) MarshalYAML() (interface{}, error) {
	if c.Open {
		return c.String(), nil
	}
	return c.N, nil
}

// MarshalJSON implements json.Marshaler with the same shape as YAML.
func (c ExpectedCount) MarshalJSON() ([]byte, error) {
	if c.Open {
		return []byte(strconv.Quote(c.String())), nil
	}
	return []byte(strconv.Itoa(c.N)), nil
}

// AnswerList holds the correct answers derived from marked options. In
// the JSON exam dump a single answer renders as a bare string and
// several as a list; YAML always renders a sequence.
type AnswerList []string

// MarshalJSON implements json.Marshaler.
func (a AnswerList) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Option is a single answer option of a multiple-choice style question.
type Option struct {
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
}

// HotspotRegion is a rectangular answer area on an image, marked in the
// source document by a blue overlay shape.
type HotspotRegion struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"w" yaml:"w"`
	Height int `json:"h" yaml:"h"`
}

// Contains reports whether the point (px, py) lies within the region.
func (r HotspotRegion) Contains(px, py int) bool {
	return r.X <= px && px <= r.X+r.Width && r.Y <= py && py <= r.Y+r.Height
}

// DropdownChoice is one fill-in-the-blank placeholder of a dropdown
// question: the value the answer key selected plus the disclosed
// alternatives.
type DropdownChoice struct {
	Answer  string   `json:"answer" yaml:"answer"`
	Options []string `json:"options" yaml:"options"`
}

// ImageRef points at an image asset extracted from the document and
// associated with a question.
type ImageRef struct {
	Path   string `json:"path" yaml:"path"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Format string `json:"type" yaml:"type"`
	// IsPaper marks a full-page blank drawing area rather than question
	// artwork.
	IsPaper bool `json:"is_paper,omitempty" yaml:"is_paper,omitempty"`
}

// Question is one parsed exam question. Instances are mutated only during
// finalization inside the parser; afterwards they are owned by the
// enclosing ParsedExam and treated as immutable.
type Question struct {
	Number   int     `json:"number" yaml:"number"`
	Text     string  `json:"text" yaml:"text"`
	Type     string  `json:"type" yaml:"type"`
	Points   float64 `json:"points" yaml:"points"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`

	Options       []Option      `json:"options,omitempty" yaml:"options,omitempty"`
	Answer        string        `json:"answer,omitempty" yaml:"answer,omitempty"`
	CorrectAnswer AnswerList    `json:"correct_answer,omitempty" yaml:"correct_answer,omitempty"`
	Expected      ExpectedCount `json:"expected_answers" yaml:"expected_answers"`

	// Position of the question's first block, used downstream for image
	// association. PageNum is -1 when unknown.
	PageNum   int     `json:"page_num" yaml:"page_num"`
	YPosition float64 `json:"y_position" yaml:"y_position"`

	Images         []ImageRef                `json:"images,omitempty" yaml:"images,omitempty"`
	HotspotRegions []HotspotRegion           `json:"hotspot_regions,omitempty" yaml:"hotspot_regions,omitempty"`
	Choices        map[string]DropdownChoice `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// HasAnswer reports whether the question carries any answer data: free
// text, dropdown choices, a derived correct answer, or a marked option.
func (q *Question) HasAnswer() bool {
	if len(q.Choices) > 0 {
		return true
	}
	if strings.TrimSpace(q.Answer) != "" {
		return true
	}
	if len(q.CorrectAnswer) > 0 {
		return true
	}
	for _, o := range q.Options {
		if o.IsCorrect {
			return true
		}
	}
	return false
}

// HasImages reports whether any image assets were associated with the
// question.
func (q *Question) HasImages() bool {
	return len(q.Images) > 0
}

// CorrectOptions returns the options marked correct, in option order.
func (q *Question) CorrectOptions() []Option {
	var correct []Option
	for _, o := range q.Options {
		if o.IsCorrect {
			correct = append(correct, o)
		}
	}
	return correct
}

// Metadata holds exam-level fields read from the first page.
type Metadata struct {
	CourseCode string `json:"course_code" yaml:"course_code"`
	Title      string `json:"exam_title" yaml:"exam_title"`
	Date       string `json:"date" yaml:"date"`
	IsGraded   bool   `json:"is_graded" yaml:"is_graded"`
}

// ParsedExam is the root of the output graph. It owns its questions.
type ParsedExam struct {
	Filename  string     `json:"filename" yaml:"filename"`
	Course    string     `json:"course" yaml:"course"`
	Metadata  Metadata   `json:"metadata" yaml:"metadata"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// QuestionCount returns the number of parsed questions.
func (e *ParsedExam) QuestionCount() int {
	return len(e.Questions)
}

// AnsweredCount returns how many questions carry answer data.
func (e *ParsedExam) AnsweredCount() int {
	n := 0
	for i := range e.Questions {
		if e.Questions[i].HasAnswer() {
			n++
		}
	}
	return n
}
