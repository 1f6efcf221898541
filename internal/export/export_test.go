package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jdahlin/disa-parser/internal/exam"
)

func sampleExam() *exam.ParsedExam {
	return &exam.ParsedExam{
		Filename: "FxJk2mNp_Tenta_med_svar.pdf",
		Course:   "biokemi",
		Metadata: exam.Metadata{
			CourseCode: "BIO123",
			Date:       "15.03.2024",
			IsGraded:   true,
		},
		Questions: []exam.Question{
			{
				Number: 1,
				Type:   exam.TypeSingleChoice,
				Points: 1,
				Text:   "Vilken gas dominerar i jordens atmosfär?",
				Options: []exam.Option{
					{Text: "Syre"},
					{Text: "Kväve", IsCorrect: true},
				},
				CorrectAnswer: exam.AnswerList{"Kväve"},
				Expected:      exam.One,
			},
			{
				Number:   2,
				Type:     exam.TypeEssay,
				Points:   2,
				Text:     "Beskriv glykolysens huvudsteg",
				Expected: exam.One,
				// No answer data: must be skipped by the exporter.
			},
			{
				Number:   3,
				Type:     exam.TypeMultiChoice,
				Points:   3,
				Text:     "Markera tre korrekta påståenden",
				Expected: exam.Exactly(3),
				Options: []exam.Option{
					{Text: "A", IsCorrect: true},
					{Text: "B"},
					{Text: "C", IsCorrect: true},
					{Text: "D", IsCorrect: true},
				},
				CorrectAnswer: exam.AnswerList{"A", "C", "D"},
			},
		},
	}
}

func TestExamID(t *testing.T) {
	id := ExamID(sampleExam())
	assert.Regexp(t, `^bio_2403_[0-9a-f]{4}$`, id)

	// The identifier is stable for the same input.
	assert.Equal(t, id, ExamID(sampleExam()))
}

func TestExamIDWithoutDate(t *testing.T) {
	ex := sampleExam()
	ex.Metadata.Date = ""
	assert.Regexp(t, `^bio_0000_[0-9a-f]{4}$`, ExamID(ex))
}

func TestWriteQuestions(t *testing.T) {
	dir := t.TempDir()
	ex := sampleExam()

	written, err := WriteQuestions(ex, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, written, "the unanswered question is skipped")

	id := ExamID(ex)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id+"_q01_mc1.yaml", entries[0].Name())
	assert.Equal(t, id+"_q03_mcn.yaml", entries[1].Name())

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var doc struct {
		Exam struct {
			ID     string `yaml:"id"`
			Course string `yaml:"course"`
			Date   string `yaml:"date"`
			File   string `yaml:"file"`
		} `yaml:"exam"`
		Q struct {
			Num      int         `yaml:"num"`
			Type     string      `yaml:"type"`
			TypeFull string      `yaml:"type_full"`
			Pts      float64     `yaml:"pts"`
			Text     string      `yaml:"text"`
			Opts     []string    `yaml:"opts"`
			Correct  interface{} `yaml:"correct"`
			Expected interface{} `yaml:"expected"`
		} `yaml:"q"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))

	assert.Equal(t, id, doc.Exam.ID)
	assert.Equal(t, "bio", doc.Exam.Course)
	assert.Equal(t, "15.03.2024", doc.Exam.Date)
	assert.Equal(t, "FxJk2mNp_Tenta_med_svar.pdf", doc.Exam.File)

	assert.Equal(t, 1, doc.Q.Num)
	assert.Equal(t, "mc1", doc.Q.Type)
	assert.Equal(t, exam.TypeSingleChoice, doc.Q.TypeFull)
	assert.Equal(t, []string{"Syre", "Kväve"}, doc.Q.Opts)
	// Single-select exports the correct option as one index.
	assert.Equal(t, 1, doc.Q.Correct)
	// The default expected count is omitted.
	assert.Nil(t, doc.Q.Expected)
}

func TestWriteQuestionsMultiSelect(t *testing.T) {
	dir := t.TempDir()
	ex := sampleExam()

	_, err := WriteQuestions(ex, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ExamID(ex)+"_q03_mcn.yaml"))
	require.NoError(t, err)

	var doc struct {
		Q struct {
			Correct  []int       `yaml:"correct"`
			Expected interface{} `yaml:"expected"`
		} `yaml:"q"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, []int{0, 2, 3}, doc.Q.Correct)
	assert.Equal(t, 3, doc.Q.Expected)
}

func TestWriteExamJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exam.json")
	ex := sampleExam()

	require.NoError(t, WriteExamJSON(ex, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var round map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &round))
	assert.Equal(t, ex.Filename, round["filename"])

	questions, ok := round["questions"].([]interface{})
	require.True(t, ok)
	require.Len(t, questions, 3)

	// Single-select dumps a bare string, multi-select a list.
	q1 := questions[0].(map[string]interface{})
	assert.Equal(t, "Kväve", q1["correct_answer"])
	q3 := questions[2].(map[string]interface{})
	assert.Equal(t, []interface{}{"A", "C", "D"}, q3["correct_answer"])
}
