// Package export writes parsed exams to disk: one YAML file per answered
// question, plus an optional whole-exam JSON dump.
package export

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/jdahlin/disa-parser/internal/exam"
)

var examDatePattern = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)

// ExamID builds a stable identifier for an exam: course code, year-month
// from the exam date, and a short hash of the source filename.
func ExamID(ex *exam.ParsedExam) string {
	yymm := "0000"
	if m := examDatePattern.FindStringSubmatch(ex.Metadata.Date); m != nil {
		yymm = m[3][2:] + m[2]
	}
	hash := fmt.Sprintf("%x", md5.Sum([]byte(ex.Filename)))[:4]
	return fmt.Sprintf("%s_%s_%s", exam.CourseCode(ex.Course), yymm, hash)
}

// questionFile is the per-question YAML document. Field order matters for
// review diffs, so the layout is fixed here rather than derived from the
// exam types.
type questionFile struct {
	Exam examHeader   `yaml:"exam"`
	Q    questionBody `yaml:"q"`
}

type examHeader struct {
	ID     string `yaml:"id"`
	Course string `yaml:"course"`
	Date   string `yaml:"date"`
	File   string `yaml:"file"`
}

type questionBody struct {
	Num      int         `yaml:"num"`
	Type     string      `yaml:"type"`
	TypeFull string      `yaml:"type_full"`
	Pts      float64     `yaml:"pts"`
	Text     string      `yaml:"text"`
	Cat      string      `yaml:"cat,omitempty"`
	Opts     []string    `yaml:"opts,omitempty"`
	Correct  interface{} `yaml:"correct,omitempty"`
	Answer   string      `yaml:"answer,omitempty"`
	Expected interface{} `yaml:"expected,omitempty"`
	Choices  interface{} `yaml:"choices,omitempty"`
	Images   []imageRef  `yaml:"images,omitempty"`
}

type imageRef struct {
	File    string `yaml:"file"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	IsPaper bool   `yaml:"is_paper,omitempty"`
}

// WriteQuestions writes one YAML file per answered question into dir,
// named <examID>_qNN_<typecode>.yaml. Questions without answer data are
// skipped. Returns the number of files written.
func WriteQuestions(ex *exam.ParsedExam, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	id := ExamID(ex)
	written := 0
	for i := range ex.Questions {
		q := &ex.Questions[i]
		if !q.HasAnswer() {
			continue
		}

		code := exam.TypeCode(q.Type)
		doc := questionFile{
			Exam: examHeader{
				ID:     id,
				Course: exam.CourseCode(ex.Course),
				Date:   ex.Metadata.Date,
				File:   ex.Filename,
			},
			Q: questionBody{
				Num:      q.Number,
				Type:     code,
				TypeFull: q.Type,
				Pts:      q.Points,
				Text:     q.Text,
				Cat:      q.Category,
				Answer:   q.Answer,
			},
		}

		if len(q.Options) > 0 {
			opts := make([]string, len(q.Options))
			var correct []int
			for j, o := range q.Options {
				opts[j] = o.Text
				if o.IsCorrect {
					correct = append(correct, j)
				}
			}
			doc.Q.Opts = opts
			if code == "mc1" && len(correct) > 0 {
				doc.Q.Correct = correct[0]
			} else if len(correct) > 0 {
				doc.Q.Correct = correct
			}
		}
		if q.Expected != exam.One {
			doc.Q.Expected = q.Expected
		}
		if len(q.Choices) > 0 {
			doc.Q.Choices = q.Choices
		}
		for _, img := range q.Images {
			doc.Q.Images = append(doc.Q.Images, imageRef{
				File:    filepath.Join("images", img.Path),
				Width:   img.Width,
				Height:  img.Height,
				IsPaper: img.IsPaper,
			})
		}

		name := fmt.Sprintf("%s_q%02d_%s.yaml", id, q.Number, code)
		data, err := yaml.Marshal(&doc)
		if err != nil {
			return written, fmt.Errorf("marshal question %d: %w", q.Number, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return written, fmt.Errorf("write question %d: %w", q.Number, err)
		}
		written++
	}
	return written, nil
}

// WriteExamJSON dumps the whole parsed exam to a single JSON file.
func WriteExamJSON(ex *exam.ParsedExam, path string) error {
	data, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
