package parser

import (
	"strings"

	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
)

// parseMetadata reads exam-level metadata from the first page: course
// code, exam title, and start date. Missing fields stay empty.
func parseMetadata(doc layout.Document) exam.Metadata {
	var md exam.Metadata
	if doc.PageCount() < 1 {
		return md
	}

	text := doc.Page(0).Text()
	if m := courseCodePattern.FindStringSubmatch(text); m != nil {
		md.CourseCode = m[1]
	}
	if m := examTitlePattern.FindStringSubmatch(text); m != nil {
		md.Title = strings.TrimSpace(m[1])
	}
	if m := examDatePattern.FindStringSubmatch(text); m != nil {
		md.Date = m[1]
	}
	return md
}

// detectGraded reports whether the exam carries an answer key: either an
// option somewhere is marked correct, or some page has a green marker
// region.
func detectGraded(doc layout.Document, questions []exam.Question) bool {
	for i := range questions {
		for _, o := range questions[i].Options {
			if o.IsCorrect {
				return true
			}
		}
	}
	for pageNum := 0; pageNum < doc.PageCount(); pageNum++ {
		if len(classifyRegions(doc.Page(pageNum)).greenSpans) > 0 {
			return true
		}
	}
	return false
}
