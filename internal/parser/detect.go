package parser

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jdahlin/disa-parser/internal/layout"
)

// disaMarkers are text fragments specific to exported exam documents.
// Two or more on the opening pages identify an exam.
var disaMarkers = []string{
	"Digital tentamen",
	"LPG",
	"Totalpoäng:",
	"Skriv in ditt svar",
	"Flervalsfråga",
	"Flersvarsfråga",
	"Sant/Falskt",
	"Essäfråga",
}

// mergedIndicators are filename fragments of collection files that bundle
// several exams into one document.
var mergedIndicators = []string{
	"tentor_med_svar",
	"samling",
}

// fileBlacklist names known collection files that duplicate content
// available as individual exams.
var fileBlacklist = map[string]bool{
	"YZf9yLAXGlkpSbQ9GKlt_Tentor_med_svar.pdf": true,
	"7I3UGkJgSQcYE18EYYMR_Tentor_med_svar.pdf": true,
	"LCjrBjJiquEd9Vv2c24A_Tentor_med_svar.pdf": true,
	"tUEMcmS1CrYLJ1LWhpqG_Tentor_med_svar_.pdf": true,
}

const (
	detectPageWindow   = 3
	detectMinMarkers   = 2
	mergedTOCWindow    = 10
	mergedTOCThreshold = 3
	mergedPageCount    = 150
)

// IsExam reports whether the document carries enough exam-specific
// markers on its opening pages to be treated as an exam export.
func IsExam(doc layout.Document) bool {
	if doc == nil || doc.PageCount() < 1 {
		return false
	}

	var sb strings.Builder
	for i := 0; i < minInt(detectPageWindow, doc.PageCount()); i++ {
		sb.WriteString(doc.Page(i).Text())
		sb.WriteString("\n")
	}
	text := sb.String()

	found := 0
	for _, marker := range disaMarkers {
		if strings.Contains(text, marker) {
			found++
		}
	}
	return found >= detectMinMarkers
}

// IsExamFile opens the file and applies IsExam. Unreadable files are not
// exams.
func IsExamFile(path string) bool {
	doc, err := layout.OpenPDF(path)
	if err != nil {
		return false
	}
	defer doc.Close()
	return IsExam(doc)
}

// IsMergedExam reports whether the file is a multi-exam collection:
// a collection filename, repeated table-of-contents headers on the
// opening pages, or a page count far beyond a single exam.
func IsMergedExam(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, indicator := range mergedIndicators {
		if strings.Contains(name, indicator) {
			return true
		}
	}

	// A fast structural check before any text extraction.
	if count, err := api.PageCountFile(path); err == nil && count > mergedPageCount {
		return true
	}

	doc, err := layout.OpenPDF(path)
	if err != nil {
		return false
	}
	defer doc.Close()

	tocPages := 0
	for i := 0; i < minInt(mergedTOCWindow, doc.PageCount()); i++ {
		text := doc.Page(i).Text()
		if strings.Contains(text, "Fråga") && strings.Contains(text, "Typ") &&
			strings.Contains(text, "Poäng") {
			tocPages++
		}
	}
	return tocPages >= mergedTOCThreshold
}

// IsUngradedExam reports whether the filename marks an answer-free
// template ("utan_svar").
func IsUngradedExam(path string) bool {
	return strings.Contains(strings.ToLower(filepath.Base(path)), "utan_svar")
}

// ScanDirectory finds the individual gradable exam PDFs under dir,
// excluding blacklisted, ungraded and merged files and anything that does
// not detect as an exam. The walk error is returned as-is; unreadable
// candidate files are silently skipped.
func ScanDirectory(dir string, recursive bool) ([]string, error) {
	var exams []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		name := filepath.Base(path)
		if fileBlacklist[name] || IsUngradedExam(path) || IsMergedExam(path) {
			return nil
		}
		if IsExamFile(path) {
			exams = append(exams, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exams, nil
}
