package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdahlin/disa-parser/internal/layout"
)

func TestIsExam(t *testing.T) {
	examPage := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("LPG100 Digital tentamen", 40, 40)),
			blockOf(span("1 Vad är ATP? Totalpoäng: 1", 40, 100)),
		},
	}
	coverOnly := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("Föreläsningsanteckningar", 40, 40)),
			blockOf(span("Digital tentamen i biokemi", 40, 60)),
		},
	}

	// Three markers on the first page: "Digital tentamen", "LPG" and
	// "Totalpoäng:".
	assert.True(t, IsExam(docOf(examPage)))
	// Only one marker is not enough.
	assert.False(t, IsExam(docOf(coverOnly)))
	assert.False(t, IsExam(nil))
}

func TestIsExamScansOpeningPagesOnly(t *testing.T) {
	empty := layout.Page{}
	markers := layout.Page{
		Blocks: []layout.Block{
			blockOf(span("Totalpoäng: 1", 40, 40)),
			blockOf(span("Flervalsfråga", 40, 60)),
		},
	}

	// Markers on page 2 are inside the detection window.
	assert.True(t, IsExam(docOf(empty, empty, markers)))
	// Markers on page 3 are not.
	assert.False(t, IsExam(docOf(empty, empty, empty, markers)))
}

func TestIsUngradedExam(t *testing.T) {
	assert.True(t, IsUngradedExam("/exams/biokemi_utan_svar.pdf"))
	assert.True(t, IsUngradedExam("Tenta_UTAN_SVAR.pdf"))
	assert.False(t, IsUngradedExam("/exams/biokemi_med_svar.pdf"))
}

func TestScanDirectorySkipsNonExams(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("anteckningar"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tenta_utan_svar.pdf"), []byte("not a pdf"), 0o644))

	exams, err := ScanDirectory(dir, true)
	require.NoError(t, err)
	assert.Empty(t, exams)
}

func TestScanDirectoryNonRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "broken.pdf"), []byte("not a pdf"), 0o644))

	exams, err := ScanDirectory(dir, false)
	require.NoError(t, err)
	assert.Empty(t, exams)
}

func TestScanDirectoryMissing(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "absent"), true)
	assert.Error(t, err)
}
