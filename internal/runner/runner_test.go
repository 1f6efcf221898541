package runner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdahlin/disa-parser/internal/layout"
)

func TestDetectCourse(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			"known_course_dir",
			filepath.Join("exams", "biokemi", "Tenta_med_svar.pdf"),
			"biokemi",
		},
		{
			"nested_course_dir",
			filepath.Join("data", "fysiologi", "2024", "tenta.pdf"),
			"fysiologi",
		},
		{
			"unknown_path",
			filepath.Join("downloads", "tenta.pdf"),
			"unknown",
		},
		{
			"course_must_match_component",
			filepath.Join("biokemi_gammal", "tenta.pdf"),
			"unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCourse(tt.path))
		})
	}
}

func TestProcessDirectoryEmpty(t *testing.T) {
	dir := t.TempDir()

	summary, err := ProcessDirectory(context.Background(), dir, Options{OutputDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Scanned)
	assert.Equal(t, 0, summary.Questions)
	assert.Equal(t, 0, summary.Errors)
	assert.Empty(t, summary.Results)
}

func TestProcessDirectoryMissing(t *testing.T) {
	_, err := ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "absent"), Options{})
	assert.Error(t, err)
}

func TestProcessFileUnreadable(t *testing.T) {
	res := ProcessFile(filepath.Join(t.TempDir(), "absent.pdf"), Options{})
	assert.Error(t, res.Err)
	assert.Equal(t, 0, res.Questions)
}

// panickyDocument panics on page access, the way a malformed content
// stream does inside the PDF library.
type panickyDocument struct{}

func (panickyDocument) PageCount() int         { return 1 }
func (panickyDocument) Page(i int) layout.Page { panic("malformed content stream") }
func (panickyDocument) Close() error           { return nil }

func TestProcessDocumentRecoversFromPanic(t *testing.T) {
	res := processDocument(panickyDocument{}, "broken.pdf", Options{OutputDir: t.TempDir()})

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "broken.pdf")
	assert.Equal(t, 0, res.Questions)
}
