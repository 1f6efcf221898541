package layout

import (
	"fmt"
	"os"
	"sort"

	"github.com/ledongthuc/pdf"
)

// a4Height is the fallback page height when a page reports no media box.
const a4Height = 842.0

// lineYTolerance groups text fragments onto one line when their baselines
// differ by less than this many layout units.
const lineYTolerance = 2.0

// PDFSource is a Document backed by a real PDF file. It supplies
// positioned text spans with font names; the underlying library exposes no
// vector drawing paths, so Drawings is always empty and drawing-derived
// signals (correctness markers, hotspots, dropdown borders) degrade to
// absent for real-PDF input.
type PDFSource struct {
	file   *os.File
	reader *pdf.Reader
	path   string
}

// OpenPDF opens a PDF file as a layout Document.
func OpenPDF(path string) (*PDFSource, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	return &PDFSource{file: f, reader: reader, path: path}, nil
}

// Path returns the path of the underlying PDF file.
func (s *PDFSource) Path() string {
	return s.path
}

// PageCount reports the number of pages in the PDF.
func (s *PDFSource) PageCount() int {
	return s.reader.NumPage()
}

// Page extracts the text layout of page index i (zero-based). Fragments
// sharing a baseline are grouped into one line, and each line becomes its
// own block, sorted into reading order. Coordinates are converted from the
// PDF's bottom-left origin to the top-left origin the parser expects.
func (s *PDFSource) Page(i int) (result Page) {
	// Malformed content streams panic inside the library; a broken page
	// degrades to an empty one.
	defer func() {
		if r := recover(); r != nil {
			result = Page{}
		}
	}()

	if i < 0 || i >= s.reader.NumPage() {
		return Page{}
	}

	// ledongthuc pages are one-based.
	page := s.reader.Page(i + 1)
	if page.V.IsNull() {
		return Page{}
	}

	height := pageHeight(page)
	content := page.Content()

	spans := make([]Span, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		if size == 0 {
			size = 12.0
		}
		top := height - t.Y - size
		spans = append(spans, Span{
			Text: t.S,
			BBox: Rect{X0: t.X, Y0: top, X1: t.X + t.W, Y1: top + size},
			Font: t.Font,
		})
	}

	sort.SliceStable(spans, func(a, b int) bool {
		if spans[a].BBox.Y0 != spans[b].BBox.Y0 {
			return spans[a].BBox.Y0 < spans[b].BBox.Y0
		}
		return spans[a].BBox.X0 < spans[b].BBox.X0
	})

	return Page{Blocks: groupIntoBlocks(spans)}
}

// Close closes the underlying file.
func (s *PDFSource) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

func pageHeight(page pdf.Page) float64 {
	mediaBox := page.V.Key("MediaBox")
	if mediaBox.Kind() == pdf.Array && mediaBox.Len() >= 4 {
		if h := mediaBox.Index(3).Float64(); h > 0 {
			return h
		}
	}
	return a4Height
}

// groupIntoBlocks merges baseline-aligned spans into lines and wraps each
// line in its own block. Real block grouping needs the renderer's layout
// tree, which plain PDF text extraction does not expose.
func groupIntoBlocks(spans []Span) []Block {
	var blocks []Block
	var current []Span

	flush := func() {
		if len(current) == 0 {
			return
		}
		bbox := current[0].BBox
		for _, sp := range current[1:] {
			if sp.BBox.X0 < bbox.X0 {
				bbox.X0 = sp.BBox.X0
			}
			if sp.BBox.X1 > bbox.X1 {
				bbox.X1 = sp.BBox.X1
			}
			if sp.BBox.Y0 < bbox.Y0 {
				bbox.Y0 = sp.BBox.Y0
			}
			if sp.BBox.Y1 > bbox.Y1 {
				bbox.Y1 = sp.BBox.Y1
			}
		}
		blocks = append(blocks, Block{BBox: bbox, Lines: []Line{{Spans: current}}})
		current = nil
	}

	for _, sp := range spans {
		if len(current) > 0 {
			prev := current[len(current)-1]
			if sp.BBox.Y0-prev.BBox.Y0 > lineYTolerance {
				flush()
			}
		}
		current = append(current, sp)
	}
	flush()

	return blocks
}
