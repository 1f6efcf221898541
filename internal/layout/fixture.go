package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// FixtureSource is a Document backed by a JSON dump of per-page text and
// drawing structures. The format mirrors what the exam platform's page
// renderer reports: one entry per captured page with a "text_dict" block
// tree and a "drawings" path list. Pages absent from the dump read as
// empty, which lets fixtures carry only the pages a test cares about.
type FixtureSource struct {
	source    string
	pageCount int
	pages     map[int]Page
}

// fixture file wire format

type fixtureFile struct {
	Source    string                 `json:"source"`
	PageCount int                    `json:"page_count"`
	Pages     map[string]fixturePage `json:"pages"`
}

type fixturePage struct {
	TextDict fixtureTextDict  `json:"text_dict"`
	Drawings []fixtureDrawing `json:"drawings"`
}

type fixtureTextDict struct {
	Blocks []fixtureBlock `json:"blocks"`
}

type fixtureBlock struct {
	Type  int           `json:"type"`
	BBox  []float64     `json:"bbox"`
	Lines []fixtureLine `json:"lines"`
}

type fixtureLine struct {
	Spans []fixtureSpan `json:"spans"`
}

type fixtureSpan struct {
	Text  string    `json:"text"`
	BBox  []float64 `json:"bbox"`
	Font  string    `json:"font"`
	Color uint32    `json:"color"`
}

type fixtureDrawing struct {
	Rect  []float64         `json:"rect"`
	Fill  []float64         `json:"fill"`
	Color []float64         `json:"color"`
	Items []json.RawMessage `json:"items"`
}

// LoadFixture reads a fixture JSON file from disk.
func LoadFixture(path string) (*FixtureSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture JSON data into a FixtureSource.
func ParseFixture(data []byte) (*FixtureSource, error) {
	var file fixtureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}

	src := &FixtureSource{
		source:    file.Source,
		pageCount: file.PageCount,
		pages:     make(map[int]Page, len(file.Pages)),
	}

	for key, fp := range file.Pages {
		num, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid page key %q in fixture: %w", key, err)
		}
		src.pages[num] = convertFixturePage(fp)
		if num >= src.pageCount {
			src.pageCount = num + 1
		}
	}

	return src, nil
}

// NewFixtureSource builds a Document directly from in-memory pages, keyed
// by page index. Used by tests that construct layout scenarios by hand.
func NewFixtureSource(source string, pageCount int, pages map[int]Page) *FixtureSource {
	return &FixtureSource{source: source, pageCount: pageCount, pages: pages}
}

// Source returns the name of the document the fixture was captured from.
func (f *FixtureSource) Source() string {
	return f.source
}

// PageCount reports the page count of the original document, which may
// exceed the number of captured pages.
func (f *FixtureSource) PageCount() int {
	return f.pageCount
}

// Page returns the captured page at index i, or an empty page when the
// fixture does not carry it.
func (f *FixtureSource) Page(i int) Page {
	return f.pages[i]
}

// Close is a no-op for fixture-backed documents.
func (f *FixtureSource) Close() error {
	return nil
}

func convertFixturePage(fp fixturePage) Page {
	page := Page{}

	for _, fb := range fp.TextDict.Blocks {
		// Type 0 is a text block; other types are image blocks, which
		// carry no spans.
		if fb.Type != 0 {
			continue
		}
		block := Block{BBox: rectFromSlice(fb.BBox)}
		for _, fl := range fb.Lines {
			line := Line{}
			for _, fs := range fl.Spans {
				line.Spans = append(line.Spans, Span{
					Text:  fs.Text,
					BBox:  rectFromSlice(fs.BBox),
					Font:  fs.Font,
					Color: fs.Color,
				})
			}
			block.Lines = append(block.Lines, line)
		}
		page.Blocks = append(page.Blocks, block)
	}

	for _, fd := range fp.Drawings {
		drawing := Drawing{Items: len(fd.Items)}
		if len(fd.Rect) >= 4 {
			r := rectFromSlice(fd.Rect)
			drawing.Bounds = &r
		}
		if c, ok := colorFromSlice(fd.Fill); ok {
			drawing.Fill = &c
		}
		if c, ok := colorFromSlice(fd.Color); ok {
			drawing.Stroke = &c
		}
		page.Drawings = append(page.Drawings, drawing)
	}

	return page
}

func rectFromSlice(v []float64) Rect {
	if len(v) < 4 {
		return Rect{}
	}
	return Rect{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}
}

func colorFromSlice(v []float64) (Color, bool) {
	if len(v) < 3 {
		return Color{}, false
	}
	return Color{R: v[0], G: v[1], B: v[2]}, true
}
