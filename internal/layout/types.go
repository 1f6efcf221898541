// Package layout defines the page layout primitives consumed by the exam
// parser: positioned text spans grouped into lines and blocks, and vector
// drawing shapes. A Document supplies these per page; implementations exist
// for JSON fixtures and for real PDF files.
package layout

import "strings"

// Rect is an axis-aligned bounding box in page coordinates, y growing
// downward from the top of the page.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Contains reports whether the point (x, y) lies strictly inside the
// rectangle.
func (r Rect) Contains(x, y float64) bool {
	return r.X0 < x && x < r.X1 && r.Y0 < y && y < r.Y1
}

// Color is an RGB triple with components in [0, 1], matching the color
// model used by PDF vector drawing operators.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Span is a run of text rendered with a single font and fill color.
type Span struct {
	Text string `json:"text"`
	BBox Rect   `json:"bbox"`
	Font string `json:"font"`
	// Color is the text fill color packed as 0xRRGGBB.
	Color uint32 `json:"color"`
}

// Line groups the spans rendered on one baseline.
type Line struct {
	Spans []Span `json:"spans"`
}

// Block is one visually grouped unit of lines, as reported by the layout
// source.
type Block struct {
	BBox  Rect   `json:"bbox"`
	Lines []Line `json:"lines"`
}

// Drawing is a single vector path on a page. Fill and Stroke are nil when
// the path carries no fill or stroke color; Bounds is nil when the source
// reports no bounding box for the path.
type Drawing struct {
	Bounds *Rect  `json:"rect,omitempty"`
	Fill   *Color `json:"fill,omitempty"`
	Stroke *Color `json:"stroke,omitempty"`
	// Items is the number of primitive operations (lines, curves) making
	// up the path. Rounded widget borders have many curve items.
	Items int `json:"items"`
}

// Page holds all layout primitives for one page.
type Page struct {
	Blocks   []Block   `json:"blocks"`
	Drawings []Drawing `json:"drawings"`
}

// Text returns the plain text of the page, one line per layout line.
func (p Page) Text() string {
	var sb strings.Builder
	for _, block := range p.Blocks {
		for _, line := range block.Lines {
			for _, span := range line.Spans {
				sb.WriteString(span.Text)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Document is a random-access source of page layout primitives. Page
// indices are zero-based; requesting a page outside the document returns
// an empty page rather than an error, so callers can iterate defensively.
type Document interface {
	// PageCount reports the total number of pages in the document.
	PageCount() int
	// Page returns the layout primitives for page index i.
	Page(i int) Page
	// Close releases any resources held by the source.
	Close() error
}
