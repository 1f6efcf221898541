package parser

import (
	"sort"

	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
)

// ySpan is the vertical extent of a green marker, used to flag nearby
// text blocks as correct.
type ySpan struct {
	top, bottom float64
}

// checkmark is a small point-like green box marking an image-based
// option as correct.
type checkmark struct {
	cx, cy, radius int
}

// dropdownBox is a gray-bordered rounded rectangle rendering an inline
// choice placeholder.
type dropdownBox struct {
	rect layout.Rect
}

func (d dropdownBox) yMid() float64 {
	return (d.rect.Y0 + d.rect.Y1) / 2
}

// pageRegions is the typed classification of one page's vector drawings.
// It is computed once per page and discarded with the page; nothing in it
// survives the page's processing pass.
type pageRegions struct {
	greenSpans []ySpan
	checkmarks []checkmark
	hotspots   []exam.HotspotRegion
	dropdowns  []dropdownBox
}

// classifyRegions scans a page's vector drawings for correctness markers
// (green fills), hotspot overlays (blue fills or strokes) and dropdown
// widget borders (gray strokes with many curve items). Shapes without a
// bounding box are skipped; every category may legitimately be empty.
func classifyRegions(page layout.Page) pageRegions {
	var regions pageRegions

	for _, d := range page.Drawings {
		if d.Bounds == nil {
			continue
		}
		r := *d.Bounds
		w, h := r.Width(), r.Height()

		if d.Fill != nil && greenFillBounds.matches(d.Fill.R, d.Fill.G, d.Fill.B) {
			regions.greenSpans = append(regions.greenSpans, ySpan{top: r.Y0, bottom: r.Y1})
			// Small boxes double as point-like checkmarks for
			// image-based options.
			if w > checkmarkMinSide && w < checkmarkMaxSide &&
				h > checkmarkMinSide && h < checkmarkMaxSide {
				regions.checkmarks = append(regions.checkmarks, checkmark{
					cx:     int((r.X0 + r.X1) / 2),
					cy:     int((r.Y0 + r.Y1) / 2),
					radius: int(maxf(w, h)/2) + 5,
				})
			}
		}

		if isBlue(d) && w > hotspotMinSide && w < hotspotMaxSide &&
			h > hotspotMinSide && h < hotspotMaxSide {
			regions.hotspots = append(regions.hotspots, exam.HotspotRegion{
				X:      int(r.X0),
				Y:      int(r.Y0),
				Width:  int(w),
				Height: int(h),
			})
		}

		if isDropdownBorder(d) {
			regions.dropdowns = append(regions.dropdowns, dropdownBox{rect: r})
		}
	}

	sort.Slice(regions.dropdowns, func(a, b int) bool {
		return regions.dropdowns[a].yMid() < regions.dropdowns[b].yMid()
	})

	return regions
}

// isBlue matches hotspot overlays on either fill or stroke: filled
// rectangles and ring outlines both occur in the wild.
func isBlue(d layout.Drawing) bool {
	if d.Fill != nil && blueFillBounds.matches(d.Fill.R, d.Fill.G, d.Fill.B) {
		return true
	}
	if d.Stroke != nil && blueFillBounds.matches(d.Stroke.R, d.Stroke.G, d.Stroke.B) {
		return true
	}
	return false
}

// isDropdownBorder matches the rounded gray widget border: near-0.8 gray
// stroke with enough curve primitives for four rounded corners.
func isDropdownBorder(d layout.Drawing) bool {
	if d.Stroke == nil || d.Items < dropdownMinItems {
		return false
	}
	return abs(d.Stroke.R-grayBorderValue) < grayBorderTolerance &&
		abs(d.Stroke.G-grayBorderValue) < grayBorderTolerance &&
		abs(d.Stroke.B-grayBorderValue) < grayBorderTolerance
}

// nearGreenSpan reports whether y lies within the marker tolerance of any
// green span.
func (r pageRegions) nearGreenSpan(y float64) bool {
	for _, span := range r.greenSpans {
		if abs(y-span.top) < greenMarkerYTolerance {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
