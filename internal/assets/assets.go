// Package assets extracts embedded images from exam documents and
// associates them with parsed questions.
package assets

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jdahlin/disa-parser/internal/exam"
)

const (
	// Images below this edge length are icons and bullets, not question
	// artwork.
	minImageSide = 30
	// A paper image fills most of an A4 page at render resolution.
	paperMinSide = 800
	// A4 portrait width/height ratio.
	a4Aspect          = 0.707
	a4AspectTolerance = 0.15
)

// extractedFilePattern matches pdfcpu's extraction naming, which embeds
// the 1-based page number: <base>_<page>_<resource>.<ext>.
var extractedFilePattern = regexp.MustCompile(`_(\d+)_[^_]+\.(\w+)$`)

// ExtractedImage is one embedded image pulled out of a document.
type ExtractedImage struct {
	Path    string
	PageNum int // 0-based, aligned with parser page numbering
	Width   int
	Height  int
	Format  string
	hash    [md5.Size]byte
}

// IsTiny reports whether the image is too small to carry question
// content.
func (img ExtractedImage) IsTiny() bool {
	return img.Width < minImageSide || img.Height < minImageSide
}

// IsPaper reports whether the image looks like a full-page blank drawing
// area. Without placement geometry this is judged from pixel dimensions:
// page-sized and page-shaped.
func (img ExtractedImage) IsPaper() bool {
	if img.Width < paperMinSide || img.Height < paperMinSide {
		return false
	}
	aspect := float64(img.Width) / float64(img.Height)
	return aspect > a4Aspect-a4AspectTolerance && aspect < a4Aspect+a4AspectTolerance
}

// Extract pulls every embedded image out of the document into dir and
// returns their metadata. Duplicate images, repeated logos and such, are
// collapsed to their first occurrence.
func Extract(pdfPath, dir string) ([]ExtractedImage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ExtractImagesFile(pdfPath, dir, nil, conf); err != nil {
		return nil, fmt.Errorf("extract images from %s: %w", filepath.Base(pdfPath), err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []ExtractedImage
	seen := make(map[[md5.Size]byte]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := extractedFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		img, err := describeImage(path, pageNum-1, strings.ToLower(m[2]))
		if err != nil {
			// Unreadable or exotic formats are dropped, not fatal.
			os.Remove(path)
			continue
		}
		if seen[img.hash] || img.IsTiny() {
			os.Remove(path)
			continue
		}
		seen[img.hash] = true
		images = append(images, img)
	}
	return images, nil
}

func describeImage(path string, pageNum int, format string) (ExtractedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ExtractedImage{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ExtractedImage{}, err
	}
	return ExtractedImage{
		Path:    path,
		PageNum: pageNum,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Format:  format,
		hash:    md5.Sum(data),
	}, nil
}

// Associate attaches extracted images to the questions on their pages,
// renaming each asset to <examID>_qNN_img[_i].<ext> (papers get the
// _paper suffix). An image on a page with several questions goes to the
// first question of that page; a paper image marks that question as
// having an annotatable drawing area.
func Associate(images []ExtractedImage, questions []exam.Question, examID string) error {
	byPage := make(map[int]*exam.Question)
	for i := range questions {
		q := &questions[i]
		if q.PageNum < 0 {
			continue
		}
		if _, ok := byPage[q.PageNum]; !ok {
			byPage[q.PageNum] = q
		}
	}

	counts := make(map[int]int)
	for _, img := range images {
		q, ok := byPage[img.PageNum]
		if !ok {
			continue
		}

		var name string
		if img.IsPaper() {
			name = fmt.Sprintf("%s_q%02d_paper.%s", examID, q.Number, img.Format)
		} else {
			suffix := ""
			if n := counts[q.Number]; n > 0 {
				suffix = fmt.Sprintf("_%d", n)
			}
			counts[q.Number]++
			name = fmt.Sprintf("%s_q%02d_img%s.%s", examID, q.Number, suffix, img.Format)
		}

		dest := filepath.Join(filepath.Dir(img.Path), name)
		if err := os.Rename(img.Path, dest); err != nil {
			return fmt.Errorf("rename image asset: %w", err)
		}

		q.Images = append(q.Images, exam.ImageRef{
			Path:    name,
			Width:   img.Width,
			Height:  img.Height,
			Format:  img.Format,
			IsPaper: img.IsPaper(),
		})
	}
	return nil
}
