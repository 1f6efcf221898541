// Package runner drives batch processing: scan a directory tree for exam
// PDFs, parse them concurrently and export the results. One bad document
// never stops the batch; its failure is recorded in the summary.
package runner

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jdahlin/disa-parser/internal/assets"
	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/export"
	"github.com/jdahlin/disa-parser/internal/layout"
	"github.com/jdahlin/disa-parser/internal/parser"
)

// Options configures a batch run.
type Options struct {
	OutputDir     string
	Workers       int
	Recursive     bool
	ExtractImages bool
	Verbose       bool
}

// Result is the outcome of one document.
type Result struct {
	Path      string
	Questions int
	Exported  int
	Err       error
}

// Summary aggregates a batch run.
type Summary struct {
	Scanned   int
	Questions int
	Exported  int
	Errors    int
	Results   []Result
}

// ProcessDirectory scans dir for exam PDFs and processes them with a
// bounded worker pool. Cancelling ctx stops scheduling new documents;
// in-flight documents finish.
func ProcessDirectory(ctx context.Context, dir string, opts Options) (*Summary, error) {
	paths, err := parser.ScanDirectory(dir, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	summary := &Summary{Scanned: len(paths)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := ProcessFile(path, opts)
			if res.Err != nil && opts.Verbose {
				log.Printf("error processing %s: %v", filepath.Base(path), res.Err)
			}
			mu.Lock()
			summary.Results = append(summary.Results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Path < summary.Results[j].Path
	})
	for _, res := range summary.Results {
		if res.Err != nil {
			summary.Errors++
			continue
		}
		summary.Questions += res.Questions
		summary.Exported += res.Exported
	}
	return summary, nil
}

// ProcessFile parses a single exam PDF and writes its per-question YAML
// files, extracting image assets when configured. The error is carried in
// the Result, never panicked or logged here.
func ProcessFile(path string, opts Options) Result {
	doc, err := layout.OpenPDF(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("open: %w", err)}
	}
	defer doc.Close()

	return processDocument(doc, path, opts)
}

// processDocument runs the parse and export stages over an open document.
// A panic out of the document source or the parser is confined to this
// document's Result; the rest of the batch keeps going.
func processDocument(doc layout.Document, path string, opts Options) (res Result) {
	res = Result{Path: path}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic processing %s: %v", filepath.Base(path), r)
		}
	}()

	course := DetectCourse(path)
	parsed, err := parser.New(doc, filepath.Base(path), course).Parse()
	if err != nil {
		res.Err = fmt.Errorf("parse: %w", err)
		return res
	}
	res.Questions = parsed.QuestionCount()
	if res.Questions == 0 {
		return res
	}

	if opts.ExtractImages {
		imagesDir := filepath.Join(opts.OutputDir, "images")
		images, err := assets.Extract(path, imagesDir)
		if err != nil {
			res.Err = fmt.Errorf("images: %w", err)
			return res
		}
		if err := assets.Associate(images, parsed.Questions, export.ExamID(parsed)); err != nil {
			res.Err = fmt.Errorf("images: %w", err)
			return res
		}
	}

	exported, err := export.WriteQuestions(parsed, opts.OutputDir)
	if err != nil {
		res.Err = fmt.Errorf("export: %w", err)
		return res
	}
	res.Exported = exported
	return res
}

// DetectCourse finds a known course name among the path components,
// "unknown" otherwise.
func DetectCourse(path string) string {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if _, ok := exam.CourseCodes[part]; ok {
			return part
		}
	}
	return "unknown"
}
