package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"

	"github.com/jdahlin/disa-parser/internal/config"
	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
	"github.com/jdahlin/disa-parser/internal/mcp"
	"github.com/jdahlin/disa-parser/internal/parser"
	"github.com/jdahlin/disa-parser/internal/runner"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the selected command
func setupLogging(cfg *config.Config) {
	if cfg.Command == config.CommandServe {
		// In serve mode, redirect log output to stderr to avoid interfering
		// with the MCP protocol on stdout
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
	} else {
		log.SetFlags(log.LstdFlags)
		if cfg.IsDebug() {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
	}
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var exitCode int
	switch cfg.Command {
	case config.CommandProcess:
		exitCode = runProcess(ctx, cancel, cfg)
	case config.CommandParse:
		exitCode = runParse(cfg)
	case config.CommandScan:
		exitCode = runScan(cfg)
	case config.CommandServe:
		exitCode = runServe(ctx, cfg)
	}
	os.Exit(exitCode)
}

// runProcess scans a directory and processes every exam in it, stopping
// early on SIGINT or SIGTERM.
func runProcess(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) int {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalCh
		log.Printf("Received signal: %s, stopping after in-flight exams", sig)
		cancel()
	}()

	fmt.Printf("Scanning %s for DISA exams...\n", cfg.Target)

	summary, err := runner.ProcessDirectory(ctx, cfg.Target, runner.Options{
		OutputDir:     cfg.OutputDir,
		Workers:       cfg.Workers,
		Recursive:     cfg.Recursive,
		ExtractImages: cfg.ExtractImages,
		Verbose:       cfg.Verbose,
	})
	if err != nil {
		log.Printf("Processing failed: %v", err)
		return 1
	}

	fmt.Printf("\nDone!\n")
	fmt.Printf("  Exams processed: %d\n", summary.Scanned)
	fmt.Printf("  Total questions: %d\n", summary.Questions)
	fmt.Printf("  Exported with answers: %d\n", summary.Exported)
	fmt.Printf("  Errors: %d\n", summary.Errors)
	fmt.Printf("  Output: %s/\n", cfg.OutputDir)
	return 0
}

// runParse parses a single exam and prints a readable summary.
func runParse(cfg *config.Config) int {
	course := cfg.Course
	if course == "" {
		course = runner.DetectCourse(cfg.Target)
	}

	doc, err := layout.OpenPDF(cfg.Target)
	if err != nil {
		log.Printf("Error opening: %v", err)
		return 1
	}
	defer doc.Close()

	parsed, err := parser.New(doc, filepath.Base(cfg.Target), course).Parse()
	if err != nil {
		log.Printf("Error parsing: %v", err)
		return 1
	}

	fmt.Printf("=== %s ===\n", filepath.Base(cfg.Target))
	fmt.Printf("Total questions: %d\n", parsed.QuestionCount())
	fmt.Printf("With answers: %d/%d\n", parsed.AnsweredCount(), parsed.QuestionCount())

	byType := make(map[string][]*exam.Question)
	for i := range parsed.Questions {
		q := &parsed.Questions[i]
		code := exam.TypeCode(q.Type)
		byType[code] = append(byType[code], q)
	}
	codes := make([]string, 0, len(byType))
	for code := range byType {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Println("\nBy type:")
	for _, code := range codes {
		questions := byType[code]
		answered := 0
		for _, q := range questions {
			if q.HasAnswer() {
				answered++
			}
		}
		fmt.Printf("  %s: %d/%d\n", code, answered, len(questions))
	}

	limit := cfg.Limit
	if limit > parsed.QuestionCount() {
		limit = parsed.QuestionCount()
	}
	fmt.Printf("\nFirst %d questions:\n", limit)
	for i := range parsed.Questions[:limit] {
		q := &parsed.Questions[i]
		answered := "N"
		if q.HasAnswer() {
			answered = "Y"
		}
		fmt.Printf("\n--- Q%d [%s] answered=%s ---\n", q.Number, exam.TypeCode(q.Type), answered)
		fmt.Printf("Type: %s\n", q.Type)
		fmt.Printf("Points: %g\n", q.Points)
		fmt.Printf("Text: %s\n", preview(q.Text, 100))

		if len(q.Options) > 0 {
			fmt.Printf("Options (%d):\n", len(q.Options))
			for _, opt := range q.Options {
				mark := " "
				if opt.IsCorrect {
					mark = "*"
				}
				fmt.Printf("  [%s] %s\n", mark, preview(opt.Text, 60))
			}
		}
		if q.Answer != "" {
			fmt.Printf("Answer: %s\n", preview(q.Answer, 100))
		}
	}
	return 0
}

// runScan lists the exams a process run would pick up.
func runScan(cfg *config.Config) int {
	paths, err := parser.ScanDirectory(cfg.Target, cfg.Recursive)
	if err != nil {
		log.Printf("Scan failed: %v", err)
		return 1
	}

	fmt.Printf("Found %d DISA exam(s) in %s:\n", len(paths), cfg.Target)
	for _, p := range paths {
		fmt.Println(p)
	}
	return 0
}

// runServe runs the MCP server on standard I/O, the parent process owns
// our lifecycle.
func runServe(ctx context.Context, cfg *config.Config) int {
	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	if err := server.Run(ctx); err != nil {
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		return 1
	}
	return 0
}

func preview(text string, limit int) string {
	if r := []rune(text); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return text
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("disa-parser\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
