package mcp

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jdahlin/disa-parser/internal/config"
	"github.com/jdahlin/disa-parser/internal/exam"
	"github.com/jdahlin/disa-parser/internal/layout"
	"github.com/jdahlin/disa-parser/internal/parser"
	"github.com/jdahlin/disa-parser/internal/runner"
)

// Server exposes the exam parser as MCP tools over standard I/O.
type Server struct {
	config    *config.Config
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // tool set is static
	)

	s := &Server{
		config:    cfg,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	examParseTool := mcp.NewTool(
		"exam_parse",
		mcp.WithDescription("Parse a DISA exam PDF and return its questions, options and graded answers"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the exam PDF file"),
		),
	)
	s.mcpServer.AddTool(examParseTool, s.handleExamParse)

	examDetectTool := mcp.NewTool(
		"exam_detect",
		mcp.WithDescription("Check whether a PDF file is a DISA exam, a merged collection, or an ungraded template"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(examDetectTool, s.handleExamDetect)

	examScanTool := mcp.NewTool(
		"exam_scan_directory",
		mcp.WithDescription("Scan a directory for parseable DISA exam PDFs"),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Directory path to scan"),
		),
	)
	s.mcpServer.AddTool(examScanTool, s.handleExamScanDirectory)

	examProcessTool := mcp.NewTool(
		"exam_process_directory",
		mcp.WithDescription("Parse every DISA exam under a directory and export per-question YAML files"),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Directory path to scan"),
		),
		mcp.WithString("output",
			mcp.Description("Output directory for YAML files (uses configured default if empty)"),
		),
	)
	s.mcpServer.AddTool(examProcessTool, s.handleExamProcessDirectory)
}

// Handler functions
func (s *Server) handleExamParse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := layout.OpenPDF(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer doc.Close()

	parsed, err := parser.New(doc, path, runner.DetectCourse(path)).Parse()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatParsedExam(parsed)), nil
}

func (s *Server) handleExamDetect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Detection results for %s:\n", path)
	responseText += fmt.Sprintf("  DISA exam: %t\n", parser.IsExamFile(path))
	responseText += fmt.Sprintf("  Merged collection: %t\n", parser.IsMergedExam(path))
	responseText += fmt.Sprintf("  Ungraded template: %t\n", parser.IsUngradedExam(path))

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleExamScanDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	directory, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths, err := parser.ScanDirectory(directory, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(paths) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No DISA exams found in directory: %s", directory)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d DISA exam(s) in directory: %s\n\n", len(paths), directory)
	for i, p := range paths {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, p)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleExamProcessDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	directory, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	output := s.config.OutputDir
	if dir, ok := request.GetArguments()["output"].(string); ok && dir != "" {
		output = dir
	}

	summary, err := runner.ProcessDirectory(ctx, directory, runner.Options{
		OutputDir:     output,
		Workers:       s.config.Workers,
		Recursive:     true,
		ExtractImages: s.config.ExtractImages,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Processed %d exam(s) from %s\n", summary.Scanned, directory)
	responseText += fmt.Sprintf("  Questions parsed: %d\n", summary.Questions)
	responseText += fmt.Sprintf("  Questions exported: %d\n", summary.Exported)
	responseText += fmt.Sprintf("  Errors: %d\n", summary.Errors)
	responseText += fmt.Sprintf("  Output: %s\n", output)

	return mcp.NewToolResultText(responseText), nil
}

// Formatting methods
func (s *Server) formatParsedExam(parsed *exam.ParsedExam) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Parsed exam: %s\n", parsed.Filename)
	if parsed.Metadata.CourseCode != "" {
		fmt.Fprintf(&sb, "Course code: %s\n", parsed.Metadata.CourseCode)
	}
	if parsed.Metadata.Date != "" {
		fmt.Fprintf(&sb, "Date: %s\n", parsed.Metadata.Date)
	}
	fmt.Fprintf(&sb, "Graded: %t\n", parsed.Metadata.IsGraded)
	fmt.Fprintf(&sb, "Questions: %d (%d with answers)\n", parsed.QuestionCount(), parsed.AnsweredCount())

	for i := range parsed.Questions {
		q := &parsed.Questions[i]
		fmt.Fprintf(&sb, "\nQ%d [%s] %.1fp", q.Number, exam.TypeCode(q.Type), q.Points)
		if q.Category != "" {
			fmt.Fprintf(&sb, " (%s)", q.Category)
		}
		sb.WriteString("\n")

		text := q.Text
		if r := []rune(text); len(r) > 200 {
			text = string(r[:200]) + "..."
		}
		fmt.Fprintf(&sb, "  %s\n", text)

		for _, o := range q.Options {
			mark := " "
			if o.IsCorrect {
				mark = "*"
			}
			fmt.Fprintf(&sb, "  [%s] %s\n", mark, o.Text)
		}
		if q.Answer != "" {
			fmt.Fprintf(&sb, "  Answer: %s\n", q.Answer)
		}
	}

	return sb.String()
}

// Run starts the MCP server on standard I/O. The transport owns the
// process's stdin and stdout until the client disconnects.
func (s *Server) Run(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting exam parser MCP server in stdio mode")
		log.Printf("Output directory: %s", s.config.OutputDir)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
