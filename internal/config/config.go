package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Command constants
	CommandProcess = "process"
	CommandParse   = "parse"
	CommandScan    = "scan"
	CommandServe   = "serve"

	// Default values
	DefaultOutputDir = "output_questions"
	DefaultLogLevel  = "info"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the exam parser CLI and MCP server.
type Config struct {
	// Command is the selected subcommand: process, parse, scan or serve.
	Command string

	// Target is the positional argument: a directory for process/scan, a
	// PDF file for parse.
	Target string

	// Processing configuration
	OutputDir     string
	Course        string
	Workers       int
	Recursive     bool
	ExtractImages bool
	Limit         int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	Verbose    bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Command:       CommandProcess,
		OutputDir:     DefaultOutputDir,
		Course:        "",
		Workers:       0, // 0 means one worker per CPU
		Recursive:     true,
		ExtractImages: true,
		Limit:         10,
		Version:       "1.0.0",
		ServerName:    "disa-parser",
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	args := pflag.Args()
	if len(args) > 0 {
		cfg.Command = args[0]
	}
	if len(args) > 1 {
		cfg.Target = args[1]
	}

	if cfg.Target != "" {
		if expandedPath, err := filepath.Abs(cfg.Target); err == nil {
			cfg.Target = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("DISA")
	viper.AutomaticEnv()

	viper.SetDefault("output", cfg.OutputDir)
	viper.SetDefault("course", cfg.Course)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("recursive", cfg.Recursive)
	viper.SetDefault("images", cfg.ExtractImages)
	viper.SetDefault("limit", cfg.Limit)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("verbose", cfg.Verbose)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.StringP("output", "o", cfg.OutputDir, "Output directory for YAML question files")
	pflag.String("course", cfg.Course, "Course name override (default: detect from path)")
	pflag.IntP("workers", "w", cfg.Workers, "Number of concurrent workers (0 = CPU count)")
	pflag.Bool("recursive", cfg.Recursive, "Scan subdirectories")
	pflag.Bool("images", cfg.ExtractImages, "Extract and associate image assets")
	pflag.Int("limit", cfg.Limit, "Number of questions shown by the parse command")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.BoolP("verbose", "v", cfg.Verbose, "Show per-document errors")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("output", pflag.Lookup("output"))
	_ = viper.BindPFlag("course", pflag.Lookup("course"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("recursive", pflag.Lookup("recursive"))
	_ = viper.BindPFlag("images", pflag.Lookup("images"))
	_ = viper.BindPFlag("limit", pflag.Lookup("limit"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("verbose", pflag.Lookup("verbose"))
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ndisa-parser - Extract questions and answers from DISA exam PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  process <dir>   Scan a directory, parse every exam, export YAML\n")
		fmt.Fprintf(os.Stderr, "  parse <file>    Parse a single exam and print a summary\n")
		fmt.Fprintf(os.Stderr, "  scan <dir>      List the exam PDFs a process run would pick up\n")
		fmt.Fprintf(os.Stderr, "  serve           Run the MCP server on standard I/O\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s process ./exams/                  # parse all exams under ./exams\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s process ./exams/ -o out/ -w 8     # custom output dir, 8 workers\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s parse exam.pdf --limit 5          # show first 5 questions\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s serve                             # MCP server for tool access\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DISA_OUTPUT     Output directory\n")
		fmt.Fprintf(os.Stderr, "  DISA_COURSE     Course name override\n")
		fmt.Fprintf(os.Stderr, "  DISA_WORKERS    Number of workers\n")
		fmt.Fprintf(os.Stderr, "  DISA_LOGLEVEL   Log level\n")
	}
}

// checkVersionFlag checks if version flag was requested.
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.OutputDir = viper.GetString("output")
	cfg.Course = viper.GetString("course")
	cfg.Workers = viper.GetInt("workers")
	cfg.Recursive = viper.GetBool("recursive")
	cfg.ExtractImages = viper.GetBool("images")
	cfg.Limit = viper.GetInt("limit")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.Verbose = viper.GetBool("verbose")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Command {
	case CommandProcess, CommandParse, CommandScan, CommandServe:
	default:
		return fmt.Errorf("unknown command %q (must be one of: process, parse, scan, serve)", c.Command)
	}

	if c.Command != CommandServe && c.Target == "" {
		return fmt.Errorf("command %q requires a file or directory argument", c.Command)
	}

	switch c.Command {
	case CommandProcess, CommandScan:
		info, err := os.Stat(c.Target)
		if err != nil {
			return fmt.Errorf("cannot access directory %s: %w", c.Target, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", c.Target)
		}
	case CommandParse:
		if _, err := os.Stat(c.Target); err != nil {
			return fmt.Errorf("cannot access file %s: %w", c.Target, err)
		}
	}

	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if c.Limit < 0 {
		return errors.New("limit must not be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Command: %s, Target: %s, OutputDir: %s, Workers: %d, Recursive: %t, LogLevel: %s}",
		c.Command, c.Target, c.OutputDir, c.Workers, c.Recursive, c.LogLevel)
}
