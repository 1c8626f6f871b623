package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for typical document scanning workloads:
// office documents and PDFs in the kilobyte-to-megabyte range.
const (
	// DefaultTimeout is the per-document scan deadline. Analysis is
	// CPU-bound and bounded by structural caps, so 60 seconds is generous
	// even for large containers; it mainly guards against pathological
	// inputs in batch runs.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize of 10 concurrent scans balances throughput with
	// memory usage. Each in-flight document holds its full content in
	// memory, so higher values trade RAM for speed.
	DefaultBatchSize = 10

	// DefaultMaxFileSize limits the size of files read into memory.
	// 100MB covers virtually all real documents while preventing memory
	// exhaustion from oversized or hostile inputs.
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// AppName is the application name used for XDG directory paths.
	AppName = "safedocs"

	// DefaultSanitizedSuffix is appended to the base name of a file when
	// writing its sanitized copy next to the original
	// (e.g., "invoice.pdf" becomes "invoice.disarmed.pdf").
	DefaultSanitizedSuffix = ".disarmed"
)

// Config holds all configuration options for safedocs.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ScanConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Timeout is the scan deadline applied to each document.
	// This applies per document, not to the overall batch duration.
	Timeout time.Duration

	// BatchSize is the number of concurrent scans when processing multiple files.
	// Higher values increase throughput but hold more content in memory.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .safedocs in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// FileConfigs holds settings loaded from the config file.
	// This is populated by LoadConfigFile and merged under CLI flags.
	FileConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// When true, outputs the full report with all collected data.
	// When false, outputs a human-readable summary (default).
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// When true, outputs GitHub Flavored Markdown with tables and alerts.
	// When false, outputs a human-readable summary (default).
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Targets is the list of file paths to scan.
	// Must contain at least one path.
	Targets []string

	// ModelPath is the path to the classifier model artifact (JSON).
	// When empty, the classifier is disabled and verdicts rest on the
	// deterministic rules alone.
	ModelPath string

	// DBDir is the directory path for storing the SQLite database.
	// When set, scan results are saved to the database for historical comparison.
	// When empty, scan results are not persisted.
	// Defaults to XDG data directory (~/.local/share/safedocs on Linux).
	DBDir string

	// SaveToDB indicates whether to save scan results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// KeepOriginal stores the original file content in the database
	// alongside the report and any sanitized output. Off by default to
	// keep the database small.
	KeepOriginal bool

	// DeclaredType is an optional content type hint applied to every
	// target (e.g. "application/pdf"). Detection still sniffs content;
	// a mismatch between the hint and the sniffed format is reported
	// as a finding.
	DeclaredType string

	// MaxFileSize is the maximum file size in bytes to read into memory.
	// Files larger than this are rejected before scanning.
	// Set to 0 to use the default (100MB).
	MaxFileSize int64

	// OutputDir is the directory where sanitized copies are written.
	// When empty, sanitized copies are written next to the original file
	// with the DefaultSanitizedSuffix inserted before the extension.
	OutputDir string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, batch size).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		BatchSize:   DefaultBatchSize,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// XDGDataDir returns the XDG data directory for safedocs.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/safedocs
// On macOS: ~/Library/Application Support/safedocs
// On Windows: %LOCALAPPDATA%\safedocs
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for safedocs.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/safedocs
// On macOS: ~/Library/Application Support/safedocs
// On Windows: %APPDATA%\safedocs
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for safedocs.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/safedocs
// On macOS: ~/Library/Caches/safedocs
// On Windows: %LOCALAPPDATA%\safedocs\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one file to scan
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// BatchSize must be positive; zero would mean no scanning
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// MaxFileSize must be non-negative; zero means default
	if c.MaxFileSize < 0 {
		return ErrInvalidMaxFileSize
	}

	return nil
}
