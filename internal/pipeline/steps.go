package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/safedocs/safedocs/internal/config"
	"github.com/safedocs/safedocs/internal/scanner"
	"github.com/safedocs/safedocs/internal/storage"
)

// LoadStep reads item content from disk.
// Items that already carry Data (e.g., submitted by an API handler)
// pass through unchanged.
//
// Design decision: Loading is a separate step rather than part of the
// scan step because:
// 1. Batch items reference paths; in-memory items don't need it
// 2. The size cap is an ingestion concern, not an analysis concern
// 3. Read failures should stop the pipeline before any scan runs
type LoadStep struct {
	// maxSize limits the content size read from disk.
	maxSize int64

	// logger for structured logging.
	logger *slog.Logger
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*LoadStep)

// WithLoadMaxSize sets the maximum file size in bytes.
// Files larger than this are rejected without being read into memory.
func WithLoadMaxSize(size int64) LoadStepOption {
	return func(s *LoadStep) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithLoadLogger sets a custom logger for the load step.
func WithLoadLogger(logger *slog.Logger) LoadStepOption {
	return func(s *LoadStep) {
		s.logger = logger
	}
}

// NewLoadStep creates a new content loading step.
func NewLoadStep(opts ...LoadStepOption) *LoadStep {
	s := &LoadStep{
		maxSize: config.DefaultMaxFileSize,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do executes the load step.
func (s *LoadStep) Do(_ context.Context, item *Item) error {
	if item.Data != nil {
		s.logger.Debug("content already loaded", "filename", item.Filename)
		return nil
	}
	if item.Path == "" {
		return fmt.Errorf("item has neither data nor path")
	}

	info, err := os.Stat(item.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", item.Path, err)
	}
	if info.Size() > s.maxSize {
		return fmt.Errorf("file %s exceeds size limit (%d > %d bytes)", item.Path, info.Size(), s.maxSize)
	}

	data, err := os.ReadFile(item.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", item.Path, err)
	}

	item.Data = data
	if item.Filename == "" {
		item.Filename = filepath.Base(item.Path)
	}

	return nil
}

// ScanStep runs the document scanner on the item's content.
// This is the core step: detection, analysis, risk assessment, and
// conditional sanitization all happen inside the scanner.
type ScanStep struct {
	// scanner performs the actual scan.
	scanner *scanner.Scanner
}

// NewScanStep creates a new scanning step around the given scanner.
func NewScanStep(sc *scanner.Scanner) *ScanStep {
	return &ScanStep{scanner: sc}
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return "scan"
}

// Do executes the scan step.
// The scanner's contract is total: it never returns an error, so this
// step only fails when the item carries no content.
func (s *ScanStep) Do(ctx context.Context, item *Item) error {
	if item.Data == nil && item.Path != "" {
		return fmt.Errorf("content for %s was not loaded", item.Path)
	}

	item.Report = s.scanner.Scan(ctx, item.Data, item.Filename, item.DeclaredType)
	return nil
}

// PersistStep saves the scan report and artifact content to storage.
//
// Design decision: Persistence is a separate step because:
// 1. CLI one-shot scans may not want a database at all
// 2. It operates purely on the accumulated report
// 3. Persistence failures shouldn't invalidate the scan result
type PersistStep struct {
	// store receives reports and artifact content.
	store *storage.Store

	// keepOriginal stores the original bytes alongside the report.
	keepOriginal bool

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistOriginal stores the original content bytes in addition to
// the report and any sanitized output. Off by default to keep the
// database small.
func WithPersistOriginal(keep bool) PersistStepOption {
	return func(s *PersistStep) {
		s.keepOriginal = keep
	}
}

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a new persistence step around the given store.
func NewPersistStep(store *storage.Store, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persistence step.
func (s *PersistStep) Do(ctx context.Context, item *Item) error {
	if item.Report == nil {
		return fmt.Errorf("no report to persist for %s", item.Filename)
	}

	if err := s.store.SaveScanReport(ctx, item.Report); err != nil {
		return fmt.Errorf("failed to persist report: %w", err)
	}

	if s.keepOriginal && len(item.Data) > 0 {
		if err := s.store.SaveArtifact(ctx, item.Report.SHA256, storage.ArtifactOriginal, item.Data); err != nil {
			return fmt.Errorf("failed to persist original content: %w", err)
		}
	}

	// Sanitized output is stored whenever the sanitizer produced one,
	// keyed by the original content digest.
	if item.Report.Sanitized() && len(item.Report.Sanitization.Output) > 0 {
		if err := s.store.SaveArtifact(ctx, item.Report.SHA256, storage.ArtifactSanitized, item.Report.Sanitization.Output); err != nil {
			return fmt.Errorf("failed to persist sanitized content: %w", err)
		}
	}

	s.logger.Debug("report persisted",
		"sha256", item.Report.SHA256,
		"verdict", item.Report.Assessment.Verdict.String(),
	)

	return nil
}

// DefaultPipeline creates a pipeline with the standard steps configured:
// load, scan, and (when a store is provided) persist.
//
// Design decision: We provide a default pipeline because:
// 1. Most callers want the standard load/scan/persist flow
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent ordering
func DefaultPipeline(sc *scanner.Scanner, store *storage.Store, pipelineOpts ...Option) *Pipeline {
	p := New(pipelineOpts...)

	p.AddSteps(
		NewLoadStep(),
		NewScanStep(sc),
	)
	if store != nil {
		p.AddStep(NewPersistStep(store))
	}

	return p
}
