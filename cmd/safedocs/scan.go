package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/safedocs/safedocs/internal/classifier"
	"github.com/safedocs/safedocs/internal/config"
	"github.com/safedocs/safedocs/internal/log"
	"github.com/safedocs/safedocs/internal/model"
	"github.com/safedocs/safedocs/internal/pipeline"
	"github.com/safedocs/safedocs/internal/report"
	"github.com/safedocs/safedocs/internal/scanner"
	"github.com/safedocs/safedocs/internal/storage"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file]...",
		Short: "Scan documents for malicious constructs",
		Long: `Scan analyzes office documents for malicious content.

Each document is format-detected, structurally analyzed, and scored by
deterministic rules plus an optional trained classifier. Documents judged
malicious are automatically disarmed and re-scanned to verify the result.

Supported formats: PDF, OOXML (docx/xlsx/pptx), RTF.

Examples:
  # Scan a single document
  safedocs scan invoice.pdf

  # Scan multiple documents concurrently
  safedocs scan a.pdf b.docx c.rtf

  # Score with a trained classifier model
  safedocs scan --model logreg.json invoice.pdf

  # Output JSON report to a file
  safedocs scan --json -o report.json invoice.pdf

  # Use a custom configuration file
  safedocs scan -c myconfig.yaml invoice.pdf

Configuration file (.safedocs) example:
  modelPath: /models/logreg.json
  dbDir: /var/lib/safedocs
  formats:
    pdf:
      keepOriginal: true
    rtf:
      skip: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for scanning each document")
	cmd.Flags().Int64P("max-file-size", "s", config.DefaultMaxFileSize,
		"Maximum document size in bytes")
	cmd.Flags().StringP("type", "T", "",
		"Declared content type hint applied to all inputs (e.g. application/pdf)")

	// Classifier flags
	cmd.Flags().StringP("model", "M", "",
		"Path to the trained classifier model artifact (JSON)")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent scans")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .safedocs in current or home directory)")

	// Storage flags
	cmd.Flags().String("db-dir", "",
		"Database directory for scan history (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not persist scan results to the database")
	cmd.Flags().BoolP("keep-original", "k", false,
		"Store the original document bytes alongside the scan report")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxFileSize, err = cmd.Flags().GetInt64("max-file-size")
	if err != nil {
		return nil, err
	}

	cfg.ModelPath, err = cmd.Flags().GetString("model")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}

	cfg.KeepOriginal, err = cmd.Flags().GetBool("keep-original")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	if err := loadFileConfig(cfg); err != nil {
		return nil, err
	}

	// Persist to the XDG data directory unless disabled or overridden.
	if !noDB {
		cfg.SaveToDB = true
		if cfg.DBDir == "" {
			cfg.DBDir = config.XDGDataDir()
		}
	} else {
		cfg.SaveToDB = false
	}

	declaredType, err := cmd.Flags().GetString("type")
	if err != nil {
		return nil, err
	}
	cfg.DeclaredType = declaredType

	// Get positional arguments (document paths)
	cfg.Targets = args

	return cfg, nil
}

// loadFileConfig loads the YAML configuration file and merges file-level
// settings into the config. If the user explicitly specified a config
// file path, error if not found. If no path specified, silently use an
// empty config when no file is found.
func loadFileConfig(cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		fileCfg, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.FileConfigs = fileCfg
		fileCfg.Apply(cfg)
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.FileConfigs = &config.File{
			Formats: make(map[string]config.FormatConfig),
		}
	}

	return nil
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more document paths as arguments)")
	}

	logger.Info("starting scan",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
		"modelPath", cfg.ModelPath,
	)

	// Open database connection if saving is enabled
	var store *storage.Store
	if cfg.SaveToDB {
		var err error
		store, err = storage.Open(cfg.DBDir, storage.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	sc := newScanner(cfg, logger)
	items := buildItems(cfg, logger)
	if len(items) == 0 {
		return errors.New("all targets were skipped by configuration")
	}

	// Use batch processor for parallel scanning if multiple targets
	if len(items) > 1 && cfg.BatchSize > 1 {
		return runBatchScan(ctx, cfg, sc, store, items, logger)
	}

	// Single target or sequential scanning
	return runSequentialScan(ctx, cfg, sc, store, items, logger)
}

// newScanner builds the scanner with the configured classifier adapter.
func newScanner(cfg *config.Config, logger *slog.Logger) *scanner.Scanner {
	var adapter classifier.Adapter = classifier.Disabled{}
	if cfg.ModelPath != "" {
		adapter = classifier.NewLogisticAdapter(cfg.ModelPath)
	}
	return scanner.New(
		scanner.WithLogger(logger),
		scanner.WithClassifier(adapter),
	)
}

// extensionFormats maps target file extensions to the per-format
// configuration keys understood by the config file.
var extensionFormats = map[string]string{
	".pdf":  "pdf",
	".docx": "ooxml",
	".docm": "ooxml",
	".xlsx": "ooxml",
	".xlsm": "ooxml",
	".pptx": "ooxml",
	".pptm": "ooxml",
	".rtf":  "rtf",
}

// buildItems converts targets into pipeline items, applying per-format
// skip rules from the configuration file.
func buildItems(cfg *config.Config, logger *slog.Logger) []*pipeline.Item {
	items := make([]*pipeline.Item, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		if formatName, ok := extensionFormats[strings.ToLower(filepath.Ext(target))]; ok && cfg.FileConfigs != nil {
			if cfg.FileConfigs.GetFormatConfig(formatName).Skip {
				logger.Info("skipping target by configuration", "target", target, "format", formatName)
				continue
			}
		}
		items = append(items, &pipeline.Item{
			Path:         target,
			DeclaredType: cfg.DeclaredType,
		})
	}
	return items
}

// newPipeline creates the scan pipeline for the current configuration.
func newPipeline(cfg *config.Config, sc *scanner.Scanner, store *storage.Store, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddStep(pipeline.NewLoadStep(
		pipeline.WithLoadMaxSize(cfg.MaxFileSize),
		pipeline.WithLoadLogger(logger),
	))
	p.AddStep(pipeline.NewScanStep(sc))
	if store != nil {
		p.AddStep(pipeline.NewPersistStep(store,
			pipeline.WithPersistOriginal(cfg.KeepOriginal),
			pipeline.WithPersistLogger(logger),
		))
	}
	return p
}

// runSequentialScan scans targets one at a time.
func runSequentialScan(ctx context.Context, cfg *config.Config, sc *scanner.Scanner, store *storage.Store, items []*pipeline.Item, logger *slog.Logger) error {
	p := newPipeline(cfg, sc, store, logger)

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Scanning %s...\n", item.Path)
		startTime := time.Now()

		scanCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err := p.Execute(scanCtx, item)
		cancel()
		if err != nil {
			logger.Error("scan failed", "target", item.Path, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", item.Path, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Scan completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if item.Report != nil {
			if err := outputReport(cfg, item.Report); err != nil {
				logger.Error("report failed", "target", item.Path, "error", err)
			}
		}
	}

	return nil
}

// runBatchScan scans multiple targets concurrently using BatchProcessor.
func runBatchScan(ctx context.Context, cfg *config.Config, sc *scanner.Scanner, store *storage.Store, items []*pipeline.Item, logger *slog.Logger) error {
	fmt.Printf("Starting batch scan of %d documents (concurrency: %d)...\n\n",
		len(items), cfg.BatchSize)

	startTime := time.Now()

	// Create batch processor with pipeline factory
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return newPipeline(cfg, sc, store, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, items, func(item *pipeline.Item, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Scan completed: %s\n", index+1, len(items), item.Path)

		if item.Report == nil {
			fmt.Fprintf(os.Stderr, "No report produced for %s\n", item.Path)
			return
		}

		// Generate and output report
		if err := outputReport(cfg, item.Report); err != nil {
			logger.Error("report failed", "target", item.Path, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch scan completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport outputs the scan report in the requested format.
func outputReport(cfg *config.Config, scanReport *model.ScanReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		// Reports may describe malicious content paths that should only be
		// readable by the owner
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (detailed report with all data)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(scanReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(scanReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output)
	_, err := writer.Write(scanReport)
	return err
}
