package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/safedocs/safedocs/internal/config"
	"github.com/safedocs/safedocs/internal/format"
	"github.com/safedocs/safedocs/internal/log"
	"github.com/safedocs/safedocs/internal/sanitize"
	"github.com/spf13/cobra"
)

// NewSanitizeCmd creates the sanitize command.
func NewSanitizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize [file]...",
		Short: "Produce disarmed copies of documents",
		Long: `Sanitize removes dangerous constructs from documents and writes a
disarmed copy of each input.

Unlike scan, which disarms only documents judged malicious, sanitize always
runs the sanitizer chain for the detected format. The disarmed copy is
written next to the original with a ".disarmed" suffix, or into the
directory given by --output-dir.

Examples:
  # Write invoice.disarmed.pdf next to the original
  safedocs sanitize invoice.pdf

  # Write disarmed copies into a separate directory
  safedocs sanitize --output-dir clean/ a.pdf b.docx

  # Overwrite existing disarmed copies
  safedocs sanitize -f invoice.pdf`,
		Args: cobra.ArbitraryArgs,
		RunE: runSanitizeCmd,
	}

	cmd.Flags().StringP("output-dir", "d", "",
		"Directory for disarmed copies (created if needed)")
	cmd.Flags().Int64P("max-file-size", "s", config.DefaultMaxFileSize,
		"Maximum document size in bytes")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing disarmed copies")

	return cmd
}

// runSanitizeCmd executes the sanitize command.
func runSanitizeCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no targets provided (specify one or more document paths as arguments)")
	}

	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	maxFileSize, err := cmd.Flags().GetInt64("max-file-size")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	engine := sanitize.NewEngine()
	ctx := context.Background()

	var failed int
	for _, target := range args {
		if err := sanitizeOne(ctx, engine, target, outputDir, maxFileSize, force, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Sanitize error for %s: %v\n", target, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents could not be sanitized", failed, len(args))
	}
	return nil
}

// sanitizeOne disarms a single document and writes the result.
func sanitizeOne(ctx context.Context, engine *sanitize.Engine, target, outputDir string, maxFileSize int64, force bool, logger *slog.Logger) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("file size %d exceeds limit %d", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return err
	}

	detection := format.Detect(filepath.Base(target), data)
	outcome := engine.Sanitize(ctx, detection.Kind, data)
	if !outcome.Succeeded {
		return fmt.Errorf("sanitization failed: %s", outcome.Reason)
	}

	dest := sanitizedPath(target, outputDir)
	if !force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("output already exists: %s (use -f to overwrite)", dest)
		}
	}

	if err := os.WriteFile(dest, outcome.Output, 0600); err != nil {
		return fmt.Errorf("failed to write disarmed copy: %w", err)
	}

	logger.Info("sanitized",
		"target", target,
		"format", detection.Kind.String(),
		"engine", outcome.EngineUsed,
		"removed", outcome.Removed,
		"dest", dest,
	)

	removed := "nothing removed"
	if len(outcome.Removed) > 0 {
		removed = "removed " + strings.Join(outcome.Removed, ", ")
	}
	fmt.Printf("%s -> %s (%s, %s)\n", target, dest, outcome.EngineUsed, removed)

	return nil
}

// sanitizedPath derives the destination path for a disarmed copy.
// "invoice.pdf" becomes "invoice.disarmed.pdf", placed in outputDir
// when one is given.
func sanitizedPath(target, outputDir string) string {
	base := filepath.Base(target)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext) + config.DefaultSanitizedSuffix + ext

	if outputDir != "" {
		return filepath.Join(outputDir, name)
	}
	return filepath.Join(filepath.Dir(target), name)
}
