package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/safedocs/safedocs/internal/config"
	"github.com/safedocs/safedocs/internal/storage"
)

const benignPDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [] /Count 0 >>
endobj
trailer
%%EOF
`

const maliciousPDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R /OpenAction 3 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [] /Count 0 >>
endobj
3 0 obj
<< /S /JavaScript /JS (app.alert('x')) >>
endobj
trailer
%%EOF
`

// quietLogger returns a logger that discards all output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNewScanCmd tests the scan command flag definitions.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [file]..." {
			t.Errorf("expected use 'scan [file]...', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"timeout", "max-file-size", "type", "model", "batch",
			"config", "db-dir", "no-db", "keep-original",
			"json", "markdown", "output",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})

	t.Run("timeout defaults to config default", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag.DefValue != config.DefaultTimeout.String() {
			t.Errorf("expected default %q, got %q", config.DefaultTimeout, flag.DefValue)
		}
	})
}

// TestBuildConfig tests translating flags into a Config.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults with targets", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		cfg, err := buildConfig(cmd, []string{"a.pdf", "b.docx"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Targets) != 2 {
			t.Errorf("expected 2 targets, got %d", len(cfg.Targets))
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("Timeout = %v", cfg.Timeout)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB by default")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to default to XDG data dir")
		}
	})

	t.Run("no-db disables persistence", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		if err := cmd.Flags().Set("no-db", "true"); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"a.pdf"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false")
		}
	})

	t.Run("explicit missing config file errors", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}

		if _, err := buildConfig(cmd, []string{"a.pdf"}); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})

	t.Run("config file values are applied", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cfg.yaml")
		content := "modelPath: /models/m.json\nbatchSize: 3\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewScanCmd()
		if err := cmd.Flags().Set("config", path); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"a.pdf"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ModelPath != "/models/m.json" {
			t.Errorf("ModelPath = %q", cfg.ModelPath)
		}
		if cfg.BatchSize != 3 {
			t.Errorf("BatchSize = %d", cfg.BatchSize)
		}
	})
}

// TestBuildItems tests per-format skip rules applied to targets.
func TestBuildItems(t *testing.T) {
	t.Parallel()

	t.Run("all targets without skip rules", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Targets = []string{"a.pdf", "b.docx", "c.rtf"}
		cfg.FileConfigs = &config.File{Formats: map[string]config.FormatConfig{}}

		items := buildItems(cfg, quietLogger())
		if len(items) != 3 {
			t.Errorf("expected 3 items, got %d", len(items))
		}
	})

	t.Run("skips configured format", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Targets = []string{"a.pdf", "c.rtf"}
		cfg.FileConfigs = &config.File{
			Formats: map[string]config.FormatConfig{
				"rtf": {Skip: true},
			},
		}

		items := buildItems(cfg, quietLogger())
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		if items[0].Path != "a.pdf" {
			t.Errorf("expected a.pdf to survive, got %q", items[0].Path)
		}
	})

	t.Run("declared type applied to items", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Targets = []string{"a.pdf"}
		cfg.DeclaredType = "application/pdf"

		items := buildItems(cfg, quietLogger())
		if len(items) != 1 || items[0].DeclaredType != "application/pdf" {
			t.Error("expected declared type on item")
		}
	})
}

// TestRunScanEndToEnd runs a full scan of a malicious fixture through
// the command path: pipeline, persistence, and report output.
func TestRunScanEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "evil.pdf")
	if err := os.WriteFile(target, []byte(maliciousPDF), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	reportFile := filepath.Join(dir, "out", "report.json")

	cfg := config.NewConfig()
	cfg.Targets = []string{target}
	cfg.Timeout = 30 * time.Second
	cfg.BatchSize = 1
	cfg.SaveToDB = true
	cfg.DBDir = filepath.Join(dir, "db")
	cfg.JSONReport = true
	cfg.ReportFile = reportFile
	cfg.FileConfigs = &config.File{Formats: map[string]config.FormatConfig{}}

	if err := runScan(context.Background(), cfg, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The report file carries the versioned JSON wrapper
	data, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	var wrapped struct {
		Version string `json:"version"`
		Report  struct {
			SHA256 string `json:"sha256"`
			Assessment struct {
				Verdict string `json:"verdict"`
			} `json:"assessment"`
		} `json:"report"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if wrapped.Report.Assessment.Verdict != "malicious" {
		t.Errorf("Verdict = %q", wrapped.Report.Assessment.Verdict)
	}

	// The scan was persisted
	opts := storage.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := storage.Open(cfg.DBDir, opts)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	saved, err := store.GetLatestScanReport(context.Background(), wrapped.Report.SHA256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil {
		t.Fatal("expected persisted report")
	}
	if !strings.HasSuffix(saved.Filename, "evil.pdf") {
		t.Errorf("Filename = %q", saved.Filename)
	}
}
