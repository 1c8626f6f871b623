package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/safedocs/safedocs/internal/model"
)

// setupTestStore creates a temporary store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	s, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

// testReport builds a minimal scan report for storage tests.
func testReport(scanID, sha256, verdictSource string) *model.ScanReport {
	report := &model.ScanReport{
		ID:          scanID,
		Filename:    "sample.pdf",
		ContentType: "application/pdf",
		SHA256:      sha256,
		Size:        1024,
		DateScanned: time.Now().UTC(),
		FormatName:  "pdf",
	}
	switch verdictSource {
	case "malicious":
		report.AddFinding(model.Finding{
			Type:     "pdf_js_auto",
			Severity: model.SeverityHigh,
			Title:    "JavaScript on document open",
		})
		report.Assessment = model.RiskAssessment{
			RuleScore:      0.65,
			CompositeScore: 0.65,
			Verdict:        model.VerdictMalicious,
		}
	default:
		report.Assessment = model.RiskAssessment{
			Verdict: model.VerdictBenign,
		}
	}
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()

		dbDir := filepath.Join(tmpDir, "newdir", "subdir")
		s, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer s.Close()

		// Check that database file exists
		dbPath := filepath.Join(dbDir, "safedocs.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "nonexistent-db")

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}

		// Verify error message is informative
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to mention missing database, got %q", err.Error())
		}

		// Verify database directory was NOT created
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "existing-db")

		// First create the database and persist a report
		s1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		ctx := context.Background()
		report := testReport("scan-persist", "aa11", "benign")
		if err := s1.SaveScanReport(ctx, report); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		s1.Close()

		// Now open with CreateIfNotExists=false
		openOpts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}
		s2, err := Open(dbDir, openOpts)
		if err != nil {
			t.Fatalf("failed to open existing store with CreateIfNotExists=false: %v", err)
		}
		defer s2.Close()

		// Verify data persists
		retrieved, err := s2.GetLatestScanReport(ctx, "aa11")
		if err != nil {
			t.Fatalf("failed to get report: %v", err)
		}
		if retrieved == nil {
			t.Error("expected report to exist in database")
		}
	})

	t.Run("CreateIfNotExists=false with directory but no db file", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "empty-dir")

		// Create the directory but not the database file
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when directory exists but database file does not")
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestScanReports tests scan report operations.
func TestScanReports(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("save and retrieve report", func(t *testing.T) {
		report := testReport("scan-1", "d1", "malicious")

		if err := s.SaveScanReport(ctx, report); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		retrieved, err := s.GetLatestScanReport(ctx, "d1")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if retrieved == nil {
			t.Fatal("expected report, got nil")
		}
		if retrieved.Assessment.Verdict != model.VerdictMalicious {
			t.Errorf("verdict = %v, want Malicious", retrieved.Assessment.Verdict)
		}
		if len(retrieved.Findings) != 1 {
			t.Errorf("expected 1 finding, got %d", len(retrieved.Findings))
		}
	})

	t.Run("upsert replaces report with same scan id", func(t *testing.T) {
		report := testReport("scan-upsert", "d2", "benign")
		if err := s.SaveScanReport(ctx, report); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		updated := testReport("scan-upsert", "d2", "malicious")
		if err := s.SaveScanReport(ctx, updated); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		retrieved, err := s.GetScanReportByScanID(ctx, "scan-upsert")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if retrieved == nil {
			t.Fatal("expected report, got nil")
		}
		if retrieved.Assessment.Verdict != model.VerdictMalicious {
			t.Errorf("verdict = %v, want Malicious after upsert", retrieved.Assessment.Verdict)
		}
	})

	t.Run("returns nil for non-existent digest", func(t *testing.T) {
		retrieved, err := s.GetLatestScanReport(ctx, "never-seen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if retrieved != nil {
			t.Error("expected nil for non-existent digest")
		}
	})

	t.Run("returns nil for non-existent scan id", func(t *testing.T) {
		retrieved, err := s.GetScanReportByScanID(ctx, "never-seen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if retrieved != nil {
			t.Error("expected nil for non-existent scan id")
		}
	})

	t.Run("list scanned digests", func(t *testing.T) {
		for i, digest := range []string{"list-a", "list-b"} {
			report := testReport(fmt.Sprintf("scan-list-%d", i), digest, "benign")
			if err := s.SaveScanReport(ctx, report); err != nil {
				t.Fatalf("failed to save: %v", err)
			}
		}

		digests, err := s.ListScannedDigests(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}

		// Should include the digests from previous subtests plus the two new ones
		if len(digests) < 2 {
			t.Errorf("expected at least 2 digests, got %d", len(digests))
		}
	})
}

// TestGetScanHistory tests retrieval of scan history for a digest.
func TestGetScanHistory(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("returns empty list for non-existent digest", func(t *testing.T) {
		history, err := s.GetScanHistory(ctx, "never-seen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d reports", len(history))
		}
	})

	t.Run("returns all scan reports for digest", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			report := testReport(fmt.Sprintf("scan-hist-%d", i), "hist-digest", "benign")
			if err := s.SaveScanReport(ctx, report); err != nil {
				t.Fatalf("failed to save report %d: %v", i, err)
			}
			// Small delay to ensure different timestamps
			time.Sleep(10 * time.Millisecond)
		}

		history, err := s.GetScanHistory(ctx, "hist-digest")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 3 {
			t.Errorf("expected 3 reports, got %d", len(history))
		}

		for _, report := range history {
			if report.SHA256 != "hist-digest" {
				t.Errorf("expected digest 'hist-digest', got %q", report.SHA256)
			}
		}
	})
}

// TestGetScanHistoryWithMetadata tests retrieval of scan history metadata.
func TestGetScanHistoryWithMetadata(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("returns empty list for non-existent digest", func(t *testing.T) {
		history, err := s.GetScanHistoryWithMetadata(ctx, "never-seen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d records", len(history))
		}
	})

	t.Run("returns metadata for all scans", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			report := testReport(fmt.Sprintf("scan-meta-%d", i), "meta-digest", "malicious")
			if err := s.SaveScanReport(ctx, report); err != nil {
				t.Fatalf("failed to save report %d: %v", i, err)
			}
			time.Sleep(10 * time.Millisecond)
		}

		history, err := s.GetScanHistoryWithMetadata(ctx, "meta-digest")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 3 {
			t.Errorf("expected 3 records, got %d", len(history))
		}

		// Verify metadata fields are populated
		for _, meta := range history {
			if meta.ID == 0 {
				t.Error("expected non-zero ID")
			}
			if meta.SHA256 != "meta-digest" {
				t.Errorf("expected 'meta-digest', got %q", meta.SHA256)
			}
			if meta.Verdict != "malicious" {
				t.Errorf("expected verdict 'malicious', got %q", meta.Verdict)
			}
			if meta.SeveritySummary == nil {
				t.Error("expected non-nil SeveritySummary")
			}
			if meta.SeveritySummary["high"] != 1 {
				t.Errorf("expected 1 high finding in summary, got %d", meta.SeveritySummary["high"])
			}
		}
	})
}

// TestHasRecentScan tests recent scan checking.
func TestHasRecentScan(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	report := testReport("scan-recent", "recent-digest", "benign")
	if err := s.SaveScanReport(ctx, report); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	t.Run("returns true for recent scan", func(t *testing.T) {
		hasRecent, err := s.HasRecentScan(ctx, "recent-digest", time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !hasRecent {
			t.Error("expected true for recently saved report")
		}
	})

	t.Run("returns false for non-existent digest", func(t *testing.T) {
		hasRecent, err := s.HasRecentScan(ctx, "never-seen", time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hasRecent {
			t.Error("expected false for non-existent digest")
		}
	})
}

// TestArtifacts tests artifact content storage.
func TestArtifacts(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("save and retrieve both kinds", func(t *testing.T) {
		original := []byte("%PDF-1.4 original bytes")
		sanitized := []byte("%PDF-1.4 sanitized bytes")

		if err := s.SaveArtifact(ctx, "art-digest", ArtifactOriginal, original); err != nil {
			t.Fatalf("failed to save original: %v", err)
		}
		if err := s.SaveArtifact(ctx, "art-digest", ArtifactSanitized, sanitized); err != nil {
			t.Fatalf("failed to save sanitized: %v", err)
		}

		got, err := s.GetArtifact(ctx, "art-digest", ArtifactOriginal)
		if err != nil {
			t.Fatalf("failed to get original: %v", err)
		}
		if string(got) != string(original) {
			t.Errorf("original content mismatch: %q", got)
		}

		got, err = s.GetArtifact(ctx, "art-digest", ArtifactSanitized)
		if err != nil {
			t.Fatalf("failed to get sanitized: %v", err)
		}
		if string(got) != string(sanitized) {
			t.Errorf("sanitized content mismatch: %q", got)
		}
	})

	t.Run("upsert replaces content", func(t *testing.T) {
		if err := s.SaveArtifact(ctx, "art-upsert", ArtifactSanitized, []byte("v1")); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := s.SaveArtifact(ctx, "art-upsert", ArtifactSanitized, []byte("v2")); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		got, err := s.GetArtifact(ctx, "art-upsert", ArtifactSanitized)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if string(got) != "v2" {
			t.Errorf("expected replaced content 'v2', got %q", got)
		}
	})

	t.Run("returns nil for missing artifact", func(t *testing.T) {
		got, err := s.GetArtifact(ctx, "never-seen", ArtifactOriginal)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Error("expected nil for missing artifact")
		}
	})
}

// TestParseTimestamp tests the multi-format timestamp parser.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantZero bool
	}{
		{"2026-08-30 12:34:56", false},
		{"2026-08-30T12:34:56Z", false},
		{"2026-08-30T12:34:56", false},
		{"2026-08-30 12:34:56.123", false},
		{"not a timestamp", true},
		{"", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.wantZero {
				t.Errorf("parseTimestamp(%q).IsZero() = %v, want %v", tt.input, got.IsZero(), tt.wantZero)
			}
		})
	}
}
