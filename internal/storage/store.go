package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/safedocs/safedocs/internal/model"
)

// Artifact kinds stored alongside scan reports.
const (
	// ArtifactOriginal is the content as submitted for scanning.
	ArtifactOriginal = "original"

	// ArtifactSanitized is the content produced by the sanitizer chain.
	ArtifactSanitized = "sanitized"
)

// Store provides SQLite-based storage for scan reports and artifact content.
// It manages connection pooling and provides methods for CRUD operations.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "safedocs.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Scan reports store complete scan results as JSON.
	-- Reports are keyed by the content digest of the original bytes,
	-- so repeated submissions of identical content share one history.
	CREATE TABLE IF NOT EXISTS scan_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		filename TEXT,
		format TEXT,
		verdict TEXT NOT NULL,
		composite_score REAL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		severity_summary TEXT,
		UNIQUE(scan_id)
	);

	CREATE INDEX IF NOT EXISTS idx_reports_sha256 ON scan_reports(sha256);
	CREATE INDEX IF NOT EXISTS idx_reports_verdict ON scan_reports(verdict);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON scan_reports(timestamp);

	-- Artifacts store original and sanitized content keyed by the
	-- original content digest plus a kind discriminator.
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sha256 TEXT NOT NULL,
		kind TEXT NOT NULL,
		size INTEGER NOT NULL,
		content BLOB NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(sha256, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_sha256 ON artifacts(sha256);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveScanReport saves a complete scan report as JSON.
// When the report carries sanitized output, the original and sanitized
// bytes can be stored separately via SaveArtifact; the report row holds
// only the JSON document and its summary columns.
func (s *Store) SaveScanReport(ctx context.Context, report *model.ScanReport) error {
	// Serialize report to JSON
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	// Create severity summary
	severitySummary := map[string]int{
		"critical": report.CountBySeverity(model.SeverityCritical),
		"high":     report.CountBySeverity(model.SeverityHigh),
		"medium":   report.CountBySeverity(model.SeverityMedium),
		"low":      report.CountBySeverity(model.SeverityLow),
		"info":     report.CountBySeverity(model.SeverityInfo),
	}
	severityJSON, _ := json.Marshal(severitySummary) //nolint:errcheck,errchkjson // severitySummary is a simple map; Marshal won't fail

	query := `
	INSERT INTO scan_reports (scan_id, sha256, filename, format, verdict, composite_score, report_json, severity_summary)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(scan_id) DO UPDATE SET
		report_json = excluded.report_json,
		verdict = excluded.verdict,
		composite_score = excluded.composite_score,
		severity_summary = excluded.severity_summary,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err = s.db.ExecContext(ctx, query,
		report.ID,
		report.SHA256,
		report.Filename,
		report.FormatName,
		report.Assessment.Verdict.String(),
		report.Assessment.CompositeScore,
		string(reportJSON),
		string(severityJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}

	return nil
}

// GetLatestScanReport retrieves the most recent scan report for a content digest.
// Returns nil without error when the digest has never been scanned.
func (s *Store) GetLatestScanReport(ctx context.Context, sha256 string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE sha256 = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var reportJSON string
	err := s.db.QueryRowContext(ctx, query, sha256).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetScanReportByScanID retrieves a scan report by its scan identifier.
func (s *Store) GetScanReportByScanID(ctx context.Context, scanID string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE scan_id = ?
	`

	var reportJSON string
	err := s.db.QueryRowContext(ctx, query, scanID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListScannedDigests returns the distinct content digests that have been scanned.
func (s *Store) ListScannedDigests(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT sha256 FROM scan_reports
	ORDER BY sha256
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list digests: %w", err)
	}
	defer rows.Close()

	var digests []string
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		digests = append(digests, digest)
	}

	return digests, rows.Err()
}

// GetScanHistory retrieves all scan reports for a content digest.
func (s *Store) GetScanHistory(ctx context.Context, sha256 string) ([]*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE sha256 = ?
	ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, sha256)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var reports []*model.ScanReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.ScanReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ScanReportMetadata contains summary information about a scan report.
// This is used for displaying scan history without loading the full report.
type ScanReportMetadata struct {
	// ID is the unique identifier of the scan report in the database.
	ID int64

	// ScanID is the scan's external identifier.
	ScanID string

	// SHA256 is the content digest of the scanned bytes.
	SHA256 string

	// Filename is the declared name of the scanned file.
	Filename string

	// Verdict is the scan verdict as a string.
	Verdict string

	// Timestamp is when the scan was performed.
	Timestamp time.Time

	// SeveritySummary contains counts of findings by severity level.
	SeveritySummary map[string]int
}

// GetScanHistoryWithMetadata retrieves scan report metadata for a content digest.
// This is more efficient than GetScanHistory when only metadata is needed.
func (s *Store) GetScanHistoryWithMetadata(ctx context.Context, sha256 string) ([]ScanReportMetadata, error) {
	query := `
	SELECT id, scan_id, sha256, filename, verdict, timestamp, severity_summary
	FROM scan_reports
	WHERE sha256 = ?
	ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, sha256)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []ScanReportMetadata
	for rows.Next() {
		var meta ScanReportMetadata
		var timestamp string
		var severityJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.ScanID, &meta.SHA256, &meta.Filename, &meta.Verdict, &timestamp, &severityJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		// Parse timestamp
		meta.Timestamp = parseTimestamp(timestamp)

		// Parse severity summary
		if severityJSON.Valid && severityJSON.String != "" {
			if err := json.Unmarshal([]byte(severityJSON.String), &meta.SeveritySummary); err != nil {
				meta.SeveritySummary = make(map[string]int)
			}
		} else {
			meta.SeveritySummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// HasRecentScan checks if a content digest was scanned within the specified duration.
// Callers use this to skip re-scanning content that was recently assessed.
func (s *Store) HasRecentScan(ctx context.Context, sha256 string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM scan_reports
	WHERE sha256 = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := s.db.QueryRowContext(ctx, query, sha256, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent scan: %w", err)
	}

	return count > 0, nil
}

// SaveArtifact stores artifact content under the given original-content
// digest and kind. Re-saving the same (digest, kind) replaces the content.
func (s *Store) SaveArtifact(ctx context.Context, sha256, kind string, content []byte) error {
	query := `
	INSERT INTO artifacts (sha256, kind, size, content)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(sha256, kind) DO UPDATE SET
		size = excluded.size,
		content = excluded.content,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query, sha256, kind, int64(len(content)), content)
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}

	return nil
}

// GetArtifact retrieves artifact content by digest and kind.
// Returns nil without error when no such artifact exists.
func (s *Store) GetArtifact(ctx context.Context, sha256, kind string) ([]byte, error) {
	query := `
	SELECT content FROM artifacts
	WHERE sha256 = ? AND kind = ?
	`

	var content []byte
	err := s.db.QueryRowContext(ctx, query, sha256, kind).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	return content, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
