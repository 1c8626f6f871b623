package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/safedocs/safedocs/internal/config"
	"github.com/safedocs/safedocs/internal/model"
	"github.com/safedocs/safedocs/internal/storage"
	"github.com/spf13/cobra"
)

// Constants for risk direction and summary messages.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
	noFindingsMessage      = "No findings"
)

// hexDigestRe matches a full SHA-256 hex digest.
var hexDigestRe = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// NewCompareCmd creates the compare command.
// This command compares scan results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [file-or-digest]",
		Short: "Compare scan results with historical data",
		Long: `Compare displays differences between the current and previous scan results
for a document.

The target may be a file path (its content is hashed) or a SHA-256 digest
from an earlier scan. The comparison requires at least two scans of the
same content in the database. Use 'safedocs scan' to perform scans and
save results.

This command retrieves historical scan data from the database and shows:
- New findings that appeared since the last scan
- Resolved findings that are no longer present
- Changes in risk severity levels

Examples:
  # Compare latest two scans of a document
  safedocs compare invoice.pdf

  # List all scan history for a document
  safedocs compare --list invoice.pdf

  # Compare with a specific historical scan by its scan ID
  safedocs compare --with-scan-id 0b6c1a2e-... invoice.pdf

  # Compare scans since a specific date
  safedocs compare --since "2025-01-01" invoice.pdf

  # Output comparison in JSON format
  safedocs compare --json invoice.pdf

  # List all scanned documents in the database
  safedocs compare --list-files`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List scan history for the specified document")
	cmd.Flags().BoolP("list-files", "L", false,
		"List all scanned documents in the database")

	// Comparison target flags
	cmd.Flags().StringP("with-scan-id", "i", "",
		"Compare with a specific scan by its scan ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first scan after this date (format: YYYY-MM-DD)")

	// Storage flags
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-files flag first (requires database but no target)
	listFiles, err := cmd.Flags().GetBool("list-files")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-files)
	// This prevents database lock issues when validation fails
	var digest string
	if !listFiles {
		if len(args) == 0 {
			return errors.New("document path or digest is required (use --list-files to see scanned documents)")
		}

		digest, err = resolveDigest(args[0])
		if err != nil {
			return err
		}
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Open database without creating it: compare is read-only and an
	// empty database has nothing to compare
	opts := storage.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := storage.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Handle --list-files flag
	if listFiles {
		return listScannedFiles(ctx, store)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listScanHistory(ctx, store, digest)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withScanID, err := cmd.Flags().GetString("with-scan-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, store, digest, withScanID, sinceDate, jsonOutput, markdownOutput)
}

// resolveDigest turns a target into a content digest. A 64-character hex
// string is used as-is; anything else is treated as a file path whose
// content is hashed.
func resolveDigest(target string) (string, error) {
	if hexDigestRe.MatchString(target) {
		return strings.ToLower(target), nil
	}

	f, err := os.Open(target)
	if err != nil {
		return "", fmt.Errorf("cannot resolve target %q: %w", target, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("cannot hash %q: %w", target, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// listScannedFiles lists all documents that have scan records in the database.
func listScannedFiles(ctx context.Context, store *storage.Store) error {
	digests, err := store.ListScannedDigests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(digests) == 0 {
		fmt.Println("No scanned documents found in the database.")
		fmt.Println("\nUse 'safedocs scan <file>' to scan a document.")
		return nil
	}

	fmt.Printf("Scanned documents (%d):\n\n", len(digests))
	for _, digest := range digests {
		fmt.Printf("  • %s\n", digest)
	}
	fmt.Println("\nUse 'safedocs compare --list <digest>' to see scan history for a document.")

	return nil
}

// listScanHistory lists all scan records for a specific content digest.
func listScanHistory(ctx context.Context, store *storage.Store, digest string) error {
	reports, err := store.GetScanHistoryWithMetadata(ctx, digest)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(reports) == 0 {
		fmt.Printf("No scan history found for %s\n", digest)
		fmt.Println("\nUse 'safedocs scan' to scan this document.")
		return nil
	}

	fmt.Printf("Scan history for %s (%d scans):\n\n", digest, len(reports))
	fmt.Printf("  %-38s  %-20s  %-10s  %s\n", "Scan ID", "Date", "Verdict", "Severity Summary")
	fmt.Println("  " + strings.Repeat("-", 90))

	for _, meta := range reports {
		fmt.Printf("  %-38s  %-20s  %-10s  %s\n",
			meta.ScanID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Verdict,
			formatSeveritySummary(meta.SeveritySummary),
		)
	}

	fmt.Println("\nUse 'safedocs compare <file>' to compare the latest two scans.")
	fmt.Println("Use 'safedocs compare --with-scan-id <id> <file>' to compare with a specific scan.")

	return nil
}

// formatSeveritySummary formats the severity summary map into a human-readable string.
func formatSeveritySummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := summary["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}
	if v := summary["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between scan reports.
func runComparison(ctx context.Context, store *storage.Store, digest, withScanID, sinceDate string, jsonOutput, markdownOutput bool) error {
	// Get the scan history
	reports, err := store.GetScanHistory(ctx, digest)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no scan history found for %s", digest)
	}

	if len(reports) < 2 && withScanID == "" && sinceDate == "" {
		return fmt.Errorf("at least 2 scans are required for comparison (found %d)", len(reports))
	}

	// Determine which reports to compare
	var currentReport, previousReport *model.ScanReport

	// Latest report is always the current one
	currentReport = reports[0]

	if withScanID != "" {
		// Find the report with the specified scan ID
		previousReport, err = store.GetScanReportByScanID(ctx, withScanID)
		if err != nil {
			return fmt.Errorf("failed to get scan %s: %w", withScanID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("scan %s not found", withScanID)
		}
		// Validate that the scan belongs to the same content
		if previousReport.SHA256 != digest {
			return fmt.Errorf("scan %s belongs to digest %s, not %s", withScanID, previousReport.SHA256, digest)
		}
	} else if sinceDate != "" {
		// Parse the date and find the first (oldest) report at or after the specified date
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Reports are sorted by timestamp DESC (newest first), so iterate in reverse
		// to find the first (oldest) report at or after the date
		for i := len(reports) - 1; i >= 0; i-- {
			r := reports[i]
			if r.DateScanned.After(parsedDate) || r.DateScanned.Equal(parsedDate) {
				previousReport = r
				break // Stop at the first (oldest) matching report
			}
		}
		if previousReport == nil {
			return fmt.Errorf("no scans found since %s", sinceDate)
		}
		// If only one scan matches and it's the current report, we can't compare
		if previousReport == currentReport {
			return fmt.Errorf("only one scan found since %s; at least 2 scans are required for comparison", sinceDate)
		}
	} else {
		// Default: compare with the previous scan
		previousReport = reports[1]
	}

	// Generate comparison result
	comparison := compareReports(previousReport, currentReport)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two scan reports.
type ComparisonResult struct {
	// SHA256 is the content digest of the compared document.
	SHA256 string `json:"sha256"`

	// Filename is the name the document carried in the latest scan.
	Filename string `json:"filename"`

	// PreviousScan contains metadata about the previous scan.
	PreviousScan ScanMetadata `json:"previous_scan"`

	// CurrentScan contains metadata about the current scan.
	CurrentScan ScanMetadata `json:"current_scan"`

	// NewFindings contains findings that are new in the current scan.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings that were in the previous scan but not in current.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// RiskChange describes the overall change in risk level.
	RiskChange RiskChange `json:"risk_change"`
}

// ScanMetadata contains metadata about a scan for comparison display.
type ScanMetadata struct {
	// ScanID identifies the scan.
	ScanID string `json:"scan_id"`

	// DateScanned is when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// Verdict is the scan's final classification.
	Verdict string `json:"verdict"`

	// CompositeScore is the scan's final risk score.
	CompositeScore float64 `json:"composite_score"`

	// TotalFindings is the total number of findings in this scan.
	TotalFindings int `json:"total_findings"`

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`
}

// RiskChange describes the change in risk level between scans.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// CompositeDelta is the change in composite risk score.
	CompositeDelta float64 `json:"composite_delta"`

	// CriticalDelta is the change in critical findings count.
	CriticalDelta int `json:"critical_delta"`

	// HighDelta is the change in high severity findings count.
	HighDelta int `json:"high_delta"`

	// MediumDelta is the change in medium severity findings count.
	MediumDelta int `json:"medium_delta"`

	// LowDelta is the change in low severity findings count.
	LowDelta int `json:"low_delta"`

	// InfoDelta is the change in informational findings count.
	InfoDelta int `json:"info_delta"`
}

// scanMetadata extracts comparison metadata from a report.
func scanMetadata(r *model.ScanReport) ScanMetadata {
	return ScanMetadata{
		ScanID:         r.ID,
		DateScanned:    r.DateScanned,
		Verdict:        r.Assessment.Verdict.String(),
		CompositeScore: r.Assessment.CompositeScore,
		TotalFindings:  len(r.Findings),
		CriticalCount:  r.CountBySeverity(model.SeverityCritical),
		HighCount:      r.CountBySeverity(model.SeverityHigh),
		MediumCount:    r.CountBySeverity(model.SeverityMedium),
		LowCount:       r.CountBySeverity(model.SeverityLow),
		InfoCount:      r.CountBySeverity(model.SeverityInfo),
	}
}

// compareReports compares two scan reports and generates a comparison result.
func compareReports(previous, current *model.ScanReport) *ComparisonResult {
	result := &ComparisonResult{
		SHA256:       current.SHA256,
		Filename:     current.Filename,
		PreviousScan: scanMetadata(previous),
		CurrentScan:  scanMetadata(current),
	}

	// Build finding maps for comparison
	previousFindings := make(map[string]model.Finding)
	currentFindings := make(map[string]model.Finding)

	for _, f := range previous.Findings {
		previousFindings[findingKey(f)] = f
	}
	for _, f := range current.Findings {
		currentFindings[findingKey(f)] = f
	}

	// Find new findings (in current but not in previous)
	for key, finding := range currentFindings {
		if _, exists := previousFindings[key]; !exists {
			result.NewFindings = append(result.NewFindings, finding)
		}
	}

	// Find resolved findings (in previous but not in current)
	for key, finding := range previousFindings {
		if _, exists := currentFindings[key]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, finding)
		} else {
			result.UnchangedCount++
		}
	}

	// Calculate risk change
	result.RiskChange = calculateRiskChange(result.PreviousScan, result.CurrentScan)

	return result
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Title + "|" + f.Location
}

// calculateRiskChange calculates the change in risk between two scans.
func calculateRiskChange(previous, current ScanMetadata) RiskChange {
	change := RiskChange{
		CompositeDelta: current.CompositeScore - previous.CompositeScore,
		CriticalDelta:  current.CriticalCount - previous.CriticalCount,
		HighDelta:      current.HighCount - previous.HighCount,
		MediumDelta:    current.MediumCount - previous.MediumCount,
		LowDelta:       current.LowCount - previous.LowCount,
		InfoDelta:      current.InfoCount - previous.InfoCount,
	}

	// Determine overall direction based on weighted score
	// Critical and High severity changes have more weight
	previousScore := previous.CriticalCount*100 + previous.HighCount*50 + previous.MediumCount*10 + previous.LowCount*5 + previous.InfoCount
	currentScore := current.CriticalCount*100 + current.HighCount*50 + current.MediumCount*10 + current.LowCount*5 + current.InfoCount

	if currentScore < previousScore {
		change.Direction = riskDirectionImproved
	} else if currentScore > previousScore {
		change.Direction = riskDirectionWorsened
	} else {
		change.Direction = riskDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Scan Comparison: %s\n\n", result.Filename)
	fmt.Printf("SHA-256: `%s`\n\n", result.SHA256)

	// Risk change summary
	fmt.Println("## Summary")
	fmt.Printf("\n**Risk Status:** %s\n\n", formatRiskDirection(result.RiskChange.Direction))

	// Scan metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousScan.DateScanned.Format("2006-01-02 15:04"),
		result.CurrentScan.DateScanned.Format("2006-01-02 15:04"))
	fmt.Printf("| Verdict | %s | %s | - |\n",
		result.PreviousScan.Verdict,
		result.CurrentScan.Verdict)
	fmt.Printf("| Composite | %.2f | %.2f | %+.2f |\n",
		result.PreviousScan.CompositeScore,
		result.CurrentScan.CompositeScore,
		result.RiskChange.CompositeDelta)
	fmt.Printf("| Critical | %d | %d | %s |\n",
		result.PreviousScan.CriticalCount,
		result.CurrentScan.CriticalCount,
		formatDelta(result.RiskChange.CriticalDelta))
	fmt.Printf("| High | %d | %d | %s |\n",
		result.PreviousScan.HighCount,
		result.CurrentScan.HighCount,
		formatDelta(result.RiskChange.HighDelta))
	fmt.Printf("| Medium | %d | %d | %s |\n",
		result.PreviousScan.MediumCount,
		result.CurrentScan.MediumCount,
		formatDelta(result.RiskChange.MediumDelta))
	fmt.Printf("| Low | %d | %d | %s |\n",
		result.PreviousScan.LowCount,
		result.CurrentScan.LowCount,
		formatDelta(result.RiskChange.LowDelta))
	fmt.Printf("| Info | %d | %d | %s |\n",
		result.PreviousScan.InfoCount,
		result.CurrentScan.InfoCount,
		formatDelta(result.RiskChange.InfoDelta))
	fmt.Printf("| **Total** | **%d** | **%d** | **%s** |\n",
		result.PreviousScan.TotalFindings,
		result.CurrentScan.TotalFindings,
		formatDelta(result.CurrentScan.TotalFindings-result.PreviousScan.TotalFindings))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("- **[%s]** %s\n", f.SeverityText, f.Title)
			if f.Location != "" {
				fmt.Printf("  - Location: `%s`\n", f.Location)
			}
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\n## Resolved Findings (%d)\n\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("- ~~**[%s]** %s~~\n", f.SeverityText, f.Title)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d findings unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Scan Comparison: %s\n", result.Filename)
	fmt.Printf("SHA-256: %s\n", result.SHA256)
	fmt.Println(strings.Repeat("=", 60))

	// Risk change summary
	fmt.Printf("\nRisk Status: %s\n", formatRiskDirection(result.RiskChange.Direction))

	// Scan dates and verdicts
	fmt.Printf("\nPrevious scan: %s  [%s, composite %.2f]\n",
		result.PreviousScan.DateScanned.Format("2006-01-02 15:04:05"),
		strings.ToUpper(result.PreviousScan.Verdict),
		result.PreviousScan.CompositeScore)
	fmt.Printf("Current scan:  %s  [%s, composite %.2f]\n",
		result.CurrentScan.DateScanned.Format("2006-01-02 15:04:05"),
		strings.ToUpper(result.CurrentScan.Verdict),
		result.CurrentScan.CompositeScore)

	// Summary table
	fmt.Println("\nFindings Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Critical",
		result.PreviousScan.CriticalCount, result.CurrentScan.CriticalCount,
		formatDelta(result.RiskChange.CriticalDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "High",
		result.PreviousScan.HighCount, result.CurrentScan.HighCount,
		formatDelta(result.RiskChange.HighDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Medium",
		result.PreviousScan.MediumCount, result.CurrentScan.MediumCount,
		formatDelta(result.RiskChange.MediumDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Low",
		result.PreviousScan.LowCount, result.CurrentScan.LowCount,
		formatDelta(result.RiskChange.LowDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Info",
		result.PreviousScan.InfoCount, result.CurrentScan.InfoCount,
		formatDelta(result.RiskChange.InfoDelta))
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousScan.TotalFindings, result.CurrentScan.TotalFindings,
		formatDelta(result.CurrentScan.TotalFindings-result.PreviousScan.TotalFindings))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] [%s] %s\n", f.SeverityText, f.Title)
			if f.Location != "" {
				fmt.Printf("      Location: %s\n", f.Location)
			}
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("  [-] [%s] %s\n", f.SeverityText, f.Title)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (risk decreased)"
	case riskDirectionWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
