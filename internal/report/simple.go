package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/safedocs/safedocs/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and severity grouping.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, report)

	// Verdict
	w.writeVerdict(&sb, report)

	// Severity summary
	w.writeSummary(&sb, report)

	// Findings by severity
	w.writeFindings(&sb, report)

	// Sanitization
	w.writeSanitization(&sb, report)

	// Recommendations
	w.writeRecommendations(&sb, report)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         SAFEDOCS SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("File:       %s\n", report.Filename))
	sb.WriteString(fmt.Sprintf("SHA-256:    %s\n", report.SHA256))
	sb.WriteString(fmt.Sprintf("Format:     %s\n", report.FormatName))
	sb.WriteString(fmt.Sprintf("Size:       %d bytes\n", report.Size))
	sb.WriteString(fmt.Sprintf("Scan Date:  %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST")))

	if report.TimedOut {
		sb.WriteString("Status:     TIMED OUT (partial results)\n")
	} else if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:     ERROR - %s\n", report.ErrorMessage))
	} else {
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writeVerdict writes the verdict and score section.
func (w *SimpleWriter) writeVerdict(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("VERDICT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Verdict:    %s\n", strings.ToUpper(report.Assessment.Verdict.String())))
	sb.WriteString(fmt.Sprintf("  Composite:  %.2f\n", report.Assessment.CompositeScore))
	sb.WriteString(fmt.Sprintf("  Rule score: %.2f\n", report.Assessment.RuleScore))
	if report.Assessment.Classifier.Available {
		sb.WriteString(fmt.Sprintf("  Classifier: %.2f\n", report.Assessment.Classifier.Probability))
	} else {
		sb.WriteString("  Classifier: unavailable\n")
	}
	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	// Create a visual summary
	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", report.CountBySeverity(model.SeverityCritical)))
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", report.CountBySeverity(model.SeverityHigh)))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", report.CountBySeverity(model.SeverityMedium)))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", report.CountBySeverity(model.SeverityLow)))
	sb.WriteString(fmt.Sprintf("  INFO:     %d\n", report.CountBySeverity(model.SeverityInfo)))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", len(report.Findings)))
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.ScanReport) {
	if len(report.Findings) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	// Write findings in order of severity (critical first)
	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := findingsBySeverity(report, severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	// Severity header with visual indicator
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Title))
		if finding.Location != "" {
			sb.WriteString(fmt.Sprintf("    Location: %s\n", finding.Location))
		}
		if w.verbose && finding.Description != "" {
			sb.WriteString(fmt.Sprintf("    Description: %s\n", finding.Description))
		}
		if w.verbose && finding.Impact != "" {
			sb.WriteString(fmt.Sprintf("    Impact: %s\n", finding.Impact))
		}
	}
	sb.WriteString("\n")
}

// writeSanitization writes the sanitization outcome section, if one ran.
func (w *SimpleWriter) writeSanitization(sb *strings.Builder, report *model.ScanReport) {
	s := report.Sanitization
	if s == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SANITIZATION\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if s.Succeeded {
		sb.WriteString(fmt.Sprintf("  Engine:     %s\n", s.EngineUsed))
	} else {
		sb.WriteString(fmt.Sprintf("  FAILED:     %s\n", s.Reason))
	}
	if len(s.Removed) > 0 {
		sb.WriteString(fmt.Sprintf("  Removed:    %s\n", strings.Join(s.Removed, ", ")))
	} else if s.Reason != "" && s.Succeeded {
		sb.WriteString(fmt.Sprintf("  Note:       %s\n", s.Reason))
	}

	if report.PostAssessment != nil {
		sb.WriteString(fmt.Sprintf("  Re-scan:    %s (composite %.2f)\n",
			strings.ToUpper(report.PostAssessment.Verdict.String()),
			report.PostAssessment.CompositeScore))
		sb.WriteString(fmt.Sprintf("  Delta risk: %+.2f\n", report.DeltaRisk))
	}
	sb.WriteString("\n")
}

// writeRecommendations writes the recommendation list, if any.
func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, report *model.ScanReport) {
	if len(report.Recommendations) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECOMMENDATIONS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, rec := range report.Recommendations {
		sb.WriteString(fmt.Sprintf("  * %s\n", rec))
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by safedocs\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// findingsBySeverity filters the report's findings at one severity level.
func findingsBySeverity(report *model.ScanReport, severity model.Severity) []model.Finding {
	var out []model.Finding
	for _, f := range report.Findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}
