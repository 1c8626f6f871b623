package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/safedocs/safedocs/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, report)

	// Verdict and summary
	w.writeSummary(md, report)

	// Findings by severity
	w.writeFindings(md, report)

	// Sanitization
	w.writeSanitization(md, report)

	// Recommendations
	w.writeRecommendations(md, report)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Safedocs Scan Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"File", "`" + report.Filename + "`"},
			{"SHA-256", "`" + report.SHA256 + "`"},
			{"Format", report.FormatName},
			{"Size", strconv.FormatInt(report.Size, 10) + " bytes"},
			{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.ScanReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the verdict and severity summary sections.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Verdict")
	md.PlainText("")

	classifier := "unavailable"
	if report.Assessment.Classifier.Available {
		classifier = fmt.Sprintf("%.2f", report.Assessment.Classifier.Probability)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Signal", "Value"},
		Rows: [][]string{
			{"Verdict", "**" + strings.ToUpper(report.Assessment.Verdict.String()) + "**"},
			{"Composite Score", fmt.Sprintf("%.2f", report.Assessment.CompositeScore)},
			{"Rule Score", fmt.Sprintf("%.2f", report.Assessment.RuleScore)},
			{"Classifier", classifier},
		},
	})
	md.PlainText("")

	// Add alert based on verdict
	w.writeAlert(md, report)

	md.H2("Severity Summary")
	md.PlainText("")

	critical := report.CountBySeverity(model.SeverityCritical)
	high := report.CountBySeverity(model.SeverityHigh)
	medium := report.CountBySeverity(model.SeverityMedium)
	low := report.CountBySeverity(model.SeverityLow)
	info := report.CountBySeverity(model.SeverityInfo)

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(critical)},
			{"🟠 High", strconv.Itoa(high)},
			{"🟡 Medium", strconv.Itoa(medium)},
			{"🔵 Low", strconv.Itoa(low)},
			{"⚪ Info", strconv.Itoa(info)},
			{"**Total**", "**" + strconv.Itoa(len(report.Findings)) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if there are findings
	if len(report.Findings) > 0 {
		w.writePieChart(md, critical, high, medium, low, info)
	}
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, critical, high, medium, low, info int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if critical > 0 {
		chart.LabelAndIntValue("Critical", uint64(critical))
	}
	if high > 0 {
		chart.LabelAndIntValue("High", uint64(high))
	}
	if medium > 0 {
		chart.LabelAndIntValue("Medium", uint64(medium))
	}
	if low > 0 {
		chart.LabelAndIntValue("Low", uint64(low))
	}
	if info > 0 {
		chart.LabelAndIntValue("Info", uint64(info))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the verdict.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	switch report.Assessment.Verdict {
	case model.VerdictMalicious:
		md.Cautionf(
			"This file is malicious (composite score %.2f). Do not open the original.",
			report.Assessment.CompositeScore,
		)
	case model.VerdictSuspicious:
		md.Warningf(
			"This file is suspicious (composite score %.2f). Review the findings before opening.",
			report.Assessment.CompositeScore,
		)
	default:
		if len(report.Findings) > 0 {
			md.Note("Only low-signal findings were detected.")
		} else {
			md.Tip("No dangerous constructs detected.")
		}
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Findings")
	md.PlainText("")

	if len(report.Findings) == 0 {
		md.PlainText("No security findings detected.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := findingsBySeverity(report, sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Type", "Title", "Location", "Recommendation"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		location := f.Location
		if location == "" {
			location = "-"
		}
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			"`" + f.Type + "`",
			f.Title,
			truncateString(location, 40),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	// Add detailed descriptions for all findings
	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeSanitization writes the sanitization section, if one ran.
func (w *MarkdownWriter) writeSanitization(md *markdown.Markdown, report *model.ScanReport) {
	s := report.Sanitization
	if s == nil {
		return
	}

	md.H2("Sanitization")
	md.PlainText("")

	removed := "-"
	if len(s.Removed) > 0 {
		removed = strings.Join(s.Removed, ", ")
	}
	outcome := "✅ Succeeded"
	if !s.Succeeded {
		outcome = "❌ Failed - " + s.Reason
	}

	rows := [][]string{
		{"Outcome", outcome},
		{"Engine", s.EngineUsed},
		{"Attempted", strings.Join(s.Attempted, ", ")},
		{"Removed", removed},
	}
	if report.PostAssessment != nil {
		rows = append(rows,
			[]string{"Re-scan Verdict", strings.ToUpper(report.PostAssessment.Verdict.String())},
			[]string{"Delta Risk", fmt.Sprintf("%+.2f", report.DeltaRisk)},
		)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRecommendations writes the recommendation list, if any.
func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, report *model.ScanReport) {
	if len(report.Recommendations) == 0 {
		return
	}

	md.H2("Recommendations")
	md.PlainText("")
	md.BulletList(report.Recommendations...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by safedocs*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
