package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/safedocs/safedocs/internal/model"
)

// testReport builds a report with a representative mix of findings.
func testReport() *model.ScanReport {
	report := &model.ScanReport{
		ID:          "scan-0001",
		Filename:    "invoice.pdf",
		SHA256:      "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Format:      model.FormatPDF,
		FormatName:  "pdf",
		Size:        2048,
		DateScanned: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
	}

	report.AddFinding(model.Finding{
		Type:           "pdf_js_auto",
		Severity:       model.SeverityHigh,
		SeverityText:   model.SeverityHigh.String(),
		Title:          "JavaScript with automatic trigger",
		Description:    "The document contains JavaScript wired to an OpenAction trigger.",
		Location:       "object 7",
		Impact:         "Code executes as soon as the document is opened",
		Recommendation: "Open only the sanitized copy",
	})
	report.AddFinding(model.Finding{
		Type:         "pdf_launch",
		Severity:     model.SeverityMedium,
		SeverityText: model.SeverityMedium.String(),
		Title:        "Launch action present",
		Location:     "object 12",
	})
	report.AddFinding(model.Finding{
		Type:         "pdf_xmp_metadata",
		Severity:     model.SeverityInfo,
		SeverityText: model.SeverityInfo.String(),
		Title:        "Embedded XMP metadata",
	})

	report.Assessment = model.RiskAssessment{
		RuleScore:      0.65,
		CompositeScore: 0.65,
		Verdict:        model.VerdictMalicious,
		Classifier: model.ClassifierSignal{
			Available: false,
			Reason:    "no model configured",
		},
	}

	report.Sanitization = &model.SanitizationOutcome{
		EngineUsed:   "pdf_structural",
		Attempted:    []string{"pdf_structural"},
		Succeeded:    true,
		BytesChanged: true,
		Removed:      []string{"OpenAction", "JavaScript"},
		Output:       []byte("%PDF-1.7 sanitized"),
	}
	report.PostAssessment = &model.RiskAssessment{
		RuleScore:      0.0,
		CompositeScore: 0.0,
		Verdict:        model.VerdictBenign,
	}
	report.DeltaRisk = -0.65

	report.Recommendations = []string{
		"Do not open the original document",
		"Distribute the sanitized copy instead",
	}

	return report
}

// cleanReport builds a report with no findings at all.
func cleanReport() *model.ScanReport {
	return &model.ScanReport{
		ID:          "scan-0002",
		Filename:    "notes.docx",
		SHA256:      "aa0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Format:      model.FormatOOXML,
		FormatName:  "ooxml",
		Size:        512,
		DateScanned: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		Assessment: model.RiskAssessment{
			Verdict: model.VerdictBenign,
		},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes all report sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		n, err := w.Write(testReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"SAFEDOCS SCAN REPORT",
			"invoice.pdf",
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			"VERDICT",
			"MALICIOUS",
			"Composite:  0.65",
			"Classifier: unavailable",
			"SEVERITY SUMMARY",
			"TOTAL:    3 findings",
			"JavaScript with automatic trigger",
			"Location: object 7",
			"SANITIZATION",
			"pdf_structural",
			"OpenAction, JavaScript",
			"Delta risk: -0.65",
			"RECOMMENDATIONS",
			"Do not open the original document",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("omits findings section when report is clean", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(cleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if strings.Contains(out, "FINDINGS") {
			t.Error("expected no FINDINGS section for clean report")
		}
		if !strings.Contains(out, "BENIGN") {
			t.Error("expected BENIGN verdict")
		}
		if strings.Contains(out, "SANITIZATION") {
			t.Error("expected no SANITIZATION section when none ran")
		}
	})

	t.Run("verbose includes descriptions and impact", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "OpenAction trigger") {
			t.Error("verbose output missing description")
		}
		if !strings.Contains(out, "Impact: Code executes") {
			t.Error("verbose output missing impact")
		}
	})

	t.Run("non-verbose hides descriptions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "Description:") {
			t.Error("non-verbose output should not contain descriptions")
		}
	})

	t.Run("shows timeout status", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.TimedOut = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "TIMED OUT") {
			t.Error("expected TIMED OUT status")
		}
	})

	t.Run("shows error status", func(t *testing.T) {
		t.Parallel()

		report := cleanReport()
		report.ErrorMessage = "unreadable input"

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "ERROR - unreadable input") {
			t.Error("expected error status line")
		}
	})

	t.Run("shows available classifier probability", func(t *testing.T) {
		t.Parallel()

		report := testReport()
		report.Assessment.Classifier = model.ClassifierSignal{
			Probability: 0.82,
			Available:   true,
		}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "Classifier: 0.82") {
			t.Error("expected classifier probability in output")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid compact JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		n, err := w.Write(testReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		var decoded model.ScanReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Filename != "invoice.pdf" {
			t.Errorf("Filename = %q", decoded.Filename)
		}
		if len(decoded.Findings) != 3 {
			t.Errorf("expected 3 findings, got %d", len(decoded.Findings))
		}
		if decoded.Assessment.Verdict != model.VerdictMalicious {
			t.Errorf("Verdict = %v", decoded.Assessment.Verdict)
		}
	})

	t.Run("sanitized content is excluded from JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(testReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "sanitized") && strings.Contains(buf.String(), "%PDF-1.7") {
			t.Error("sanitized bytes leaked into JSON output")
		}
	})

	t.Run("pretty print produces indented output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(testReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented JSON output")
		}
	})

	t.Run("output ends with newline", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(cleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			t.Error("expected trailing newline")
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewFullJSONWriter(&buf, "1.2.3")

	if _, err := w.Write(testReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wrapped JSONReport
	if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if wrapped.Version != "1.2.3" {
		t.Errorf("Version = %q", wrapped.Version)
	}
	if wrapped.Report == nil || wrapped.Report.Filename != "invoice.pdf" {
		t.Error("wrapped report missing or incomplete")
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes all report sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(testReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Safedocs Scan Report",
			"`invoice.pdf`",
			"## Verdict",
			"**MALICIOUS**",
			"## Severity Summary",
			"## Findings",
			"JavaScript with automatic trigger",
			"## Sanitization",
			"pdf_structural",
			"## Recommendations",
			"Do not open the original document",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("includes pie chart when findings exist", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(testReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "```mermaid") {
			t.Error("expected mermaid pie chart block")
		}
	})

	t.Run("clean report has no pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(cleanReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if strings.Contains(out, "```mermaid") {
			t.Error("expected no pie chart for clean report")
		}
		if !strings.Contains(out, "No security findings detected.") {
			t.Error("expected clean findings message")
		}
	})
}

// failingWriter always returns an error from Write.
type failingWriter struct{}

func (failingWriter) Write(*model.ScanReport) (int, error) {
	return 0, errors.New("write failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		n, err := mw.Write(cleanReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf1.Len()+buf2.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf1.Len()+buf2.Len())
		}
		if buf1.Len() == 0 || buf2.Len() == 0 {
			t.Error("expected output in both buffers")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))

		if _, err := mw.Write(cleanReport()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("expected no output after failed writer")
		}
	})

	t.Run("no writers is a no-op", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(cleanReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes, got %d", n)
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "shorter than limit", input: "abc", maxLen: 10, want: "abc"},
		{name: "exactly at limit", input: "abcde", maxLen: 5, want: "abcde"},
		{name: "truncated with ellipsis", input: "abcdefghij", maxLen: 8, want: "abcde..."},
		{name: "tiny limit", input: "abcdef", maxLen: 3, want: "abc"},
		{name: "empty string", input: "", maxLen: 5, want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
