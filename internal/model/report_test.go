package model

import (
	"strings"
	"testing"
)

// TestNewArtifact tests artifact construction and identity.
func TestNewArtifact(t *testing.T) {
	t.Parallel()

	data := []byte("%PDF-1.7 test content")
	a := NewArtifact(data, "Invoice.PDF", "application/pdf")

	if a.Size != int64(len(data)) {
		t.Errorf("Size = %d, expected %d", a.Size, len(data))
	}
	if a.Extension() != ".pdf" {
		t.Errorf("Extension() = %q, expected %q", a.Extension(), ".pdf")
	}
	if len(a.SHA256) != 64 {
		t.Errorf("SHA256 length = %d, expected 64 hex chars", len(a.SHA256))
	}
	if a.SHA256 != HashBytes(data) {
		t.Error("artifact digest does not match HashBytes of the same content")
	}

	// Same content must hash identically; different content must not.
	b := NewArtifact([]byte("%PDF-1.7 test content"), "other.pdf", "")
	if a.SHA256 != b.SHA256 {
		t.Error("identical content produced different digests")
	}
	c := NewArtifact([]byte("different"), "other.pdf", "")
	if a.SHA256 == c.SHA256 {
		t.Error("different content produced the same digest")
	}
}

// TestScanReportAddFinding tests finding accumulation and severity counts.
func TestScanReportAddFinding(t *testing.T) {
	t.Parallel()

	r := &ScanReport{}
	r.AddFinding(NewFinding("office_macro", "VBA macro project", "", "word/vbaProject.bin"))
	r.AddFinding(NewFinding("suspicious_strings", "Suspicious strings", "powershell", ""))
	r.AddFinding(NewFinding("pdf_exploit_action", "Auto-launch action", "", "/Root/OpenAction"))

	if len(r.Findings) != 3 {
		t.Fatalf("len(Findings) = %d, expected 3", len(r.Findings))
	}
	if got := r.CountBySeverity(SeverityHigh); got != 1 {
		t.Errorf("CountBySeverity(High) = %d, expected 1", got)
	}
	if got := r.CountBySeverity(SeverityMedium); got != 1 {
		t.Errorf("CountBySeverity(Medium) = %d, expected 1", got)
	}
	if !r.HasCritical() {
		t.Error("HasCritical() = false, expected true")
	}
}

// TestNewFindingFillsMetadata tests that severity text, impact, and
// recommendation come from the central mapping.
func TestNewFindingFillsMetadata(t *testing.T) {
	t.Parallel()

	f := NewFinding("rtf_exploit", "RTF object embed", "\\objdata block", "")
	if f.Severity != SeverityHigh {
		t.Errorf("Severity = %v, expected %v", f.Severity, SeverityHigh)
	}
	if f.SeverityText != "HIGH" {
		t.Errorf("SeverityText = %q, expected %q", f.SeverityText, "HIGH")
	}
	if f.Impact == "" || f.Recommendation == "" {
		t.Error("expected impact and recommendation to be populated")
	}

	unknown := NewFinding("not_in_table", "something", "", "")
	if unknown.Severity != SeverityInfo {
		t.Errorf("unknown type severity = %v, expected Info", unknown.Severity)
	}
	if unknown.Impact != "" {
		t.Error("unknown type should not carry an impact description")
	}
}

// TestBuildRecommendations tests recommendation derivation and dedup.
func TestBuildRecommendations(t *testing.T) {
	t.Parallel()

	r := &ScanReport{Assessment: RiskAssessment{Verdict: VerdictMalicious}}
	r.AddFinding(NewFinding("pdf_js_auto", "OpenAction JavaScript", "", ""))
	r.AddFinding(NewFinding("pdf_names_js", "Named JavaScript", "", ""))
	r.BuildRecommendations()

	joined := strings.Join(r.Recommendations, "\n")
	if !strings.Contains(joined, "Do not open this file") {
		t.Errorf("missing malicious-verdict recommendation: %q", joined)
	}

	// Two JS findings must yield the viewer recommendation exactly once.
	count := strings.Count(joined, "Disable JavaScript in your PDF viewer.")
	if count != 1 {
		t.Errorf("JS recommendation appeared %d times, expected 1", count)
	}

	// Benign reports get no verdict recommendations.
	benign := &ScanReport{Assessment: RiskAssessment{Verdict: VerdictBenign}}
	benign.BuildRecommendations()
	if len(benign.Recommendations) != 0 {
		t.Errorf("benign report has %d recommendations, expected 0", len(benign.Recommendations))
	}
}

// TestFormatKindString tests format name resolution.
func TestFormatKindString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		kind     FormatKind
		expected string
	}{
		{FormatPDF, "pdf"},
		{FormatOOXML, "ooxml"},
		{FormatRTF, "rtf"},
		{FormatOLE, "ole"},
		{FormatUnknown, "unknown"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.kind.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.kind.String(), tc.expected)
			}
		})
	}
}

// TestOoxmlMIME tests OOXML subkind content types.
func TestOoxmlMIME(t *testing.T) {
	t.Parallel()

	if got := OoxmlMIME(OoxmlWordProcessing); !strings.Contains(got, "wordprocessingml") {
		t.Errorf("unexpected wordprocessing MIME: %q", got)
	}
	if got := OoxmlMIME(OoxmlSpreadsheet); !strings.Contains(got, "spreadsheetml") {
		t.Errorf("unexpected spreadsheet MIME: %q", got)
	}
}
