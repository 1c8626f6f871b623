package analyzer

import (
	"bytes"
	"context"
	"testing"

	"github.com/safedocs/safedocs/internal/model"
)

// TestRTFAnalyzerObjectData tests the classic \objdata exploit carrier.
func TestRTFAnalyzerObjectData(t *testing.T) {
	t.Parallel()

	doc := `{\rtf1\ansi {\object\objemb\objupdate{\*\objdata 0105000002000000}}}`
	a := NewRTFAnalyzer()
	res, err := a.Analyze(context.Background(), model.NewArtifact([]byte(doc), "resume.rtf", ""))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !hasFinding(res.Findings, "rtf_exploit") {
		t.Fatalf("expected rtf_exploit finding, got %+v", res.Findings)
	}
	for _, f := range res.Findings {
		if f.Type == "rtf_exploit" && f.Severity != model.SeverityHigh {
			t.Errorf("rtf_exploit severity = %v, expected High", f.Severity)
		}
	}
	if res.Score < 0.70 {
		t.Errorf("score = %.2f, expected >= 0.70", res.Score)
	}
}

// TestRTFAnalyzerDDEField tests DDE field instruction detection.
func TestRTFAnalyzerDDEField(t *testing.T) {
	t.Parallel()

	doc := `{\rtf1 {\field{\*\fldinst DDEAUTO c:\\windows\\system32\\cmd.exe "/k calc"}{\fldrslt }}}`
	a := NewRTFAnalyzer()
	res, err := a.Analyze(context.Background(), model.NewArtifact([]byte(doc), "memo.rtf", ""))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasFinding(res.Findings, "rtf_exploit") {
		t.Errorf("expected rtf_exploit finding for DDE field, got %+v", res.Findings)
	}
}

// TestRTFAnalyzerPlainDocument tests that formatted text scores benign.
func TestRTFAnalyzerPlainDocument(t *testing.T) {
	t.Parallel()

	doc := `{\rtf1\ansi\deff0 {\fonttbl{\f0 Times New Roman;}}\f0\fs24 Quarterly revenue is up.\par}`
	a := NewRTFAnalyzer()
	res, err := a.Analyze(context.Background(), model.NewArtifact([]byte(doc), "notes.rtf", ""))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if hasFinding(res.Findings, "rtf_exploit") {
		t.Errorf("unexpected rtf_exploit finding: %+v", res.Findings)
	}
	if res.Score >= 0.30 {
		t.Errorf("score = %.2f, expected < 0.30", res.Score)
	}
}

// TestRTFCodecRoundTrip tests that decode/encode preserves every byte
// value, including the high half the payload bytes live in.
func TestRTFCodecRoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	got := EncodeRTF(DecodeRTF(data, 0))
	if !bytes.Equal(got, data) {
		t.Error("decode/encode round trip altered bytes")
	}
}
