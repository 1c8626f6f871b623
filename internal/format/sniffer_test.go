package format

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/safedocs/safedocs/internal/model"
)

// buildZip creates an in-memory zip with the given member names.
func buildZip(t *testing.T, names ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip member %q: %v", name, err)
		}
		if _, err := w.Write([]byte("x")); err != nil {
			t.Fatalf("write zip member %q: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// TestDetectByExtension tests extension-driven format resolution.
func TestDetectByExtension(t *testing.T) {
	t.Parallel()

	docx := buildZip(t, "[Content_Types].xml", "word/document.xml")

	testCases := []struct {
		name     string
		filename string
		data     []byte
		expected model.FormatKind
		subkind  model.OoxmlSubkind
	}{
		{"pdf extension", "report.pdf", []byte("%PDF-1.4\n"), model.FormatPDF, model.OoxmlUnknown},
		{"uppercase extension", "REPORT.PDF", []byte("%PDF-1.4\n"), model.FormatPDF, model.OoxmlUnknown},
		{"rtf extension", "letter.rtf", []byte("{\\rtf1\\ansi}"), model.FormatRTF, model.OoxmlUnknown},
		{"docx extension", "memo.docx", docx, model.FormatOOXML, model.OoxmlWordProcessing},
		{"macro-enabled docm", "memo.docm", docx, model.FormatOOXML, model.OoxmlWordProcessing},
		{"pptx extension", "deck.pptx", buildZip(t, "[Content_Types].xml", "ppt/presentation.xml"), model.FormatOOXML, model.OoxmlPresentation},
		{"xlsx extension", "sheet.xlsx", buildZip(t, "[Content_Types].xml", "xl/workbook.xml"), model.FormatOOXML, model.OoxmlSpreadsheet},
		{"legacy doc", "old.doc", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}, model.FormatOLE, model.OoxmlUnknown},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := Detect(tc.filename, tc.data)
			if d.Kind != tc.expected {
				t.Errorf("Detect(%q) kind = %v, expected %v", tc.filename, d.Kind, tc.expected)
			}
			if d.Kind == model.FormatOOXML && d.Ooxml != tc.subkind {
				t.Errorf("Detect(%q) subkind = %v, expected %v", tc.filename, d.Ooxml, tc.subkind)
			}
		})
	}
}

// TestDetectByMagic tests magic-byte fallback for renamed or
// extensionless files.
func TestDetectByMagic(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		filename string
		data     []byte
		expected model.FormatKind
	}{
		{"pdf without extension", "upload", []byte("%PDF-1.7\n1 0 obj"), model.FormatPDF},
		{"pdf with junk preamble", "blob.bin", append(bytes.Repeat([]byte{0x20}, 64), []byte("%PDF-1.5")...), model.FormatPDF},
		{"rtf without extension", "note", []byte("{\\rtf1\\ansi hello}"), model.FormatRTF},
		{"truncated rtf magic", "note", []byte("{\\rt1 hello}"), model.FormatRTF},
		{"ooxml renamed to bin", "data.bin", buildZip(t, "[Content_Types].xml", "word/document.xml"), model.FormatOOXML},
		{"plain zip is unknown", "archive.bin", buildZip(t, "readme.txt"), model.FormatUnknown},
		{"ole compound file", "legacy.bin", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00, 0x00}, model.FormatOLE},
		{"empty input", "", nil, model.FormatUnknown},
		{"random bytes", "noise.xyz", []byte{0x01, 0x02, 0x03, 0x04}, model.FormatUnknown},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := Detect(tc.filename, tc.data)
			if d.Kind != tc.expected {
				t.Errorf("Detect(%q) kind = %v, expected %v", tc.filename, d.Kind, tc.expected)
			}
		})
	}
}

// TestDetectLyingExtension tests that an OOXML extension over non-zip
// bytes falls back to the real content format.
func TestDetectLyingExtension(t *testing.T) {
	t.Parallel()

	d := Detect("invoice.docx", []byte("%PDF-1.4\n1 0 obj\n"))
	if d.Kind != model.FormatPDF {
		t.Errorf("pdf renamed to .docx detected as %v, expected pdf", d.Kind)
	}

	// Corrupt zip with a docx extension stays OOXML so the analyzer can
	// report the malformed container.
	d = Detect("broken.docx", []byte("PK\x03\x04 not a real zip"))
	if d.Kind != model.FormatOOXML {
		t.Errorf("corrupt docx detected as %v, expected ooxml", d.Kind)
	}
}
