package format

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/safedocs/safedocs/internal/model"
)

// Magic byte prefixes for the supported container formats.
var (
	// pdfMagic is the PDF header. Per the PDF spec it may be preceded
	// by up to 1024 bytes of junk, so we search a window rather than
	// requiring a prefix match.
	pdfMagic = []byte("%PDF-")

	// rtfMagic is the RTF group opener. Real-world RTF malware often
	// truncates "{\rtf1" to "{\rt", so we only require the four-byte form.
	rtfMagic = []byte("{\\rt")

	// zipMagic is the ZIP local file header signature.
	zipMagic = []byte("PK\x03\x04")

	// oleMagic is the OLE compound file (CFB) header used by legacy
	// binary Office formats (.doc/.xls/.ppt).
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// pdfSniffWindow bounds the search for the %PDF- header.
const pdfSniffWindow = 1024

// Detection is the result of format classification.
type Detection struct {
	// Kind is the resolved container format.
	Kind model.FormatKind

	// Ooxml is the OOXML application subkind, meaningful only when
	// Kind is model.FormatOOXML.
	Ooxml model.OoxmlSubkind
}

// Detect resolves the format of the given content.
//
// The filename extension is consulted first because it is cheap and
// unambiguous for well-formed input; magic-byte sniffing covers renamed
// or extensionless files. Detect never returns an error: content that
// matches nothing is Unknown.
func Detect(filename string, data []byte) Detection {
	if d, ok := detectByExtension(filename, data); ok {
		return d
	}
	return detectByMagic(data)
}

// extensionKinds maps known extensions to their formats. Macro-enabled
// variants (.docm, .xlsm, .pptm) are plain OOXML containers; the macro
// itself is an analyzer finding, not a format property.
var extensionKinds = map[string]Detection{
	".pdf":  {Kind: model.FormatPDF},
	".rtf":  {Kind: model.FormatRTF},
	".docx": {Kind: model.FormatOOXML, Ooxml: model.OoxmlWordProcessing},
	".docm": {Kind: model.FormatOOXML, Ooxml: model.OoxmlWordProcessing},
	".dotx": {Kind: model.FormatOOXML, Ooxml: model.OoxmlWordProcessing},
	".dotm": {Kind: model.FormatOOXML, Ooxml: model.OoxmlWordProcessing},
	".pptx": {Kind: model.FormatOOXML, Ooxml: model.OoxmlPresentation},
	".pptm": {Kind: model.FormatOOXML, Ooxml: model.OoxmlPresentation},
	".xlsx": {Kind: model.FormatOOXML, Ooxml: model.OoxmlSpreadsheet},
	".xlsm": {Kind: model.FormatOOXML, Ooxml: model.OoxmlSpreadsheet},
	".doc":  {Kind: model.FormatOLE},
	".xls":  {Kind: model.FormatOLE},
	".ppt":  {Kind: model.FormatOLE},
}

// detectByExtension resolves the format from the filename extension.
// The second return value is false when the extension is unknown.
func detectByExtension(filename string, data []byte) (Detection, bool) {
	dot := strings.LastIndex(filename, ".")
	if dot == -1 {
		return Detection{}, false
	}
	ext := strings.ToLower(filename[dot:])
	d, ok := extensionKinds[ext]
	if !ok {
		return Detection{}, false
	}
	// An OOXML extension on non-zip bytes is either a lying name or a
	// corrupt container. Fall through to magic sniffing so that, e.g.,
	// a PDF renamed to .docx is still analyzed as a PDF; a genuinely
	// corrupt zip comes back here as OOXML via the extension path and
	// degrades inside the analyzer.
	if d.Kind == model.FormatOOXML && !bytes.HasPrefix(data, zipMagic) {
		if m := detectByMagic(data); m.Kind != model.FormatUnknown {
			return m, true
		}
	}
	return d, true
}

// detectByMagic resolves the format from content alone.
func detectByMagic(data []byte) Detection {
	window := data
	if len(window) > pdfSniffWindow {
		window = window[:pdfSniffWindow]
	}
	switch {
	case bytes.Contains(window, pdfMagic):
		return Detection{Kind: model.FormatPDF}
	case bytes.HasPrefix(data, rtfMagic):
		return Detection{Kind: model.FormatRTF}
	case bytes.HasPrefix(data, oleMagic):
		return Detection{Kind: model.FormatOLE}
	case bytes.HasPrefix(data, zipMagic):
		if sub, ok := sniffOoxml(data); ok {
			return Detection{Kind: model.FormatOOXML, Ooxml: sub}
		}
		// A zip without OOXML content types is not a document we understand.
		return Detection{Kind: model.FormatUnknown}
	default:
		return Detection{Kind: model.FormatUnknown}
	}
}

// sniffOoxml opens the zip central directory and looks for the OOXML
// package marker. The subkind is inferred from the top-level part folder,
// which is cheaper and more reliable than parsing [Content_Types].xml.
func sniffOoxml(data []byte) (model.OoxmlSubkind, bool) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return model.OoxmlUnknown, false
	}
	hasContentTypes := false
	sub := model.OoxmlUnknown
	for _, f := range zr.File {
		switch {
		case f.Name == "[Content_Types].xml":
			hasContentTypes = true
		case strings.HasPrefix(f.Name, "word/"):
			sub = model.OoxmlWordProcessing
		case strings.HasPrefix(f.Name, "ppt/"):
			sub = model.OoxmlPresentation
		case strings.HasPrefix(f.Name, "xl/"):
			sub = model.OoxmlSpreadsheet
		}
	}
	if !hasContentTypes {
		return model.OoxmlUnknown, false
	}
	return sub, true
}
