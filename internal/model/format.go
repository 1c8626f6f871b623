package model

// FormatKind identifies the container format of an artifact.
// Unknown routes to the no-op analyzer and the passthrough sanitizer.
type FormatKind int

const (
	// FormatUnknown is any format the scanner does not understand.
	FormatUnknown FormatKind = iota

	// FormatPDF is an Adobe PDF document (%PDF- magic).
	FormatPDF

	// FormatOOXML is an Office Open XML container (zip with
	// [Content_Types].xml): .docx, .pptx, .xlsx and their macro variants.
	FormatOOXML

	// FormatRTF is a Rich Text Format document ({\rtf magic).
	FormatRTF

	// FormatOLE is a legacy OLE compound file (.doc, .xls, .ppt).
	// Detected for reporting purposes; structural analysis treats it
	// like Unknown because the binary Office formats are out of scope.
	FormatOLE
)

// String returns the short format name used in logs and reports.
func (k FormatKind) String() string {
	switch k {
	case FormatPDF:
		return "pdf"
	case FormatOOXML:
		return "ooxml"
	case FormatRTF:
		return "rtf"
	case FormatOLE:
		return "ole"
	default:
		return "unknown"
	}
}

// OoxmlSubkind distinguishes the three OOXML application formats.
// The subkind does not change analysis rules but is reported and used
// to pick the right MIME type for sanitized output.
type OoxmlSubkind int

const (
	// OoxmlUnknown is an OOXML container whose application type could
	// not be determined from its content types.
	OoxmlUnknown OoxmlSubkind = iota

	// OoxmlWordProcessing is a .docx/.docm document.
	OoxmlWordProcessing

	// OoxmlPresentation is a .pptx/.pptm presentation.
	OoxmlPresentation

	// OoxmlSpreadsheet is a .xlsx/.xlsm workbook.
	OoxmlSpreadsheet
)

// String returns the subkind name.
func (s OoxmlSubkind) String() string {
	switch s {
	case OoxmlWordProcessing:
		return "wordprocessing"
	case OoxmlPresentation:
		return "presentation"
	case OoxmlSpreadsheet:
		return "spreadsheet"
	default:
		return "unknown"
	}
}

// MIME returns the canonical content type for the format.
// OOXML formats need the subkind for an exact answer; callers that have
// one should use OoxmlMIME instead.
func (k FormatKind) MIME() string {
	switch k {
	case FormatPDF:
		return "application/pdf"
	case FormatOOXML:
		return "application/vnd.openxmlformats-officedocument"
	case FormatRTF:
		return "application/rtf"
	case FormatOLE:
		return "application/x-ole-storage"
	default:
		return "application/octet-stream"
	}
}

// OoxmlMIME returns the exact content type for an OOXML subkind.
func OoxmlMIME(s OoxmlSubkind) string {
	switch s {
	case OoxmlWordProcessing:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case OoxmlPresentation:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case OoxmlSpreadsheet:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/vnd.openxmlformats-officedocument"
	}
}
