package model

// Severity represents the risk level of a security finding.
// This allows categorizing findings by their potential impact.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct security impact.
	// Examples: embedded image metadata, unsupported container formats.
	// These are recorded for completeness but never move the verdict.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: unusual structure that parses but deviates from the format spec.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: suspicious string hits, high byte entropy, embedded OLE objects.
	// These are weak signals individually but add up in the rule score.
	SeverityMedium

	// SeverityHigh indicates serious issues that significantly raise risk.
	// Examples: VBA macros, PDF JavaScript on open, RTF object embeds.
	// These are well-known malware delivery constructs.
	SeverityHigh

	// SeverityCritical indicates constructs that execute without user interaction.
	// Examples: PDF /Launch, /SubmitForm, /ImportData auto-actions.
	// A single critical finding forces a malicious verdict.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent risk assessment across the application.
//
// Design decision: We use a map rather than embedding severity in each finding type
// because:
// 1. It allows updating risk assessments without modifying type definitions
// 2. It provides a single source of truth for risk levels
// 3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL - Auto-executing constructs
	"pdf_exploit_action": {
		Severity:       SeverityCritical,
		Impact:         "The PDF declares a Launch, SubmitForm, or ImportData action that runs automatically when the document is opened.",
		Recommendation: "Do not open this file. Use the sanitized copy if one was produced.",
	},

	// HIGH - Known malware delivery constructs
	"pdf_js_auto": {
		Severity:       SeverityHigh,
		Impact:         "The PDF executes JavaScript automatically via its OpenAction entry, a common exploit delivery technique.",
		Recommendation: "Disable JavaScript in your PDF viewer and prefer the sanitized copy.",
	},
	"pdf_aa_action": {
		Severity:       SeverityHigh,
		Impact:         "The PDF catalog registers additional actions (/AA) that trigger on document events without user interaction.",
		Recommendation: "Open only the sanitized copy; event-triggered actions have been removed from it.",
	},
	"pdf_names_js": {
		Severity:       SeverityHigh,
		Impact:         "JavaScript is registered in the PDF Names tree and can be invoked by other document constructs.",
		Recommendation: "Disable JavaScript in your PDF viewer and prefer the sanitized copy.",
	},
	"pdf_deep_js": {
		Severity:       SeverityHigh,
		Impact:         "JavaScript or Launch actions are hidden inside indirect objects rather than the document catalog, a sign of deliberate concealment.",
		Recommendation: "Treat the file as hostile; use the sanitized copy only.",
	},
	"office_macro": {
		Severity:       SeverityHigh,
		Impact:         "The Office document contains a VBA macro project that can run arbitrary code when content is enabled.",
		Recommendation: "Disable macros in the Office Trust Center and use the sanitized copy.",
	},
	"rtf_exploit": {
		Severity:       SeverityHigh,
		Impact:         "The RTF file contains object, field, or picture control words frequently abused to launch embedded payloads.",
		Recommendation: "Do not open the original; the sanitized copy has the object spans removed.",
	},

	// MEDIUM - Weak signals that accumulate
	"suspicious_strings": {
		Severity:       SeverityMedium,
		Impact:         "The file contains strings commonly found in malicious scripts (shell invocations, script engines, encoders).",
		Recommendation: "Review the listed strings; combined with other findings they indicate active content.",
	},
	"office_ole": {
		Severity:       SeverityMedium,
		Impact:         "The Office document embeds OLE objects; payloads are frequently hidden inside embedded objects.",
		Recommendation: "Avoid activating embedded objects; the sanitized copy has them removed.",
	},
	"ooxml_external_rel": {
		Severity:       SeverityMedium,
		Impact:         "The document declares relationships to external targets, which can fetch remote content or templates on open.",
		Recommendation: "Use the sanitized copy; external relationship targets have been stripped.",
	},
	"ooxml_activex": {
		Severity:       SeverityMedium,
		Impact:         "The document contains ActiveX control parts, which can host exploitable native code.",
		Recommendation: "Use the sanitized copy; ActiveX parts have been removed.",
	},
	"high_entropy": {
		Severity:       SeverityMedium,
		Impact:         "Large portions of the file have near-random byte entropy, a sign of packed or encrypted payload data.",
		Recommendation: "Treat in combination with other findings; benign compressed media can also score high.",
	},
	"pdf_regex_match": {
		Severity:       SeverityMedium,
		Impact:         "The PDF could not be parsed structurally, but its raw bytes match script/action tokens.",
		Recommendation: "The file is malformed and matches threat patterns; handle with caution.",
	},

	// INFO - Recorded, never scored
	"doc_metadata": {
		Severity:       SeverityInfo,
		Impact:         "Embedded images carry metadata (GPS position, device serial numbers) that may disclose information about the author.",
		Recommendation: "Strip image metadata before distributing the document.",
	},
	"unsupported_format": {
		Severity:       SeverityInfo,
		Impact:         "The file format is not supported by the structural analyzers; only generic checks were applied.",
		Recommendation: "Convert the file to a supported format (PDF, OOXML, RTF) for a full inspection.",
	},
	"malformed_container": {
		Severity:       SeverityInfo,
		Impact:         "The container structure could not be parsed; analysis fell back to raw byte inspection.",
		Recommendation: "Malformed containers are themselves suspicious for binary document formats.",
	},
	"scan_error": {
		Severity:       SeverityInfo,
		Impact:         "An internal error interrupted part of the scan; results may be incomplete.",
		Recommendation: "Re-run the scan; if the error persists, report the file for investigation.",
	},
	"resource_limit": {
		Severity:       SeverityInfo,
		Impact:         "The file exceeded traversal limits; analysis concluded with partial findings.",
		Recommendation: "Oversized object graphs are a common adversarial pattern; treat partial results conservatively.",
	},
}

// GetSeverity returns the severity for a finding type.
// Unknown finding types default to SeverityInfo.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full metadata for a finding type.
// The second return value reports whether the type is known.
func GetFindingInfo(findingType string) (FindingInfo, bool) {
	info, ok := findingInfoMapping[findingType]
	return info, ok
}
