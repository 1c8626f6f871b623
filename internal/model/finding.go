package model

// Finding represents a single piece of evidence discovered by an analyzer.
// Findings are append-only per scan; they are never mutated after creation.
type Finding struct {
	// Type is the finding type identifier (e.g., "office_macro").
	// This maps to the findingInfoMapping in severity.go.
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail, including matched values.
	Description string `json:"description,omitempty"`

	// Location is an evidence locator, such as a PDF object path
	// ("/Root/OpenAction") or a zip member name ("word/vbaProject.bin").
	Location string `json:"location,omitempty"`

	// Impact explains the security implications of this finding.
	Impact string `json:"impact,omitempty"`

	// Recommendation suggests how to remediate this finding.
	Recommendation string `json:"recommendation,omitempty"`
}

// NewFinding creates a Finding for the given type, filling in severity,
// impact, and recommendation from the central finding metadata table.
//
// Design decision: Analyzers construct findings through this helper rather
// than literal structs so that severity assignment has a single source of
// truth and cannot drift between analyzers.
func NewFinding(findingType, title, description, location string) Finding {
	f := Finding{
		Type:        findingType,
		Severity:    GetSeverity(findingType),
		Title:       title,
		Description: description,
		Location:    location,
	}
	f.SeverityText = f.Severity.String()
	if info, ok := GetFindingInfo(findingType); ok {
		f.Impact = info.Impact
		f.Recommendation = info.Recommendation
	}
	return f
}
