package model

import "time"

// SanitizationOutcome describes one sanitizer chain run.
// The engine is total: it always returns bytes, falling back to the
// original content with Succeeded=false when every stage fails.
type SanitizationOutcome struct {
	// EngineUsed names the stage that produced the output
	// (e.g., "pdf_structural", "ooxml_rebuild", "keyword_scrub",
	// "passthrough").
	EngineUsed string `json:"engine_used"`

	// Attempted lists every stage tried, in order.
	Attempted []string `json:"attempted"`

	// BytesChanged reports whether the output differs from the input.
	BytesChanged bool `json:"bytes_changed"`

	// Removed labels the dangerous constructs that were removed
	// (e.g., "OpenAction", "vbaProject.bin", "rtf_object").
	Removed []string `json:"removed,omitempty"`

	// Succeeded is true only when a stage produced non-empty output.
	Succeeded bool `json:"succeeded"`

	// Reason explains a failure or a no-op ("no sanitizer for format",
	// "all engines failed"). Empty on success with removals.
	Reason string `json:"reason,omitempty"`

	// Output is the sanitized content. Excluded from JSON; the storage
	// layer persists it separately keyed by content hash.
	Output []byte `json:"-"`
}

// ScanReport is the main scan result structure. It aggregates artifact
// metadata, the risk assessment, findings, the sanitization outcome when
// one ran, and the post-sanitization re-verification.
//
// Design decision: We use a single large struct rather than many small ones
// to simplify serialization and database storage, mirroring how the scan
// result travels through the pipeline as one accumulating value.
type ScanReport struct {
	// === Basic Information ===

	// ID is a unique identifier for this scan, used for audit
	// correlation by the external API layer.
	ID string `json:"id"`

	// Filename is the declared name of the scanned file.
	Filename string `json:"filename"`

	// DeclaredType is the caller-declared content type, if any.
	DeclaredType string `json:"declared_type,omitempty"`

	// ContentType is the content type resolved from the detected format.
	ContentType string `json:"content_type"`

	// SHA256 is the content digest of the original bytes.
	SHA256 string `json:"sha256"`

	// Size is the original content length in bytes.
	Size int64 `json:"size"`

	// DateScanned is the timestamp when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// === Format Detection ===

	// Format is the detected container format.
	Format FormatKind `json:"-"`

	// FormatName is the serializable format name.
	FormatName string `json:"format"`

	// OoxmlKind is the OOXML application subkind, when Format is OOXML.
	OoxmlKind OoxmlSubkind `json:"-"`

	// === Analysis Results ===

	// Findings contains all evidence discovered during the scan.
	// Append-only; entries are never mutated once added.
	Findings []Finding `json:"findings"`

	// Assessment is the risk assessment for the original bytes.
	Assessment RiskAssessment `json:"assessment"`

	// === Sanitization ===

	// Sanitization is present only when the verdict was malicious and
	// the sanitizer chain ran.
	Sanitization *SanitizationOutcome `json:"sanitization,omitempty"`

	// PostAssessment is the re-scan of the sanitized bytes, present
	// only when sanitization ran.
	PostAssessment *RiskAssessment `json:"post_assessment,omitempty"`

	// DeltaRisk is PostAssessment.CompositeScore minus
	// Assessment.CompositeScore. Negative values mean the sanitizer
	// measurably reduced risk. Only meaningful when PostAssessment is set.
	DeltaRisk float64 `json:"delta_risk,omitempty"`

	// === Execution Metadata ===

	// Recommendations are human-readable next steps derived from findings.
	Recommendations []string `json:"recommendations,omitempty"`

	// PerformedSteps lists pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut indicates the scan was terminated by the caller's deadline.
	TimedOut bool `json:"timed_out,omitempty"`

	// ErrorMessage holds a non-fatal internal error, if one occurred.
	// The scan contract is total, so errors are reported here instead of
	// being returned.
	ErrorMessage string `json:"error,omitempty"`
}

// AddFinding appends a finding to the report.
func (r *ScanReport) AddFinding(f Finding) {
	r.Findings = append(r.Findings, f)
}

// HasCritical reports whether any finding is critical severity.
func (r *ScanReport) HasCritical() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// CountBySeverity returns the number of findings at the given severity.
func (r *ScanReport) CountBySeverity(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Sanitized reports whether sanitization ran and succeeded.
func (r *ScanReport) Sanitized() bool {
	return r.Sanitization != nil && r.Sanitization.Succeeded
}

// BuildRecommendations derives the human-readable recommendation list
// from the verdict and findings. Called once after the assessment is
// final; calling it again replaces the list.
func (r *ScanReport) BuildRecommendations() {
	recs := make([]string, 0, 4)
	if r.Assessment.Verdict == VerdictMalicious {
		recs = append(recs,
			"Do not open this file on a production workstation.",
			"Use the sanitized version if available.",
		)
	}
	for _, f := range r.Findings {
		switch f.Type {
		case "office_macro":
			recs = append(recs, "Disable macros in the Microsoft Office Trust Center.")
		case "pdf_js_auto", "pdf_names_js", "pdf_deep_js":
			recs = append(recs, "Disable JavaScript in your PDF viewer.")
		}
	}
	// Deduplicate while keeping order
	seen := make(map[string]bool, len(recs))
	out := recs[:0]
	for _, rec := range recs {
		if !seen[rec] {
			seen[rec] = true
			out = append(out, rec)
		}
	}
	r.Recommendations = out
}
