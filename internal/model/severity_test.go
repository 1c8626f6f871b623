package model

import "testing"

// TestSeverityString tests the String method of Severity.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityInfo, "INFO"},
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityCritical, "CRITICAL"},
		{Severity(999), "UNKNOWN"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.severity.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.severity.String(), tc.expected)
			}
		})
	}
}

// TestGetSeverity tests the GetSeverity function.
func TestGetSeverity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		findingType string
		expected    Severity
	}{
		// Critical findings
		{"pdf_exploit_action", SeverityCritical},

		// High findings
		{"pdf_js_auto", SeverityHigh},
		{"pdf_aa_action", SeverityHigh},
		{"pdf_names_js", SeverityHigh},
		{"pdf_deep_js", SeverityHigh},
		{"office_macro", SeverityHigh},
		{"rtf_exploit", SeverityHigh},

		// Medium findings
		{"suspicious_strings", SeverityMedium},
		{"office_ole", SeverityMedium},
		{"high_entropy", SeverityMedium},
		{"ooxml_external_rel", SeverityMedium},
		{"pdf_regex_match", SeverityMedium},

		// Info findings
		{"doc_metadata", SeverityInfo},
		{"unsupported_format", SeverityInfo},
		{"malformed_container", SeverityInfo},

		// Unknown finding type defaults to Info
		{"unknown_type", SeverityInfo},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.findingType, func(t *testing.T) {
			t.Parallel()
			result := GetSeverity(tc.findingType)
			if result != tc.expected {
				t.Errorf("GetSeverity(%q) = %v, expected %v", tc.findingType, result, tc.expected)
			}
		})
	}
}

// TestSeverityOrdering tests that severity levels are ordered correctly.
// Info < Low < Medium < High < Critical
func TestSeverityOrdering(t *testing.T) {
	t.Parallel()

	if !(SeverityInfo < SeverityLow &&
		SeverityLow < SeverityMedium &&
		SeverityMedium < SeverityHigh &&
		SeverityHigh < SeverityCritical) {
		t.Error("severity levels are not ordered correctly")
	}
}

// TestGetFindingInfo tests that known types carry impact and recommendation.
func TestGetFindingInfo(t *testing.T) {
	t.Parallel()

	info, ok := GetFindingInfo("office_macro")
	if !ok {
		t.Fatal("expected office_macro to be a known finding type")
	}
	if info.Severity != SeverityHigh {
		t.Errorf("office_macro severity = %v, expected %v", info.Severity, SeverityHigh)
	}
	if info.Impact == "" || info.Recommendation == "" {
		t.Error("expected non-empty impact and recommendation")
	}

	if _, ok := GetFindingInfo("does_not_exist"); ok {
		t.Error("expected unknown type to report ok=false")
	}
}
