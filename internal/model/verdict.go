package model

import (
	"encoding/json"
	"fmt"
)

// Verdict is the final tri-state classification produced by the risk
// aggregator. Verdicts are totally ordered: Benign < Suspicious < Malicious.
type Verdict int

const (
	// VerdictBenign means no rule or classifier signal crossed a threshold.
	VerdictBenign Verdict = iota

	// VerdictSuspicious means weak signals were observed. Suspicious files
	// are reported but never rewritten.
	VerdictSuspicious

	// VerdictMalicious means a critical finding or a threshold-crossing
	// score was observed. Only malicious files are sanitized.
	VerdictMalicious
)

// String returns the lowercase verdict name used in reports and storage.
func (v Verdict) String() string {
	switch v {
	case VerdictBenign:
		return "benign"
	case VerdictSuspicious:
		return "suspicious"
	case VerdictMalicious:
		return "malicious"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the verdict as its string name.
// Numeric verdict values in persisted reports would be fragile across
// versions, so the wire format is always the name.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON parses a verdict from its string name.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVerdict(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVerdict converts a verdict name back into a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "benign":
		return VerdictBenign, nil
	case "suspicious":
		return VerdictSuspicious, nil
	case "malicious":
		return VerdictMalicious, nil
	default:
		return VerdictBenign, fmt.Errorf("unknown verdict %q", s)
	}
}
