package analyzer

import (
	"context"
	"fmt"

	"github.com/safedocs/safedocs/internal/model"
)

// NullAnalyzer handles formats without a structural analyzer (Unknown
// and legacy OLE). It records an explicit "unsupported" finding and
// still runs the format-independent byte-level signals, so a renamed
// script dropper does not sail through with an empty report.
type NullAnalyzer struct {
	kind model.FormatKind
}

// NewNullAnalyzer creates a NullAnalyzer for the given format.
func NewNullAnalyzer(kind model.FormatKind) *NullAnalyzer {
	return &NullAnalyzer{kind: kind}
}

// Name returns the analyzer name.
func (a *NullAnalyzer) Name() string {
	return "null"
}

// Analyze records the unsupported-format finding and runs generic checks.
func (a *NullAnalyzer) Analyze(ctx context.Context, artifact *model.Artifact) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	points := 0
	findings := []model.Finding{
		model.NewFinding(
			"unsupported_format",
			"Unsupported file format",
			fmt.Sprintf("No structural analyzer for format %q", a.kind),
			"",
		),
	}

	p, f := scanSuspiciousStrings(artifact.Data)
	points += p
	findings = append(findings, f...)

	p, f = scanEntropy(artifact.Data)
	points += p
	findings = append(findings, f...)

	return &Result{Score: normalizeScore(points), Findings: findings}, nil
}
