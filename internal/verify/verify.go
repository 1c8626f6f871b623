package verify

import (
	"context"

	"github.com/safedocs/safedocs/internal/analyzer"
	"github.com/safedocs/safedocs/internal/classifier"
	"github.com/safedocs/safedocs/internal/format"
	"github.com/safedocs/safedocs/internal/model"
	"github.com/safedocs/safedocs/internal/risk"
)

// Verifier runs one full assessment pass: format detection, structural
// analysis, classifier scoring, and risk aggregation. The scanner uses
// it for the original bytes and again for the sanitized bytes.
type Verifier struct {
	adapter classifier.Adapter
}

// New creates a Verifier scoring with the given adapter.
func New(adapter classifier.Adapter) *Verifier {
	return &Verifier{adapter: adapter}
}

// Pass is the result of one assessment pass.
type Pass struct {
	// Detection is the resolved container format.
	Detection format.Detection

	// Findings is the structural evidence, in discovery order.
	Findings []model.Finding

	// RuleScore is the normalized analyzer score.
	RuleScore float64

	// Assessment combines rules and classifier into the verdict.
	Assessment model.RiskAssessment
}

// Run assesses one artifact.
func (v *Verifier) Run(ctx context.Context, artifact *model.Artifact) (*Pass, error) {
	detection := format.Detect(artifact.Filename, artifact.Data)

	res, err := analyzer.ForFormat(detection).Analyze(ctx, artifact)
	if err != nil {
		return nil, err
	}

	features := classifier.BuildFeatures(artifact, detection)
	signal := v.adapter.Score(ctx, features)

	return &Pass{
		Detection:  detection,
		Findings:   res.Findings,
		RuleScore:  res.Score,
		Assessment: risk.Assess(res.Score, signal, res.Findings),
	}, nil
}

// Reassess runs the pass over sanitized bytes and returns the post
// assessment plus the delta against the pre-sanitization composite.
func (v *Verifier) Reassess(ctx context.Context, sanitized []byte, filename string, pre model.RiskAssessment) (*model.RiskAssessment, float64, error) {
	artifact := model.NewArtifact(sanitized, filename, "")
	pass, err := v.Run(ctx, artifact)
	if err != nil {
		return nil, 0, err
	}
	post := pass.Assessment
	return &post, post.CompositeScore - pre.CompositeScore, nil
}
