package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/safedocs/safedocs/internal/classifier"
	"github.com/safedocs/safedocs/internal/format"
	"github.com/safedocs/safedocs/internal/model"
	"github.com/safedocs/safedocs/internal/sanitize"
	"github.com/safedocs/safedocs/internal/verify"
)

// Scanner runs the scan pipeline over single artifacts.
type Scanner struct {
	verifier *verify.Verifier
	engine   *sanitize.Engine
	logger   *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithClassifier sets the classifier adapter. Default is the disabled
// adapter, which reports no signal.
func WithClassifier(adapter classifier.Adapter) Option {
	return func(s *Scanner) {
		s.verifier = verify.New(adapter)
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		verifier: verify.New(classifier.Disabled{}),
		engine:   sanitize.NewEngine(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan analyzes one artifact and returns the report. It always returns
// a non-nil report and never an error: internal failures are recorded
// in the report itself.
func (s *Scanner) Scan(ctx context.Context, data []byte, filename, declaredType string) (report *model.ScanReport) {
	artifact := model.NewArtifact(data, filename, declaredType)
	report = &model.ScanReport{
		ID:           uuid.NewString(),
		Filename:     filename,
		DeclaredType: declaredType,
		SHA256:       artifact.SHA256,
		Size:         artifact.Size,
		DateScanned:  time.Now().UTC(),
	}

	// The scan contract is total: a panic anywhere below must degrade
	// to a reportable state, not escape to the caller.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan panicked", "filename", filename, "panic", r)
			report.Findings = []model.Finding{model.NewFinding(
				"scan_error",
				"Internal scan failure",
				fmt.Sprintf("The scan aborted unexpectedly: %v", r),
				"",
			)}
			report.Assessment = model.RiskAssessment{Verdict: model.VerdictBenign}
			report.Sanitization = nil
			report.PostAssessment = nil
			report.ErrorMessage = fmt.Sprintf("panic: %v", r)
		}
	}()

	pass, err := s.verifier.Run(ctx, artifact)
	if err != nil {
		report.TimedOut = errors.Is(err, context.DeadlineExceeded)
		report.ErrorMessage = err.Error()
		report.AddFinding(model.NewFinding(
			"scan_error",
			"Scan did not complete",
			err.Error(),
			"",
		))
		report.Assessment = model.RiskAssessment{Verdict: model.VerdictBenign}
		return report
	}

	report.Format = pass.Detection.Kind
	report.FormatName = pass.Detection.Kind.String()
	report.OoxmlKind = pass.Detection.Ooxml
	report.ContentType = contentType(pass.Detection)
	report.Findings = pass.Findings
	report.Assessment = pass.Assessment
	report.PerformedSteps = []string{"detect", "analyze", "classify", "assess"}

	s.logger.Info("scan assessed",
		"filename", filename,
		"format", report.FormatName,
		"rule_score", pass.RuleScore,
		"verdict", pass.Assessment.Verdict.String(),
	)

	if pass.Assessment.Verdict == model.VerdictMalicious {
		s.disarm(ctx, report, artifact)
	}

	report.BuildRecommendations()
	return report
}

// disarm runs the sanitizer chain and the post-sanitization
// verification, recording both on the report.
func (s *Scanner) disarm(ctx context.Context, report *model.ScanReport, artifact *model.Artifact) {
	outcome := s.engine.Sanitize(ctx, report.Format, artifact.Data)
	report.Sanitization = &outcome
	report.PerformedSteps = append(report.PerformedSteps, "sanitize")

	if !outcome.Succeeded {
		s.logger.Warn("sanitization failed",
			"filename", report.Filename,
			"reason", outcome.Reason,
			"attempted", outcome.Attempted,
		)
		return
	}

	post, delta, err := s.verifier.Reassess(ctx, outcome.Output, artifact.Filename, report.Assessment)
	if err != nil {
		report.ErrorMessage = fmt.Sprintf("verification: %v", err)
		return
	}
	report.PostAssessment = post
	report.DeltaRisk = delta
	report.PerformedSteps = append(report.PerformedSteps, "verify")

	s.logger.Info("sanitized",
		"filename", report.Filename,
		"engine", outcome.EngineUsed,
		"removed", outcome.Removed,
		"delta_risk", delta,
	)
}

// contentType resolves the report content type from the detection.
func contentType(d format.Detection) string {
	if d.Kind == model.FormatOOXML {
		return model.OoxmlMIME(d.Ooxml)
	}
	return d.Kind.MIME()
}
