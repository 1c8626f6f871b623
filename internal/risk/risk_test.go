package risk

import (
	"testing"

	"github.com/safedocs/safedocs/internal/model"
)

// TestAssessThresholds tests the full verdict ladder.
func TestAssessThresholds(t *testing.T) {
	t.Parallel()

	available := func(p float64) model.ClassifierSignal {
		return model.ClassifierSignal{Probability: p, Available: true}
	}
	unavailable := model.ClassifierSignal{Available: false, Reason: "no model"}

	tests := []struct {
		name          string
		ruleScore     float64
		signal        model.ClassifierSignal
		wantVerdict   model.Verdict
		wantComposite float64
	}{
		{
			name:          "rules malicious at threshold",
			ruleScore:     0.60,
			signal:        unavailable,
			wantVerdict:   model.VerdictMalicious,
			wantComposite: 0.60,
		},
		{
			name:          "rules suspicious at threshold",
			ruleScore:     0.30,
			signal:        unavailable,
			wantVerdict:   model.VerdictSuspicious,
			wantComposite: 0.30,
		},
		{
			name:          "rules just below suspicious",
			ruleScore:     0.29,
			signal:        unavailable,
			wantVerdict:   model.VerdictBenign,
			wantComposite: 0.29,
		},
		{
			name:          "classifier malicious when rules silent",
			ruleScore:     0.10,
			signal:        available(0.75),
			wantVerdict:   model.VerdictMalicious,
			wantComposite: 0.75,
		},
		{
			name:          "classifier suspicious when rules silent",
			ruleScore:     0.0,
			signal:        available(0.50),
			wantVerdict:   model.VerdictSuspicious,
			wantComposite: 0.50,
		},
		{
			name:          "classifier below threshold",
			ruleScore:     0.0,
			signal:        available(0.49),
			wantVerdict:   model.VerdictBenign,
			wantComposite: 0.49,
		},
		{
			name:          "rules decide before classifier",
			ruleScore:     0.35,
			signal:        available(0.99),
			wantVerdict:   model.VerdictSuspicious,
			wantComposite: 0.99,
		},
		{
			name:          "unavailable classifier is not benign evidence",
			ruleScore:     0.0,
			signal:        unavailable,
			wantVerdict:   model.VerdictBenign,
			wantComposite: 0.0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Assess(tt.ruleScore, tt.signal, nil)
			if got.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %v, want %v", got.Verdict, tt.wantVerdict)
			}
			if got.CompositeScore != tt.wantComposite {
				t.Errorf("composite = %v, want %v", got.CompositeScore, tt.wantComposite)
			}
		})
	}
}

// TestAssessCriticalOverride tests that a critical finding pins the
// assessment regardless of scores.
func TestAssessCriticalOverride(t *testing.T) {
	t.Parallel()

	findings := []model.Finding{
		model.NewFinding("pdf_exploit_action", "PDF auto-launch action", "", ""),
	}
	got := Assess(0.0, model.ClassifierSignal{Available: false}, findings)

	if got.Verdict != model.VerdictMalicious {
		t.Errorf("verdict = %v, want Malicious", got.Verdict)
	}
	if got.CompositeScore != 1.0 {
		t.Errorf("composite = %v, want 1.0", got.CompositeScore)
	}
}

// TestAssessClampsInputs tests out-of-range score handling.
func TestAssessClampsInputs(t *testing.T) {
	t.Parallel()

	got := Assess(1.7, model.ClassifierSignal{Available: false}, nil)
	if got.RuleScore != 1.0 || got.CompositeScore != 1.0 {
		t.Errorf("rule = %v, composite = %v; want both 1.0", got.RuleScore, got.CompositeScore)
	}
	if got.Verdict != model.VerdictMalicious {
		t.Errorf("verdict = %v, want Malicious", got.Verdict)
	}
}
