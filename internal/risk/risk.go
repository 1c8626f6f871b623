package risk

import "github.com/safedocs/safedocs/internal/model"

// Verdict thresholds. See the package comment for why they are fixed.
const (
	ruleMaliciousThreshold  = 0.60
	ruleSuspiciousThreshold = 0.30

	classifierMaliciousThreshold  = 0.75
	classifierSuspiciousThreshold = 0.50
)

// Assess builds the immutable assessment from the two typed inputs.
// It is a pure function: same inputs, same assessment, no hidden state.
//
// A critical finding overrides everything: the composite score pins to
// 1.0 and the verdict is Malicious regardless of the numeric inputs.
// An unavailable classifier contributes nothing; it never lowers or
// raises the composite.
func Assess(ruleScore float64, signal model.ClassifierSignal, findings []model.Finding) model.RiskAssessment {
	assessment := model.RiskAssessment{
		RuleScore:  clamp(ruleScore),
		Classifier: signal,
	}

	if hasCritical(findings) {
		assessment.CompositeScore = 1.0
		assessment.Verdict = model.VerdictMalicious
		return assessment
	}

	composite := assessment.RuleScore
	if signal.Available && signal.Probability > composite {
		composite = clamp(signal.Probability)
	}
	assessment.CompositeScore = composite
	assessment.Verdict = decide(assessment.RuleScore, signal)
	return assessment
}

// decide walks the threshold ladder: rules first, classifier second.
func decide(ruleScore float64, signal model.ClassifierSignal) model.Verdict {
	switch {
	case ruleScore >= ruleMaliciousThreshold:
		return model.VerdictMalicious
	case ruleScore >= ruleSuspiciousThreshold:
		return model.VerdictSuspicious
	case signal.Available && signal.Probability >= classifierMaliciousThreshold:
		return model.VerdictMalicious
	case signal.Available && signal.Probability >= classifierSuspiciousThreshold:
		return model.VerdictSuspicious
	default:
		return model.VerdictBenign
	}
}

// hasCritical reports whether any finding is critical severity.
func hasCritical(findings []model.Finding) bool {
	for _, f := range findings {
		if f.Severity == model.SeverityCritical {
			return true
		}
	}
	return false
}

// clamp forces a score into [0,1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
