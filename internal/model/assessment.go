package model

// ClassifierSignal is the output of the external classifier adapter.
//
// Absence of a signal must never be treated as "benign": Available=false
// means no evidence either way, and the aggregator ignores Probability
// entirely in that case.
type ClassifierSignal struct {
	// Probability is the malicious-class probability in [0,1].
	// Only meaningful when Available is true.
	Probability float64 `json:"probability"`

	// Available reports whether a model produced this signal.
	Available bool `json:"available"`

	// Reason describes why the signal is unavailable (model missing,
	// load failure). Empty when Available is true.
	Reason string `json:"reason,omitempty"`
}

// RiskAssessment is the immutable result of risk aggregation for one scan.
//
// Design decision: A single typed value constructed once per scan replaces
// the ad hoc score dictionaries of earlier engine generations. Verdict
// derivation is a pure function of findings and scores; nothing here is
// mutated after construction.
type RiskAssessment struct {
	// RuleScore is the normalized deterministic rule score in [0,1].
	RuleScore float64 `json:"rule_score"`

	// Classifier is the external model signal, possibly unavailable.
	Classifier ClassifierSignal `json:"classifier"`

	// CompositeScore is the final risk score in [0,1]. It is the max of
	// RuleScore and the classifier probability, forced to 1.0 by any
	// critical finding.
	CompositeScore float64 `json:"composite_score"`

	// Verdict is the final classification.
	Verdict Verdict `json:"verdict"`
}
