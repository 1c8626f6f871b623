// Package risk combines the deterministic rule score and the optional
// classifier probability into a single assessment and verdict.
//
// Rules take precedence over the statistical signal: a signature hit is
// auditable evidence, a probability is not. The classifier only decides
// when the rules are silent, and only at stricter thresholds. The
// threshold ladder (0.60/0.30 for rules, 0.75/0.50 for the classifier)
// is a compatibility contract with downstream consumers of the reports
// and must not drift.
package risk
