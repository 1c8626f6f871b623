// Package scanner orchestrates a full document scan: format detection,
// structural analysis, classifier scoring, risk aggregation, and, for
// malicious verdicts only, sanitization plus re-verification.
//
// Scan is total. It never panics out and never returns an error;
// catastrophic internal failures degrade to a benign report carrying a
// single diagnostic finding. Each call is stateless and safe to run
// concurrently with any other; the only shared state is the classifier
// model, which is immutable once loaded.
package scanner
