// Package model defines the core data structures used throughout SafeDocs.
//
// This package contains the following main types:
//   - Artifact: An immutable input file with its SHA-256 identity
//   - Finding: A single piece of evidence discovered by an analyzer
//   - RiskAssessment: The rule/classifier scores and final verdict
//   - SanitizationOutcome: The result of a disarm-and-reconstruct run
//   - ScanReport: The main scan result structure
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (analyzer, sanitize, report, storage) need
// to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
