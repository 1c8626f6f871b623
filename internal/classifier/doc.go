// Package classifier provides the adapter to the externally trained
// probability model and the feature extraction that feeds it.
//
// The model itself is produced by an offline training pipeline and
// consumed here as a versioned JSON artifact. The contract surface
// between training and inference is the explicit feature column list:
// the loader refuses artifacts whose columns do not match the schema
// this package computes.
//
// A missing or unloadable model is a normal, non-fatal condition. The
// adapter reports it as an unavailable signal; it never substitutes a
// probability of zero, because "no model" is absence of evidence, not
// evidence of absence.
package classifier
