// Package format resolves the container format of untrusted file content.
//
// Detection uses the declared filename extension first and falls back to
// magic-byte sniffing. It never fails: anything unresolved maps to
// model.FormatUnknown, which routes the artifact to the no-op analyzer
// and the passthrough sanitizer with an explicit "unsupported" finding
// instead of an error.
package format
