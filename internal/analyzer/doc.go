// Package analyzer implements the per-format structural analyzers that
// produce findings and a deterministic rule score for an artifact.
//
// Each analyzer implements the same capability: inspect the raw bytes,
// return evidence (model.Finding) and a normalized rule score in [0,1].
// Four variants exist: PDF, OOXML, RTF, and the no-op Null analyzer for
// unsupported formats.
//
// Analyzers are deliberately forgiving: a structural parse failure
// degrades to a raw byte/regex pass with lower confidence weighting,
// never to a scan abort. Traversal is bounded (object and zip entry
// caps) so adversarial input cannot cause unbounded work.
//
// Scoring model: each rule contributes a fixed number of points; the sum
// is divided by 100 and capped at 1.0. The weights are part of the
// engine's external contract and must not be tuned casually:
//
//	auto-launch action (Launch/SubmitForm/ImportData)  80 (critical)
//	OpenAction -> JavaScript                           50
//	named JavaScript (Names tree)                      50
//	hidden JS/Launch in indirect objects               60
//	catalog /AA additional actions                     40
//	raw regex fallback match                           40
//	VBA macro project                                  70
//	RTF object/field control words                     70
//	embedded OLE object (per occurrence)               20
//	external relationship / ActiveX part               20
//	entropy above threshold                            20
//	suspicious string hits                             15
package analyzer
