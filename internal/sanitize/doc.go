// Package sanitize implements content disarm and reconstruction (CDR)
// for the supported document formats.
//
// Each format gets a fallback chain of engines attempted in order, first
// success wins:
//
//  1. a structural engine that surgically neutralizes dangerous keys and
//     parts while preserving everything else,
//  2. a rebuild engine that reconstructs the container from its safe
//     parts (more invasive, more robust to malformed input),
//  3. a byte-level keyword scrub that blanks an obfuscation-expanded
//     deny-list without moving a single offset.
//
// The chain is total: when every engine fails, the original bytes come
// back unchanged with Succeeded=false and an explicit reason. A clean
// input is a successful no-op. A stage that removes constructs yet
// produces byte-identical output gets a marker appended so a claimed
// sanitization is always observable in the content hash.
package sanitize
