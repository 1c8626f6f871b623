package model

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Artifact is an immutable scan input: the raw bytes plus the metadata
// the caller declared about them. Identity is the SHA-256 digest of the
// content, computed once at construction; the external storage layer
// correlates original, sanitized, and report records through it.
//
// Design decision: Artifact holds the byte slice directly instead of an
// io.Reader because every analyzer needs random access (magic sniffing,
// zip central directory, entropy windows) and the concurrency model in
// this engine is one in-memory buffer per scan with no shared state.
type Artifact struct {
	// Data is the raw file content. Treated as read-only after construction.
	Data []byte

	// Filename is the declared file name, used for extension-based
	// format hints. May be empty.
	Filename string

	// DeclaredType is the content type the caller claimed, if any.
	// It is recorded but never trusted over magic-byte sniffing.
	DeclaredType string

	// SHA256 is the lowercase hex digest of Data.
	SHA256 string

	// Size is len(Data), cached for feature extraction and reports.
	Size int64
}

// NewArtifact builds an Artifact and computes its content digest.
func NewArtifact(data []byte, filename, declaredType string) *Artifact {
	sum := sha256.Sum256(data)
	return &Artifact{
		Data:         data,
		Filename:     filename,
		DeclaredType: declaredType,
		SHA256:       hex.EncodeToString(sum[:]),
		Size:         int64(len(data)),
	}
}

// Extension returns the lowercase filename extension including the dot,
// or the empty string when the filename has none.
func (a *Artifact) Extension() string {
	return strings.ToLower(filepath.Ext(a.Filename))
}

// HashBytes returns the lowercase hex SHA-256 of arbitrary bytes.
// Used by the sanitizer chain to detect claimed-success-no-change runs.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
