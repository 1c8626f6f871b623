package analyzer

import (
	"bytes"
	"math/rand"
	"testing"
)

// TestChunkEntropy tests the normalized entropy estimate on
// characteristic inputs.
func TestChunkEntropy(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 32*1024)
	for i := range random {
		random[i] = byte(rng.Intn(256))
	}

	tests := []struct {
		name string
		data []byte
		min  float64
		max  float64
	}{
		{name: "empty", data: nil, min: 0.0, max: 0.0},
		{name: "single byte repeated", data: bytes.Repeat([]byte{'A'}, 16*1024), min: 0.0, max: 0.01},
		{name: "english-like text", data: bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 500), min: 0.2, max: 0.7},
		{name: "uniform random", data: random, min: 0.95, max: 1.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ChunkEntropy(tt.data)
			if got < tt.min || got > tt.max {
				t.Errorf("ChunkEntropy() = %.3f, want in [%.2f, %.2f]", got, tt.min, tt.max)
			}
		})
	}
}

// TestScanEntropyThreshold tests that only packed-looking content earns
// the heuristic finding.
func TestScanEntropyThreshold(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(2))
	random := make([]byte, 16*1024)
	for i := range random {
		random[i] = byte(rng.Intn(256))
	}

	if points, findings := scanEntropy(random); points != pointsHighEntropy || len(findings) != 1 {
		t.Errorf("random data: points = %d, findings = %d; want %d, 1", points, len(findings), pointsHighEntropy)
	}
	text := bytes.Repeat([]byte("plain readable content "), 1000)
	if points, findings := scanEntropy(text); points != 0 || len(findings) != 0 {
		t.Errorf("plain text: points = %d, findings = %d; want 0, 0", points, len(findings))
	}
}
