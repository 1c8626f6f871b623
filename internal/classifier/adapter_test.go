package classifier

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// writeModelArtifact writes a valid model artifact and returns its path.
func writeModelArtifact(t *testing.T, art modelArtifact) string {
	t.Helper()

	data, err := json.Marshal(art)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

// validArtifact returns an artifact matching the current schema. The
// weights score entropy and macro presence heavily, roughly what the
// trained model does.
func validArtifact() modelArtifact {
	return modelArtifact{
		Version:     modelArtifactVersion,
		FeatureCols: FeatureColumns,
		Weights:     []float64{0, 2.0, 1.5, 3.0, 0.5, 0, 1.0},
		Intercept:   -2.0,
	}
}

// TestLogisticAdapterScore tests scoring with a loaded model.
func TestLogisticAdapterScore(t *testing.T) {
	t.Parallel()

	path := writeModelArtifact(t, validArtifact())
	a := NewLogisticAdapter(path)

	benign := map[string]float64{"entropy": 0.3}
	sig := a.Score(context.Background(), benign)
	if !sig.Available {
		t.Fatalf("signal unavailable: %s", sig.Reason)
	}
	if sig.Probability < 0 || sig.Probability > 1 {
		t.Errorf("probability = %f, want in [0,1]", sig.Probability)
	}

	hostile := map[string]float64{"entropy": 0.99, "has_vba_project": 1, "pdf_has_javascript": 1}
	hostileSig := a.Score(context.Background(), hostile)
	if hostileSig.Probability <= sig.Probability {
		t.Errorf("hostile probability %f not above benign %f", hostileSig.Probability, sig.Probability)
	}
}

// TestLogisticAdapterMissingModel tests graceful degradation when no
// artifact is deployed.
func TestLogisticAdapterMissingModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{name: "empty path", path: ""},
		{name: "nonexistent file", path: filepath.Join(t.TempDir(), "missing.json")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := NewLogisticAdapter(tt.path)
			sig := a.Score(context.Background(), map[string]float64{})
			if sig.Available {
				t.Error("signal available, want unavailable")
			}
			if sig.Reason == "" {
				t.Error("unavailable signal carries no reason")
			}
			if sig.Probability != 0 {
				t.Errorf("probability = %f, want 0 when unavailable", sig.Probability)
			}
		})
	}
}

// TestLogisticAdapterSchemaMismatch tests the feature-column contract.
func TestLogisticAdapterSchemaMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*modelArtifact)
	}{
		{
			name:   "wrong version",
			mutate: func(a *modelArtifact) { a.Version = 99 },
		},
		{
			name: "renamed column",
			mutate: func(a *modelArtifact) {
				cols := append([]string(nil), FeatureColumns...)
				cols[1] = "shannon_entropy"
				a.FeatureCols = cols
			},
		},
		{
			name:   "weight count mismatch",
			mutate: func(a *modelArtifact) { a.Weights = a.Weights[:3] },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			art := validArtifact()
			tt.mutate(&art)
			a := NewLogisticAdapter(writeModelArtifact(t, art))
			sig := a.Score(context.Background(), map[string]float64{})
			if sig.Available {
				t.Error("signal available despite schema mismatch")
			}
		})
	}
}

// TestDisabledAdapter tests the switched-off configuration.
func TestDisabledAdapter(t *testing.T) {
	t.Parallel()

	sig := Disabled{}.Score(context.Background(), map[string]float64{"entropy": 1})
	if sig.Available {
		t.Error("disabled adapter reported an available signal")
	}
}
