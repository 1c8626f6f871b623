package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/safedocs/safedocs/internal/model"
)

// Supported model artifact versions.
const modelArtifactVersion = 1

// Sentinel errors for model artifact loading.
var (
	// ErrModelNotFound means no artifact exists at the configured path.
	ErrModelNotFound = errors.New("classifier: model artifact not found")

	// ErrModelSchema means the artifact's feature columns or version do
	// not match the schema this binary computes.
	ErrModelSchema = errors.New("classifier: model artifact schema mismatch")
)

// Adapter scores a feature map with an externally trained model.
type Adapter interface {
	// Name returns the adapter's name for logging and reporting.
	Name() string

	// Score returns the probability signal for the given features. An
	// unavailable model yields Available=false with a reason; it is not
	// an error.
	Score(ctx context.Context, features map[string]float64) model.ClassifierSignal
}

// modelArtifact is the on-disk JSON layout produced by the training
// pipeline.
type modelArtifact struct {
	Version     int       `json:"version"`
	FeatureCols []string  `json:"feature_cols"`
	Weights     []float64 `json:"weights"`
	Intercept   float64   `json:"intercept"`
}

// LogisticAdapter scores features with a logistic model loaded lazily
// from a JSON artifact. Loading happens once; every failure mode after
// that is the same cached unavailable signal.
type LogisticAdapter struct {
	path string

	once     sync.Once
	artifact *modelArtifact
	loadErr  error
}

// NewLogisticAdapter creates an adapter reading the artifact at path.
// An empty path is a valid configuration meaning "no model deployed".
func NewLogisticAdapter(path string) *LogisticAdapter {
	return &LogisticAdapter{path: path}
}

// Name returns the adapter name.
func (a *LogisticAdapter) Name() string {
	return "logistic"
}

// Score evaluates the model, loading it on first use.
func (a *LogisticAdapter) Score(ctx context.Context, features map[string]float64) model.ClassifierSignal {
	select {
	case <-ctx.Done():
		return model.ClassifierSignal{Available: false, Reason: ctx.Err().Error()}
	default:
	}

	a.once.Do(a.load)
	if a.loadErr != nil {
		return model.ClassifierSignal{Available: false, Reason: a.loadErr.Error()}
	}

	z := a.artifact.Intercept
	for i, col := range a.artifact.FeatureCols {
		z += a.artifact.Weights[i] * features[col]
	}
	return model.ClassifierSignal{
		Probability: sigmoid(z),
		Available:   true,
	}
}

// load reads and validates the model artifact.
func (a *LogisticAdapter) load() {
	if a.path == "" {
		a.loadErr = ErrModelNotFound
		return
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			a.loadErr = fmt.Errorf("%w: %s", ErrModelNotFound, a.path)
			return
		}
		a.loadErr = fmt.Errorf("classifier: read model artifact: %w", err)
		return
	}

	var art modelArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		a.loadErr = fmt.Errorf("classifier: parse model artifact: %w", err)
		return
	}
	if err := validateArtifact(&art); err != nil {
		a.loadErr = err
		return
	}
	a.artifact = &art
}

// validateArtifact enforces the training/inference schema contract.
func validateArtifact(art *modelArtifact) error {
	if art.Version != modelArtifactVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrModelSchema, art.Version, modelArtifactVersion)
	}
	if len(art.FeatureCols) != len(FeatureColumns) {
		return fmt.Errorf("%w: %d feature columns, want %d", ErrModelSchema, len(art.FeatureCols), len(FeatureColumns))
	}
	for i, col := range art.FeatureCols {
		if col != FeatureColumns[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrModelSchema, i, col, FeatureColumns[i])
		}
	}
	if len(art.Weights) != len(art.FeatureCols) {
		return fmt.Errorf("%w: %d weights for %d columns", ErrModelSchema, len(art.Weights), len(art.FeatureCols))
	}
	return nil
}

// sigmoid maps a logit to a probability in (0,1).
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Disabled is an Adapter that always reports no signal. It backs the
// configuration where classification is switched off entirely.
type Disabled struct{}

// Name returns the adapter name.
func (Disabled) Name() string {
	return "disabled"
}

// Score always returns an unavailable signal.
func (Disabled) Score(_ context.Context, _ map[string]float64) model.ClassifierSignal {
	return model.ClassifierSignal{Available: false, Reason: "classifier disabled"}
}
