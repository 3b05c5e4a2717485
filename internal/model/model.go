// Package model loads the pre-trained scaler+classifier artifact applied by
// edge nodes. The artifact is an opaque blob from the training pipeline;
// nothing is trained here.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"fog-fraud-lab/internal/domain"
)

// InputDim is the classifier's feature vector width: the domain time value,
// the 28 anonymized features and the amount, in that order.
const InputDim = domain.FeatureCount + 2

// Artifact is the serialized scaler + classifier pair.
type Artifact struct {
	Scaler     Scaler     `json:"scaler"`
	Classifier Classifier `json:"classifier"`
}

// Scaler is a standard scaler: x' = (x - mean) / scale per position.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Classifier is a logistic regression over scaled features.
type Classifier struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Load reads and validates the artifact at path. Loaded once at process
// start; the artifact is immutable afterwards.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &a, nil
}

func (a *Artifact) validate() error {
	if len(a.Scaler.Mean) != InputDim || len(a.Scaler.Scale) != InputDim {
		return fmt.Errorf("scaler expects %d positions, got mean=%d scale=%d",
			InputDim, len(a.Scaler.Mean), len(a.Scaler.Scale))
	}
	if len(a.Classifier.Weights) != InputDim {
		return fmt.Errorf("classifier expects %d weights, got %d", InputDim, len(a.Classifier.Weights))
	}
	for i, s := range a.Scaler.Scale {
		if s == 0 {
			return fmt.Errorf("scaler scale[%d] is zero", i)
		}
	}
	return nil
}

// Transform applies the standard scaler to a feature vector.
func (a *Artifact) Transform(features []float64) ([]float64, error) {
	if len(features) != InputDim {
		return nil, fmt.Errorf("transform expects %d features, got %d", InputDim, len(features))
	}
	scaled := make([]float64, InputDim)
	for i, f := range features {
		scaled[i] = (f - a.Scaler.Mean[i]) / a.Scaler.Scale[i]
	}
	return scaled, nil
}

// Predict classifies a scaled feature vector as legitimate (0) or fraud (1).
func (a *Artifact) Predict(scaled []float64) (int, error) {
	if len(scaled) != InputDim {
		return 0, fmt.Errorf("predict expects %d features, got %d", InputDim, len(scaled))
	}
	z := a.Classifier.Intercept
	for i, f := range scaled {
		z += a.Classifier.Weights[i] * f
	}
	if sigmoid(z) >= 0.5 {
		return domain.PredictionFraud, nil
	}
	return domain.PredictionLegitimate, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
