// Package domain defines the estimator model types
package domain

import (
	"time"

	"flatsense/internal/core/drift"
	"flatsense/internal/core/regress"
)

// Prediction is the estimator output for one feature vector
// quantile fields stay nil when quantile offsets are disabled
type Prediction struct {
	Point        float64  `json:"point"`
	Q10          *float64 `json:"q10,omitempty"`
	Q50          *float64 `json:"q50,omitempty"`
	Q90          *float64 `json:"q90,omitempty"`
	ModelVersion string   `json:"model_version"`
}

// Artifact is the persisted trained estimator payload
type Artifact struct {
	Layout regress.Layout `json:"layout"`
	Coeffs []float64      `json:"coeffs"`
	Lambda float64        `json:"lambda"`

	// residual quantile offsets relative to the point estimate
	Q10Off *float64 `json:"q10_off,omitempty"`
	Q50Off *float64 `json:"q50_off,omitempty"`
	Q90Off *float64 `json:"q90_off,omitempty"`
}

// Reference captures training-time distributions for drift comparison
type Reference struct {
	Numeric     map[string]drift.Histogram    `json:"numeric"`
	Categorical map[string]map[string]float64 `json:"categorical"`
}

// Empty reports whether the reference carries no distributions
func (r Reference) Empty() bool {
	return len(r.Numeric) == 0 && len(r.Categorical) == 0
}

// Metadata describes one trained model generation
type Metadata struct {
	Version    string    `json:"version"`
	TrainedAt  time.Time `json:"trained_at"`
	TrainStart time.Time `json:"train_start"`
	TrainEnd   time.Time `json:"train_end"`
	TrainRows  int64     `json:"train_rows"`
}

// Model bundles everything one model_artifact row holds
type Model struct {
	Meta      Metadata
	Artifact  Artifact
	Reference Reference
}
