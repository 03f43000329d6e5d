package domain

import (
	"context"

	"flatsense/internal/core/feature"
)

// EstimatorPort is the narrow prediction contract downstream tools call
type EstimatorPort interface {
	Predict(ctx context.Context, v feature.Vector) (Prediction, error)
}

// ModelPort exposes the trained model for monitoring consumers
// Ensure loads the persisted model or trains once; created reports a fresh
// training run so callers can tell bootstrap from reuse
type ModelPort interface {
	Ensure(ctx context.Context) (m *Model, created bool, err error)
}
