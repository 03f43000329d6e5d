package domain

import "context"

// DetectorPort computes a drift report on demand
type DetectorPort interface {
	// Compute compares the latest transaction month against the stored
	// model reference, bootstrapping the reference if none exists
	Compute(ctx context.Context) (Report, error)
}
