package domain

import (
	"context"
	"time"

	"flatsense/internal/core/feature"
)

// ReaderPort is the transaction-store read surface the analytics core uses
// the store is read only from this side; ingestion lives elsewhere
type ReaderPort interface {
	// Vocabulary returns the distinct town names and flat types on record
	Vocabulary(ctx context.Context) (towns, flatTypes []string, err error)

	// Typical returns the representative query context for a pair
	Typical(ctx context.Context, town, flatType string) (Typical, error)

	// Premium returns the storey-band price split since the cutoff month
	Premium(ctx context.Context, town, flatType string, since time.Time) (PremiumSample, error)

	// Volume ranks towns ascending by transaction count since the cutoff
	Volume(ctx context.Context, since time.Time, flatType string, limit int) ([]VolumeRow, error)

	// TrainingSet returns every transaction plus the covered month window
	TrainingSet(ctx context.Context) ([]feature.Transaction, Window, error)

	// LatestMonth returns the most recent transaction month on record
	// ok is false when the store is empty
	LatestMonth(ctx context.Context) (m time.Time, ok bool, err error)
}
