package domain

import (
	"context"
	"time"
)

// RecorderPort appends events, best effort
// a failed write must never surface to the tool caller
type RecorderPort interface {
	Record(ctx context.Context, e Event)
}

// ReaderPort aggregates the append-only log for dashboards
type ReaderPort interface {
	Aggregate(ctx context.Context, tool string, since time.Time) (Aggregate, error)
}
