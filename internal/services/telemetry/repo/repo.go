// Package repo provides clickhouse access for the telemetry log
package repo

import (
	"context"
	"time"

	"flatsense/internal/platform/store"
	"flatsense/internal/services/telemetry/domain"
)

// table is the append-only event log
const table = "telemetry_events"

// Repo is the telemetry persistence surface
type Repo interface {
	Append(ctx context.Context, e domain.Event) error
	Aggregate(ctx context.Context, tool string, since time.Time) (domain.Aggregate, error)
}

// CH implements Repo over the clickhouse seam
type CH struct{ db store.Clickhouse }

// NewCH constructs a clickhouse telemetry repo
func NewCH(db store.Clickhouse) *CH {
	if db == nil {
		panic("telemetry.Repo requires a non nil Clickhouse seam")
	}
	return &CH{db: db}
}

// Append writes one event as its own atomic batch
// concurrent writers are independent; no cross-event ordering is promised
func (r *CH) Append(ctx context.Context, e domain.Event) error {
	ok := uint8(0)
	if e.OK {
		ok = 1
	}
	row := []any{
		e.TS, string(e.Kind), e.Tool, ok, e.Ms, e.Error,
		e.Raw, e.Town, e.FlatType, e.Month, e.Intent, e.ModelVersion, e.Payload,
	}
	return r.db.Insert(ctx, table, [][]any{row})
}

// Aggregate reads the dashboard rollup over tool_call events
// avg and quantile return nan over an empty window, not null, so the guards
// are isNaN; countIf is UInt64 on the wire and must be cast for the scan
func (r *CH) Aggregate(ctx context.Context, tool string, since time.Time) (domain.Aggregate, error) {
	const sql = `
select
	if(isNaN(avg(ms)), 0, avg(ms)),
	if(isNaN(quantile(0.95)(ms)), 0, quantile(0.95)(ms)),
	toInt64(countIf(ok = 0))
from telemetry_events
where kind = 'tool_call'
	and (? = '' or tool = ?)
	and ts >= ?
`
	rows, err := r.db.Query(ctx, sql, tool, tool, since)
	if err != nil {
		return domain.Aggregate{}, err
	}
	defer rows.Close()

	var out domain.Aggregate
	if rows.Next() {
		if err := rows.Scan(&out.LatencyAvg, &out.LatencyP95, &out.ErrorCount); err != nil {
			return domain.Aggregate{}, err
		}
	}
	return out, rows.Err()
}
