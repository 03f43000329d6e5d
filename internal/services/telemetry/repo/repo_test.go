package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"flatsense/internal/platform/store"
	"flatsense/internal/services/telemetry/domain"
)

type fakeRows struct {
	vals []any
	read bool
}

func (r *fakeRows) Next() bool {
	if r.read || r.vals == nil {
		return false
	}
	r.read = true
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) != len(r.vals) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *float64:
			*p = r.vals[i].(float64)
		case *int64:
			*p = r.vals[i].(int64)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

func (r *fakeRows) Err() error        { return nil }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return nil }

type fakeCH struct {
	gotTable string
	gotRows  [][]any
	gotSQL   string
	rows     *fakeRows
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	f.gotTable = table
	f.gotRows = rows
	return nil
}

func (f *fakeCH) Query(_ context.Context, sql string, _ ...any) (store.Rows, error) {
	f.gotSQL = sql
	if f.rows == nil {
		return &fakeRows{}, nil
	}
	return f.rows, nil
}

func (f *fakeCH) Close() error { return nil }

func TestAppend_OneEventOneBatch(t *testing.T) {
	ch := &fakeCH{}
	r := NewCH(ch)

	e := domain.ToolCall("t_price_estimates", 12*time.Millisecond, nil)
	if err := r.Append(context.Background(), e); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ch.gotTable != "telemetry_events" {
		t.Fatalf("table = %q", ch.gotTable)
	}
	if len(ch.gotRows) != 1 || len(ch.gotRows[0]) != 13 {
		t.Fatalf("row shape = %d x %d", len(ch.gotRows), len(ch.gotRows[0]))
	}
	if ch.gotRows[0][3] != uint8(1) {
		t.Fatalf("ok flag = %v, want uint8(1)", ch.gotRows[0][3])
	}
}

func TestAggregate_ScansRollup(t *testing.T) {
	ch := &fakeCH{rows: &fakeRows{vals: []any{12.5, 30.0, int64(3)}}}
	r := NewCH(ch)

	agg, err := r.Aggregate(context.Background(), "t_price_estimates", time.Time{})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.LatencyAvg != 12.5 || agg.LatencyP95 != 30.0 || agg.ErrorCount != 3 {
		t.Fatalf("aggregate = %+v", agg)
	}
}

// the error count rides the wire as UInt64 unless cast, and avg/quantile
// return nan over an empty window; both must be handled in the query itself
func TestAggregate_QueryGuards(t *testing.T) {
	ch := &fakeCH{}
	r := NewCH(ch)

	if _, err := r.Aggregate(context.Background(), "", time.Time{}); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !strings.Contains(ch.gotSQL, "toInt64(countIf(ok = 0))") {
		t.Fatalf("error count not cast to Int64 in query:\n%s", ch.gotSQL)
	}
	if strings.Count(ch.gotSQL, "isNaN") != 2 {
		t.Fatalf("avg and quantile must both guard against nan:\n%s", ch.gotSQL)
	}
}

func TestAggregate_EmptyLogIsZero(t *testing.T) {
	r := NewCH(&fakeCH{})

	agg, err := r.Aggregate(context.Background(), "", time.Time{})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg != (domain.Aggregate{}) {
		t.Fatalf("empty log aggregate = %+v, want zeros", agg)
	}
}
