package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"flatsense/internal/platform/store"
)

type scriptRow struct {
	vals []any
	err  error
}

func (r scriptRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case **float64:
			*p = r.vals[i].(*float64)
		case *int64:
			*p = r.vals[i].(int64)
		case *string:
			*p = r.vals[i].(string)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

// scriptQ serves QueryRow results in order
type scriptQ struct {
	script []scriptRow
	i      int
}

func (q *scriptQ) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, errors.New("unexpected Exec")
}

func (q *scriptQ) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (q *scriptQ) QueryRow(context.Context, string, ...any) store.Row {
	if q.i >= len(q.script) {
		return scriptRow{err: errors.New("script exhausted")}
	}
	r := q.script[q.i]
	q.i++
	return r
}

func medianRow(rows int64) scriptRow {
	area := 92.0
	sLow := 4.0
	sHigh := 6.0
	lease := 1990.0
	remain := 420.0
	return scriptRow{vals: []any{&area, &sLow, &sHigh, &lease, &remain, rows}}
}

func TestTypical_ModalModelErrorSurfaces(t *testing.T) {
	q := &scriptQ{script: []scriptRow{
		medianRow(5),
		{err: errors.New("boom")},
	}}
	r := NewPG().Bind(q)

	_, err := r.Typical(context.Background(), "ANG MO KIO", "4 ROOM")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("db failure on the modal query must surface, got %v", err)
	}
}

func TestTypical_AllNullModelsTolerated(t *testing.T) {
	q := &scriptQ{script: []scriptRow{
		medianRow(5),
		{err: pgx.ErrNoRows},
	}}
	r := NewPG().Bind(q)

	typ, err := r.Typical(context.Background(), "ANG MO KIO", "4 ROOM")
	if err != nil {
		t.Fatalf("typical: %v", err)
	}
	if typ.FlatModel != "" {
		t.Fatalf("flat model = %q, want empty when no row has one", typ.FlatModel)
	}
	if typ.Rows != 5 || typ.FloorAreaSqm != 92 {
		t.Fatalf("medians lost: %+v", typ)
	}
}
