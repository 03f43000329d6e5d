// Package repo provides postgres access for the market service
package repo

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"flatsense/internal/core/feature"
	"flatsense/internal/modkit/repokit"
	"flatsense/internal/platform/store"
	"flatsense/internal/services/market/domain"
)

// Repo is the minimal persistence surface for market reads
type Repo interface {
	Vocabulary(ctx context.Context) (towns, flatTypes []string, err error)
	Typical(ctx context.Context, town, flatType string) (domain.Typical, error)
	Premium(ctx context.Context, town, flatType string, since time.Time, lowMax, highMin float64) (domain.PremiumSample, error)
	Volume(ctx context.Context, since time.Time, flatType string, limit int) ([]domain.VolumeRow, error)
	TrainingSet(ctx context.Context) ([]feature.Transaction, domain.Window, error)
	LatestMonth(ctx context.Context) (time.Time, bool, error)
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Vocabulary(ctx context.Context) ([]string, []string, error) {
	towns, err := scanStrings(r.q, ctx, `select name from town order by name`)
	if err != nil {
		return nil, nil, err
	}
	types, err := scanStrings(r.q, ctx, `select distinct flat_type from resale_transaction order by flat_type`)
	if err != nil {
		return nil, nil, err
	}
	return towns, types, nil
}

func (r *queries) Typical(ctx context.Context, town, flatType string) (domain.Typical, error) {
	const sql = `
select
	percentile_cont(0.5) within group (order by t.floor_area_sqm),
	percentile_cont(0.5) within group (order by t.storey_low),
	percentile_cont(0.5) within group (order by t.storey_high),
	percentile_cont(0.5) within group (order by t.lease_commence_year),
	percentile_cont(0.5) within group (order by t.remaining_lease_months),
	count(1)
from resale_transaction t
join town tn on tn.id = t.town_id
where tn.name = $1 and t.flat_type = $2
`
	out := domain.Typical{Town: town, FlatType: flatType}
	var area, sLow, sHigh, lease, remain *float64
	if err := r.q.QueryRow(ctx, sql, town, flatType).
		Scan(&area, &sLow, &sHigh, &lease, &remain, &out.Rows); err != nil {
		return domain.Typical{}, err
	}
	if out.Rows == 0 {
		return out, nil
	}
	if area != nil {
		out.FloorAreaSqm = *area
	}
	if sLow != nil {
		out.StoreyLow = int(math.Round(*sLow))
	}
	if sHigh != nil {
		out.StoreyHigh = int(math.Round(*sHigh))
	}
	if lease != nil {
		y := int(math.Round(*lease))
		out.LeaseCommenceYear = &y
	}
	if remain != nil {
		m := int(math.Round(*remain))
		out.RemainingLeaseMonths = &m
	}

	const modalSQL = `
select t.flat_model
from resale_transaction t
join town tn on tn.id = t.town_id
where tn.name = $1 and t.flat_type = $2 and t.flat_model is not null
group by t.flat_model
order by count(1) desc, t.flat_model asc
limit 1
`
	var model string
	switch err := r.q.QueryRow(ctx, modalSQL, town, flatType).Scan(&model); {
	case err == nil:
		out.FlatModel = model
	case errors.Is(err, pgx.ErrNoRows):
		// every row for the pair carries a null flat_model
	default:
		return domain.Typical{}, err
	}
	return out, nil
}

func (r *queries) Premium(
	ctx context.Context,
	town, flatType string,
	since time.Time,
	lowMax, highMin float64,
) (domain.PremiumSample, error) {
	const sql = `
select
	percentile_cont(0.5) within group (order by t.resale_price)
		filter (where (t.storey_low + t.storey_high) / 2.0 <= $4),
	count(1) filter (where (t.storey_low + t.storey_high) / 2.0 <= $4),
	percentile_cont(0.5) within group (order by t.resale_price)
		filter (where (t.storey_low + t.storey_high) / 2.0 >= $5),
	count(1) filter (where (t.storey_low + t.storey_high) / 2.0 >= $5),
	percentile_cont(0.5) within group (order by t.resale_price)
from resale_transaction t
join town tn on tn.id = t.town_id
where tn.name = $1 and t.flat_type = $2 and t.month >= $3
`
	var out domain.PremiumSample
	var medLow, medHigh, medAll *float64
	if err := r.q.QueryRow(ctx, sql, town, flatType, since, lowMax, highMin).
		Scan(&medLow, &out.LowN, &medHigh, &out.HighN, &medAll); err != nil {
		return domain.PremiumSample{}, err
	}
	if medLow != nil {
		out.MedianLow = *medLow
	}
	if medHigh != nil {
		out.MedianHigh = *medHigh
	}
	if medAll != nil {
		out.MedianAll = *medAll
	}
	return out, nil
}

func (r *queries) Volume(
	ctx context.Context,
	since time.Time,
	flatType string,
	limit int,
) ([]domain.VolumeRow, error) {
	const sql = `
select tn.name, count(1) as n
from resale_transaction t
join town tn on tn.id = t.town_id
where t.month >= $1
and ($2 = '' or t.flat_type = $2)
group by tn.name
order by n asc, tn.name asc
limit $3
`
	return store.Many(ctx, r.q, func(row store.Row) (domain.VolumeRow, error) {
		var vr domain.VolumeRow
		err := row.Scan(&vr.Town, &vr.Count)
		return vr, err
	}, sql, since, flatType, limit)
}

func (r *queries) TrainingSet(ctx context.Context) ([]feature.Transaction, domain.Window, error) {
	const sql = `
select
	t.month, tn.name, coalesce(t.block, ''), coalesce(t.street_name, ''),
	t.flat_type, coalesce(t.flat_model, ''),
	t.storey_low, t.storey_high, t.floor_area_sqm,
	t.lease_commence_year, t.remaining_lease_months, t.resale_price
from resale_transaction t
join town tn on tn.id = t.town_id
order by t.month asc, t.id asc
`
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, domain.Window{}, err
	}
	defer rows.Close()

	var out []feature.Transaction
	var w domain.Window
	for rows.Next() {
		var tx feature.Transaction
		if err := rows.Scan(
			&tx.Month, &tx.Town, &tx.Block, &tx.Street,
			&tx.FlatType, &tx.FlatModel,
			&tx.StoreyLow, &tx.StoreyHigh, &tx.FloorAreaSqm,
			&tx.LeaseCommenceYear, &tx.RemainingLeaseMonths, &tx.ResalePrice,
		); err != nil {
			return nil, domain.Window{}, err
		}
		if w.Start.IsZero() || tx.Month.Before(w.Start) {
			w.Start = tx.Month
		}
		if tx.Month.After(w.End) {
			w.End = tx.Month
		}
		out = append(out, tx)
	}
	return out, w, rows.Err()
}

func (r *queries) LatestMonth(ctx context.Context) (time.Time, bool, error) {
	m, err := store.Scalar[*time.Time](ctx, r.q, `select max(month) from resale_transaction`)
	if err != nil {
		return time.Time{}, false, err
	}
	if m == nil {
		return time.Time{}, false, nil
	}
	return *m, true, nil
}

func scanStrings(q repokit.Queryer, ctx context.Context, sql string, args ...any) ([]string, error) {
	return store.Many(ctx, q, func(row store.Row) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	}, sql, args...)
}
