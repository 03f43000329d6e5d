// Package feature turns resale transactions into model-ready feature vectors
// Transforms are pure: no I/O, no side effects, recomputed on every call
package feature

import (
	"time"

	perr "flatsense/internal/platform/errors"
)

// Transaction is one immutable historical resale record
// optional fields use pointers so absence survives the trip from the store
type Transaction struct {
	Month                time.Time
	Town                 string
	Block                string
	Street               string
	FlatType             string
	FlatModel            string
	StoreyLow            int
	StoreyHigh           int
	FloorAreaSqm         float64
	LeaseCommenceYear    *int
	RemainingLeaseMonths *int
	ResalePrice          float64
}

// Vector is the derived per-transaction feature vector
// RemainingLeaseYears stays nil when the source months are unknown so the
// estimator can impute rather than silently read a zero
type Vector struct {
	Town                string
	FlatType            string
	FlatModel           string
	FloorAreaSqm        float64
	StoreyMid           float64
	FlatAge             float64
	RemainingLeaseYears *float64
}

// Transform derives a Vector from one transaction as of the given query time
// flat_age clips at zero when lease_commence_year postdates asOf or is absent
func Transform(tx Transaction, asOf time.Time) (Vector, error) {
	if tx.StoreyLow > tx.StoreyHigh {
		return Vector{}, perr.Validationf("storey_low %d exceeds storey_high %d", tx.StoreyLow, tx.StoreyHigh)
	}
	if tx.FloorAreaSqm <= 0 {
		return Vector{}, perr.Validationf("floor_area_sqm must be positive, got %g", tx.FloorAreaSqm)
	}

	v := Vector{
		Town:         tx.Town,
		FlatType:     tx.FlatType,
		FlatModel:    tx.FlatModel,
		FloorAreaSqm: tx.FloorAreaSqm,
		StoreyMid:    float64(tx.StoreyLow+tx.StoreyHigh) / 2,
	}

	if tx.LeaseCommenceYear != nil {
		if age := float64(asOf.Year() - *tx.LeaseCommenceYear); age > 0 {
			v.FlatAge = age
		}
	}

	if tx.RemainingLeaseMonths != nil {
		years := float64(*tx.RemainingLeaseMonths) / 12
		v.RemainingLeaseYears = &years
	}

	return v, nil
}

// TransformAll derives vectors for an ordered batch, preserving order
// field semantics are identical to Transform; the first bad row aborts
func TransformAll(txs []Transaction, asOf time.Time) ([]Vector, error) {
	out := make([]Vector, 0, len(txs))
	for i, tx := range txs {
		v, err := Transform(tx, asOf)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "row %d", i)
		}
		out = append(out, v)
	}
	return out, nil
}
