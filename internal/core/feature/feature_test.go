package feature

import (
	"testing"
	"time"

	perr "flatsense/internal/platform/errors"
)

func intp(v int) *int { return &v }

func month(s string) time.Time {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTransform_StoreyMid(t *testing.T) {
	tx := Transaction{StoreyLow: 4, StoreyHigh: 6, FloorAreaSqm: 90}
	v, err := Transform(tx, month("2024-01"))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if v.StoreyMid != 5 {
		t.Fatalf("storey_mid = %g, want 5", v.StoreyMid)
	}

	// degenerate band: low == high
	tx.StoreyLow, tx.StoreyHigh = 7, 7
	v, err = Transform(tx, month("2024-01"))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if v.StoreyMid != 7 {
		t.Fatalf("storey_mid = %g, want 7", v.StoreyMid)
	}
}

func TestTransform_RejectsInvertedStoreys(t *testing.T) {
	_, err := Transform(Transaction{StoreyLow: 8, StoreyHigh: 5, FloorAreaSqm: 90}, month("2024-01"))
	if err == nil {
		t.Fatalf("expected error for storey_low > storey_high")
	}
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestTransform_RejectsNonPositiveArea(t *testing.T) {
	_, err := Transform(Transaction{StoreyLow: 1, StoreyHigh: 3, FloorAreaSqm: 0}, month("2024-01"))
	if err == nil {
		t.Fatalf("expected error for zero floor area")
	}
}

func TestTransform_FlatAgeClipsAtZero(t *testing.T) {
	// lease commences after the query month; naive subtraction would go negative
	tx := Transaction{StoreyLow: 1, StoreyHigh: 3, FloorAreaSqm: 90, LeaseCommenceYear: intp(2030)}
	v, err := Transform(tx, month("2024-06"))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if v.FlatAge != 0 {
		t.Fatalf("flat_age = %g, want 0", v.FlatAge)
	}

	tx.LeaseCommenceYear = intp(1990)
	v, _ = Transform(tx, month("2024-06"))
	if v.FlatAge != 34 {
		t.Fatalf("flat_age = %g, want 34", v.FlatAge)
	}
}

func TestTransform_MissingLeaseYearMeansZeroAge(t *testing.T) {
	v, err := Transform(Transaction{StoreyLow: 1, StoreyHigh: 3, FloorAreaSqm: 90}, month("2024-06"))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if v.FlatAge != 0 {
		t.Fatalf("flat_age = %g, want 0", v.FlatAge)
	}
}

func TestTransform_RemainingLeasePreservesAbsence(t *testing.T) {
	v, err := Transform(Transaction{StoreyLow: 1, StoreyHigh: 3, FloorAreaSqm: 90}, month("2024-06"))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if v.RemainingLeaseYears != nil {
		t.Fatalf("remaining_lease_years should stay nil when months are unknown")
	}

	v, _ = Transform(Transaction{StoreyLow: 1, StoreyHigh: 3, FloorAreaSqm: 90, RemainingLeaseMonths: intp(420)}, month("2024-06"))
	if v.RemainingLeaseYears == nil || *v.RemainingLeaseYears != 35 {
		t.Fatalf("remaining_lease_years = %v, want 35", v.RemainingLeaseYears)
	}
}

func TestTransformAll_AbortsOnFirstBadRow(t *testing.T) {
	txs := []Transaction{
		{StoreyLow: 1, StoreyHigh: 3, FloorAreaSqm: 90},
		{StoreyLow: 9, StoreyHigh: 3, FloorAreaSqm: 90},
	}
	_, err := TransformAll(txs, month("2024-01"))
	if err == nil {
		t.Fatalf("expected error from bad row")
	}

	out, err := TransformAll(txs[:1], month("2024-01"))
	if err != nil || len(out) != 1 {
		t.Fatalf("expected one vector, got %d (err %v)", len(out), err)
	}
}
