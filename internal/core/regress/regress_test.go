package regress

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"flatsense/internal/core/feature"
)

func floatp(v float64) *float64 { return &v }

func TestRidge_RecoversLinearRelation(t *testing.T) {
	// y = 10 + 3*x with a tiny lambda; the solve should land very close
	n := 50
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		xi := float64(i)
		x.SetRow(i, []float64{1, xi})
		y[i] = 10 + 3*xi
	}

	beta, err := Ridge(x, y, 1e-9)
	if err != nil {
		t.Fatalf("ridge: %v", err)
	}
	if math.Abs(beta[0]-10) > 0.01 || math.Abs(beta[1]-3) > 0.001 {
		t.Fatalf("beta = %v, want approx [10 3]", beta)
	}

	if got := Predict([]float64{1, 7}, beta); math.Abs(got-31) > 0.05 {
		t.Fatalf("predict = %g, want approx 31", got)
	}
}

func TestRidge_RejectsShapeMismatch(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 1, 1, 2})
	if _, err := Ridge(x, []float64{1}, 1); err == nil {
		t.Fatalf("expected error on row/target mismatch")
	}
}

func TestResiduals_ZeroOnPerfectFit(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 0, 1, 1, 1, 2})
	beta := []float64{5, 2}
	y := []float64{5, 7, 9}
	for _, r := range Residuals(x, y, beta) {
		if math.Abs(r) > 1e-12 {
			t.Fatalf("residual %g, want 0", r)
		}
	}
}

func TestQuantile(t *testing.T) {
	vals := []float64{9, 1, 5, 3, 7}
	if q := Quantile(vals, 0.5); q != 5 {
		t.Fatalf("median = %g, want 5", q)
	}
	if q := Quantile(vals, 0); q != 1 {
		t.Fatalf("p0 = %g, want 1", q)
	}
	if q := Quantile(vals, 1); q != 9 {
		t.Fatalf("p1 = %g, want 9", q)
	}
	if q := Quantile(nil, 0.5); q != 0 {
		t.Fatalf("empty quantile = %g, want 0", q)
	}
}

func TestBuildLayout_SortedAndImputing(t *testing.T) {
	vs := []feature.Vector{
		{Town: "BISHAN", FlatType: "4 ROOM", FlatModel: "IMPROVED", RemainingLeaseYears: floatp(30)},
		{Town: "ANG MO KIO", FlatType: "3 ROOM", FlatModel: "NEW GENERATION", RemainingLeaseYears: floatp(40)},
		{Town: "ANG MO KIO", FlatType: "4 ROOM"},
	}
	l := BuildLayout(vs)

	if len(l.Towns) != 2 || l.Towns[0] != "ANG MO KIO" || l.Towns[1] != "BISHAN" {
		t.Fatalf("towns = %v, want sorted distinct", l.Towns)
	}
	if len(l.FlatModels) != 2 {
		t.Fatalf("flat_models = %v, blanks must be dropped", l.FlatModels)
	}
	if l.LeaseMean != 35 {
		t.Fatalf("lease_mean = %g, want 35 over known leases only", l.LeaseMean)
	}
}

func TestEncode_OneHotAndImputation(t *testing.T) {
	l := Layout{
		Towns:     []string{"ANG MO KIO", "BISHAN"},
		FlatTypes: []string{"3 ROOM", "4 ROOM"},
		LeaseMean: 42,
	}

	row := Encode(feature.Vector{
		Town: "BISHAN", FlatType: "3 ROOM",
		FloorAreaSqm: 90, StoreyMid: 5, FlatAge: 30,
	}, l)

	if len(row) != l.Cols() {
		t.Fatalf("row width %d, want %d", len(row), l.Cols())
	}
	if row[0] != 1 || row[1] != 90 || row[2] != 5 || row[3] != 30 {
		t.Fatalf("numeric block = %v", row[:4])
	}
	if row[4] != 42 {
		t.Fatalf("missing lease must impute the layout mean, got %g", row[4])
	}
	if row[5] != 0 || row[6] != 1 {
		t.Fatalf("town one-hot = %v", row[5:7])
	}
	if row[7] != 1 || row[8] != 0 {
		t.Fatalf("flat_type one-hot = %v", row[7:9])
	}

	// unseen category leaves its block all zero
	row = Encode(feature.Vector{Town: "PUNGGOL", FlatType: "4 ROOM", FloorAreaSqm: 80}, l)
	if row[5] != 0 || row[6] != 0 {
		t.Fatalf("unseen town must encode all-zero, got %v", row[5:7])
	}
}
