package drift

import (
	"math"
	"testing"
)

func TestBuildHistogram_QuantileEdges(t *testing.T) {
	vals := make([]float64, 100)
	for i := range vals {
		vals[i] = float64(i)
	}
	h := BuildHistogram(vals, 10)

	if len(h.Share) != len(h.Edges)+1 {
		t.Fatalf("share buckets %d, want edges+1 = %d", len(h.Share), len(h.Edges)+1)
	}
	var sum float64
	for _, s := range h.Share {
		sum += s
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("shares sum to %g, want 1", sum)
	}
}

func TestBuildHistogram_DegenerateInput(t *testing.T) {
	h := BuildHistogram(nil, 10)
	if len(h.Share) != 1 || h.Share[0] != 1 {
		t.Fatalf("empty input should collapse to one full bucket, got %+v", h)
	}

	// constant series: every quantile cut is equal, edges dedupe away
	h = BuildHistogram([]float64{5, 5, 5, 5}, 10)
	if len(h.Edges) != 0 {
		t.Fatalf("constant input should have no edges, got %v", h.Edges)
	}
}

func TestPSI_ZeroOnIdenticalDistribution(t *testing.T) {
	vals := make([]float64, 200)
	for i := range vals {
		vals[i] = float64(i % 50)
	}
	ref := BuildHistogram(vals, 10)
	if psi := PSI(ref, vals); math.Abs(psi) > 1e-9 {
		t.Fatalf("psi on identical data = %g, want 0", psi)
	}
}

func TestPSI_DetectsShift(t *testing.T) {
	refVals := make([]float64, 200)
	curVals := make([]float64, 200)
	for i := range refVals {
		refVals[i] = float64(i % 50)
		curVals[i] = float64(i%50) + 100 // fully displaced
	}
	ref := BuildHistogram(refVals, 10)
	if psi := PSI(ref, curVals); psi < 0.2 {
		t.Fatalf("psi on displaced data = %g, want >= 0.2", psi)
	}
}

func TestPSI_EmptyCurrentScoresZero(t *testing.T) {
	ref := BuildHistogram([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)
	if psi := PSI(ref, nil); psi != 0 {
		t.Fatalf("psi with no current data = %g, want 0", psi)
	}
}

func TestShares(t *testing.T) {
	s := Shares([]string{"A", "A", "B", "C"})
	if s["A"] != 0.5 || s["B"] != 0.25 || s["C"] != 0.25 {
		t.Fatalf("shares = %v", s)
	}
	if len(Shares(nil)) != 0 {
		t.Fatalf("empty input should yield empty shares")
	}
}

func TestShareDelta(t *testing.T) {
	ref := map[string]float64{"A": 0.6, "B": 0.4}
	cur := map[string]float64{"A": 0.3, "B": 0.4, "C": 0.3}

	// A moved by 0.3, C appeared at 0.3
	if d := ShareDelta(ref, cur); math.Abs(d-0.3) > 1e-12 {
		t.Fatalf("delta = %g, want 0.3", d)
	}

	// a vanished reference category counts at its full share
	if d := ShareDelta(map[string]float64{"A": 1}, map[string]float64{"B": 1}); d != 1 {
		t.Fatalf("delta = %g, want 1", d)
	}

	if d := ShareDelta(ref, ref); d != 0 {
		t.Fatalf("identical shares drift = %g, want 0", d)
	}
}
