// Package drift implements the distribution-shift math behind the drift
// detector: population stability index on quantile-cut histograms for numeric
// features and absolute share deltas for categorical ones
package drift

import (
	"math"
	"sort"
)

// epsilon keeps PSI finite when a bucket share hits zero
const epsilon = 1e-6

// Histogram is a reference numeric distribution: interior cut points and the
// share of observations per resulting bucket (len(Share) == len(Edges)+1)
type Histogram struct {
	Edges []float64 `json:"edges"`
	Share []float64 `json:"share"`
}

// BuildHistogram cuts vals into buckets at empirical quantiles and records
// each bucket's share. Duplicate cut points collapse, so sparse or constant
// data yields fewer buckets rather than bogus ones
func BuildHistogram(vals []float64, buckets int) Histogram {
	if len(vals) == 0 || buckets < 2 {
		return Histogram{Share: []float64{1}}
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	edges := make([]float64, 0, buckets-1)
	for i := 1; i < buckets; i++ {
		q := sorted[(i*len(sorted))/buckets]
		if len(edges) == 0 || q > edges[len(edges)-1] {
			edges = append(edges, q)
		}
	}
	return Histogram{Edges: edges, Share: bucketShares(vals, edges)}
}

// PSI scores how far cur drifted from the reference histogram
// zero means identical shares; common rule of thumb flags >= 0.2
func PSI(ref Histogram, cur []float64) float64 {
	if len(cur) == 0 || len(ref.Share) == 0 {
		return 0
	}
	curShare := bucketShares(cur, ref.Edges)

	var psi float64
	for i := range ref.Share {
		r := math.Max(ref.Share[i], epsilon)
		c := math.Max(curShare[i], epsilon)
		psi += (c - r) * math.Log(c/r)
	}
	return psi
}

// Shares returns each category's fraction of the total
func Shares(vals []string) map[string]float64 {
	if len(vals) == 0 {
		return map[string]float64{}
	}
	counts := map[string]float64{}
	for _, v := range vals {
		counts[v]++
	}
	n := float64(len(vals))
	for k := range counts {
		counts[k] /= n
	}
	return counts
}

// ShareDelta returns the largest absolute per-category share change between
// the reference and current distributions, covering categories on either side
func ShareDelta(ref, cur map[string]float64) float64 {
	var maxDelta float64
	seen := map[string]struct{}{}
	for k, r := range ref {
		seen[k] = struct{}{}
		if d := math.Abs(cur[k] - r); d > maxDelta {
			maxDelta = d
		}
	}
	for k, c := range cur {
		if _, ok := seen[k]; ok {
			continue
		}
		if d := math.Abs(c); d > maxDelta {
			maxDelta = d
		}
	}
	return maxDelta
}

// bucketShares counts vals into the buckets implied by edges
// buckets are left closed: an exact edge hit lands in the higher bucket,
// identically for reference and current so the comparison stays fair
func bucketShares(vals []float64, edges []float64) []float64 {
	share := make([]float64, len(edges)+1)
	if len(vals) == 0 {
		return share
	}
	for _, v := range vals {
		idx := sort.SearchFloat64s(edges, v)
		if idx < len(edges) && v == edges[idx] {
			idx++
		}
		if idx > len(edges) {
			idx = len(edges)
		}
		share[idx]++
	}
	n := float64(len(vals))
	for i := range share {
		share[i] /= n
	}
	return share
}
