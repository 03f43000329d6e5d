package regress

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"flatsense/internal/core/feature"
)

// Layout fixes the encoded column order of the design matrix
// it is persisted with the model so prediction encodes rows identically
type Layout struct {
	Towns      []string `json:"towns"`
	FlatTypes  []string `json:"flat_types"`
	FlatModels []string `json:"flat_models"`

	// LeaseMean imputes remaining_lease_years when the source is unknown
	LeaseMean float64 `json:"lease_mean"`
}

// Cols returns the total number of encoded columns including the intercept
func (l Layout) Cols() int {
	return 5 + len(l.Towns) + len(l.FlatTypes) + len(l.FlatModels)
}

// BuildLayout derives a Layout from training vectors
// categories are sorted for a stable column order across runs
func BuildLayout(vs []feature.Vector) Layout {
	towns := map[string]struct{}{}
	types := map[string]struct{}{}
	models := map[string]struct{}{}
	var leaseSum float64
	var leaseN int
	for _, v := range vs {
		towns[v.Town] = struct{}{}
		types[v.FlatType] = struct{}{}
		if v.FlatModel != "" {
			models[v.FlatModel] = struct{}{}
		}
		if v.RemainingLeaseYears != nil {
			leaseSum += *v.RemainingLeaseYears
			leaseN++
		}
	}
	l := Layout{
		Towns:      sortedKeys(towns),
		FlatTypes:  sortedKeys(types),
		FlatModels: sortedKeys(models),
	}
	if leaseN > 0 {
		l.LeaseMean = leaseSum / float64(leaseN)
	}
	return l
}

// Encode maps one vector onto the layout's column order
// an unseen category leaves its one-hot block all zero
func Encode(v feature.Vector, l Layout) []float64 {
	row := make([]float64, l.Cols())
	row[0] = 1 // intercept
	row[1] = v.FloorAreaSqm
	row[2] = v.StoreyMid
	row[3] = v.FlatAge
	if v.RemainingLeaseYears != nil {
		row[4] = *v.RemainingLeaseYears
	} else {
		row[4] = l.LeaseMean
	}
	off := 5
	off = oneHot(row, off, l.Towns, v.Town)
	off = oneHot(row, off, l.FlatTypes, v.FlatType)
	oneHot(row, off, l.FlatModels, v.FlatModel)
	return row
}

// EncodeAll builds the dense design matrix for a batch
func EncodeAll(vs []feature.Vector, l Layout) *mat.Dense {
	x := mat.NewDense(len(vs), l.Cols(), nil)
	for i, v := range vs {
		x.SetRow(i, Encode(v, l))
	}
	return x
}

func oneHot(row []float64, off int, levels []string, val string) int {
	for i, lv := range levels {
		if lv == val {
			row[off+i] = 1
			break
		}
	}
	return off + len(levels)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
