// Package domain defines the types and interfaces for the market service
package domain

import "time"

// Window is the inclusive month range covered by a set of transactions
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Typical is the representative query context for a (town, flat_type) pair:
// median numerics and the modal flat model over the pair's full history
// Rows is the historical row count backing the medians; zero means the pair
// has never traded
type Typical struct {
	Town                 string
	FlatType             string
	FlatModel            string
	FloorAreaSqm         float64
	StoreyLow            int
	StoreyHigh           int
	LeaseCommenceYear    *int
	RemainingLeaseMonths *int
	Rows                 int64
}

// PremiumSample is the storey-band price split used for floor premiums
// medians are taken over the premium window, zero when the band is empty
type PremiumSample struct {
	MedianLow  float64
	MedianHigh float64
	MedianAll  float64
	LowN       int64
	HighN      int64
}

// VolumeRow is one entry of the scarcity ranking
type VolumeRow struct {
	Town  string `json:"town"`
	Count int64  `json:"transaction_count"`
}
