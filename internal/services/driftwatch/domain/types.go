// Package domain contains drift monitoring types and ports
package domain

// Kind tags how a feature's shift score was computed
type Kind string

// Feature kinds
const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Status grades a metric against its threshold
type Status string

// Metric statuses
const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
)

// Metric is one feature's shift measurement
// numeric features carry a population-stability index, categorical features
// the largest absolute share change across categories
type Metric struct {
	Feature   string  `json:"feature"`
	Kind      Kind    `json:"kind"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Status    Status  `json:"status"`
}

// Report compares the current window against the training-time reference
// ReferenceCreated distinguishes "drift measured as zero" from "reference
// just created on this call"
type Report struct {
	ModelVersion     string   `json:"model_version"`
	ReferenceCreated bool     `json:"reference_created"`
	Window           string   `json:"window"`
	CurrentRows      int      `json:"current_rows"`
	Metrics          []Metric `json:"metrics"`
}
