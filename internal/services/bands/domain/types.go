// Package domain defines the banding tool types
package domain

// Assumptions are the finance constants behind the affordability fields
type Assumptions struct {
	BTODiscount float64 `json:"bto_discount"`
	LTV         float64 `json:"ltv"`
	AnnualRate  float64 `json:"annual_rate"`
	TenureYears int     `json:"tenure_years"`
	MSR         float64 `json:"msr"`
}

// Basis explains how an estimate was derived
type Basis struct {
	Premium      float64 `json:"floor_premium"`
	PremiumObs   int64   `json:"premium_observations"`
	HistoryRows  int64   `json:"history_rows"`
	ModelVersion string  `json:"model_version"`

	// affordability block recovered alongside the bands
	BTOProxyPrice  float64     `json:"bto_proxy_price"`
	MonthlyPayment float64     `json:"monthly_payment"`
	RequiredIncome float64     `json:"required_income"`
	Assumptions    Assumptions `json:"assumptions"`
}

// Estimate is the t_price_estimates output
type Estimate struct {
	Town     string  `json:"town"`
	FlatType string  `json:"flat_type"`
	Month    string  `json:"month"`
	Low      float64 `json:"low"`
	Mid      float64 `json:"mid"`
	High     float64 `json:"high"`
	Basis    Basis   `json:"basis"`
}
