// Package domain contains router types and ports
package domain

// Intent names the downstream tool a query resolves to
type Intent string

// Intents the router can choose
const (
	// IntentPriceEstimates routes to the price banding tool
	IntentPriceEstimates Intent = "price_estimates"

	// IntentLowSupply routes to the supply-scarcity tool
	IntentLowSupply Intent = "low_supply"

	// IntentUnknown means the query could not be resolved; no tool is invoked
	IntentUnknown Intent = "unknown"
)

// Route is the structured reading of a free-text query
// Confidence grades how the fields were resolved: 1 exact vocabulary match,
// 0.8 fuzzy-assisted, 0.5 language-model-assisted, 0 unknown
type Route struct {
	Town       string  `json:"town,omitempty"`
	FlatType   string  `json:"flat_type,omitempty"`
	Month      string  `json:"month,omitempty"`
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}
