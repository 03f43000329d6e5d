// Package domain contains the monitoring endpoint contracts
package domain

// TelemetryInput scopes the dashboard aggregate
// Tool blank means all tools; Since is YYYY-MM, blank means all time
type TelemetryInput struct {
	Tool  string `json:"tool,omitempty"`
	Since string `json:"since,omitempty" validate:"omitempty,month"`
}
