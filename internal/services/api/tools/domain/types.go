// Package domain contains the tool endpoint contracts
// these are the stable integration surface; shape changes need a version bump
package domain

import (
	routerdomain "flatsense/internal/services/router/domain"
)

// RouteInput is a free-text query to route
type RouteInput struct {
	Text string `json:"text" validate:"required"`
}

// RouteResult is the routing decision plus the routed tool's output
// Data stays nil when the intent is unknown; no tool is invoked then
type RouteResult struct {
	Route routerdomain.Route `json:"route"`
	Data  any                `json:"data,omitempty"`
}

// PriceInput asks for price bands for a town and flat type
// Month is YYYY-MM; blank means the latest month on record
type PriceInput struct {
	Town     string `json:"town" validate:"required"`
	FlatType string `json:"flat_type" validate:"required"`
	Month    string `json:"month,omitempty" validate:"omitempty,month"`
}

// SupplyInput asks for the scarcest towns by transaction volume
// zero Years and TopK take the configured defaults
type SupplyInput struct {
	Years    int    `json:"years,omitempty" validate:"omitempty,min=1"`
	FlatType string `json:"flat_type,omitempty"`
	TopK     int    `json:"top_k,omitempty" validate:"omitempty,min=1"`
}
