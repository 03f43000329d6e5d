// Package service orchestrates the tool endpoints over the core services
package service

import (
	"context"

	"flatsense/internal/services/api/tools/domain"
	bandsdomain "flatsense/internal/services/bands/domain"
	routerdomain "flatsense/internal/services/router/domain"
	supplydomain "flatsense/internal/services/supply/domain"
)

// Config for the tools surface
type Config struct {
	// DefaultYears is the supply lookback applied when the caller omits years
	DefaultYears int
	// DefaultTopK is the supply result size applied when the caller omits top_k
	DefaultTopK int
}

// Service defines the tools contract
type Service interface {
	// Route parses free text and, when an intent resolves, runs the tool
	Route(ctx context.Context, in domain.RouteInput) (domain.RouteResult, error)

	// PriceEstimates runs the banding tool directly
	PriceEstimates(ctx context.Context, in domain.PriceInput) (bandsdomain.Estimate, error)

	// LowSupply runs the scarcity tool directly
	LowSupply(ctx context.Context, in domain.SupplyInput) (supplydomain.Ranking, error)
}

// Svc implements the tools surface
type Svc struct {
	router routerdomain.RouterPort
	bands  bandsdomain.BandingPort
	supply supplydomain.ScarcityPort
	cfg    Config
}

// New constructs the tools service
func New(router routerdomain.RouterPort, bands bandsdomain.BandingPort, supply supplydomain.ScarcityPort, cfg Config) *Svc {
	if router == nil {
		panic("tools.Service requires a router")
	}
	if bands == nil {
		panic("tools.Service requires a banding tool")
	}
	if supply == nil {
		panic("tools.Service requires a scarcity tool")
	}
	if cfg.DefaultYears <= 0 {
		cfg.DefaultYears = 3
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 10
	}
	return &Svc{router: router, bands: bands, supply: supply, cfg: cfg}
}

// Route implements Service
// an unknown intent is reported as-is with no tool output, never guessed
func (s *Svc) Route(ctx context.Context, in domain.RouteInput) (domain.RouteResult, error) {
	r, err := s.router.Route(ctx, in.Text)
	if err != nil {
		return domain.RouteResult{}, err
	}

	out := domain.RouteResult{Route: r}
	switch r.Intent {
	case routerdomain.IntentPriceEstimates:
		est, err := s.bands.Estimate(ctx, r.Town, r.FlatType, r.Month)
		if err != nil {
			return domain.RouteResult{}, err
		}
		out.Data = est
	case routerdomain.IntentLowSupply:
		rank, err := s.supply.Rank(ctx, s.cfg.DefaultYears, r.FlatType, s.cfg.DefaultTopK)
		if err != nil {
			return domain.RouteResult{}, err
		}
		out.Data = rank
	}
	return out, nil
}

// PriceEstimates implements Service
func (s *Svc) PriceEstimates(ctx context.Context, in domain.PriceInput) (bandsdomain.Estimate, error) {
	return s.bands.Estimate(ctx, in.Town, in.FlatType, in.Month)
}

// LowSupply implements Service
func (s *Svc) LowSupply(ctx context.Context, in domain.SupplyInput) (supplydomain.Ranking, error) {
	years := in.Years
	if years == 0 {
		years = s.cfg.DefaultYears
	}
	topK := in.TopK
	if topK == 0 {
		topK = s.cfg.DefaultTopK
	}
	return s.supply.Rank(ctx, years, in.FlatType, topK)
}
