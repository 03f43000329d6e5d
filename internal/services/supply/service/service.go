// Package service implements the supply-scarcity ranking
// transaction volume is an explicit proxy for limited launches, not ground truth
package service

import (
	"context"
	"time"

	perr "flatsense/internal/platform/errors"
	ptime "flatsense/internal/platform/time"
	marketdomain "flatsense/internal/services/market/domain"
	"flatsense/internal/services/supply/domain"
	teldomain "flatsense/internal/services/telemetry/domain"
	telsvc "flatsense/internal/services/telemetry/service"
)

// tool is the telemetry name of this tool
const tool = "t_low_supply"

// Service defines the supply contract
type Service interface {
	domain.ScarcityPort
}

// Svc implements the supply tool
type Svc struct {
	market marketdomain.ReaderPort
	rec    teldomain.RecorderPort
}

// New constructs the supply tool
func New(market marketdomain.ReaderPort, rec teldomain.RecorderPort) *Svc {
	if market == nil {
		panic("supply.Service requires a market reader")
	}
	if rec == nil {
		panic("supply.Service requires a telemetry recorder")
	}
	return &Svc{market: market, rec: rec}
}

// Rank implements domain.ScarcityPort
func (s *Svc) Rank(ctx context.Context, years int, flatType string, topK int) (domain.Ranking, error) {
	return telsvc.Timed(ctx, s.rec, tool, func(ctx context.Context) (domain.Ranking, error) {
		return s.rank(ctx, years, flatType, topK)
	})
}

func (s *Svc) rank(ctx context.Context, years int, flatType string, topK int) (domain.Ranking, error) {
	if years <= 0 {
		return domain.Ranking{}, perr.Validationf("years must be positive, got %d", years)
	}
	if topK <= 0 {
		return domain.Ranking{}, perr.Validationf("top_k must be positive, got %d", topK)
	}

	latest, ok, err := s.market.LatestMonth(ctx)
	if err != nil {
		return domain.Ranking{}, err
	}
	if !ok {
		latest = time.Now().UTC()
	}
	cutoff := ptime.Month(latest.AddDate(-years, 0, 0))

	// LIMIT handles the top_k > towns case: all available rows come back
	rows, err := s.market.Volume(ctx, cutoff, flatType, topK)
	if err != nil {
		return domain.Ranking{}, err
	}

	return domain.Ranking{
		Years:    years,
		FlatType: flatType,
		Cutoff:   cutoff.Format("2006-01"),
		Towns:    rows,
	}, nil
}
