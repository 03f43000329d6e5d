// Package service implements the banding tool: one point estimate widened
// into low/mid/high by the historical floor premium, plus affordability math
package service

import (
	"context"
	"math"
	"time"

	"flatsense/internal/core/feature"
	perr "flatsense/internal/platform/errors"
	"flatsense/internal/services/bands/domain"
	estdomain "flatsense/internal/services/estimator/domain"
	marketdomain "flatsense/internal/services/market/domain"
	teldomain "flatsense/internal/services/telemetry/domain"
	telsvc "flatsense/internal/services/telemetry/service"
)

// tool is the telemetry name of this tool
const tool = "t_price_estimates"

// Config for the banding tool
type Config struct {
	// MinPremiumObs is the per-band observation floor below which the
	// premium degrades to zero
	MinPremiumObs int64
	// PremiumMonths is the history window for the premium split
	PremiumMonths int

	// finance assumptions for the affordability block
	BTODiscount float64
	LTV         float64
	AnnualRate  float64
	TenureYears int
	MSR         float64
}

// Service defines the banding contract
type Service interface {
	domain.BandingPort
}

// Svc implements the banding tool
type Svc struct {
	market marketdomain.ReaderPort
	est    estdomain.EstimatorPort
	rec    teldomain.RecorderPort
	cfg    Config
}

// New constructs the banding tool
func New(market marketdomain.ReaderPort, est estdomain.EstimatorPort, rec teldomain.RecorderPort, cfg Config) *Svc {
	if market == nil {
		panic("bands.Service requires a market reader")
	}
	if est == nil {
		panic("bands.Service requires an estimator")
	}
	if rec == nil {
		panic("bands.Service requires a telemetry recorder")
	}
	if cfg.MinPremiumObs <= 0 {
		cfg.MinPremiumObs = 8
	}
	if cfg.PremiumMonths <= 0 {
		cfg.PremiumMonths = 24
	}
	if cfg.BTODiscount <= 0 {
		cfg.BTODiscount = 0.20
	}
	if cfg.LTV <= 0 {
		cfg.LTV = 0.80
	}
	if cfg.AnnualRate <= 0 {
		cfg.AnnualRate = 0.026
	}
	if cfg.TenureYears <= 0 {
		cfg.TenureYears = 25
	}
	if cfg.MSR <= 0 {
		cfg.MSR = 0.30
	}
	return &Svc{market: market, est: est, rec: rec, cfg: cfg}
}

// Estimate implements domain.BandingPort
func (s *Svc) Estimate(ctx context.Context, town, flatType, month string) (domain.Estimate, error) {
	return telsvc.Timed(ctx, s.rec, tool, func(ctx context.Context) (domain.Estimate, error) {
		return s.estimate(ctx, town, flatType, month)
	})
}

func (s *Svc) estimate(ctx context.Context, town, flatType, month string) (domain.Estimate, error) {
	asOf, err := s.resolveMonth(ctx, month)
	if err != nil {
		return domain.Estimate{}, err
	}

	typ, err := s.market.Typical(ctx, town, flatType)
	if err != nil {
		return domain.Estimate{}, err
	}
	if typ.Rows == 0 {
		// the model has never seen this category pair; a mid estimate would
		// be extrapolation, so this is a hard stop
		return domain.Estimate{}, perr.InsufficientDataf("no history for town %q flat_type %q", town, flatType)
	}

	v, err := feature.Transform(feature.Transaction{
		Town:                 typ.Town,
		FlatType:             typ.FlatType,
		FlatModel:            typ.FlatModel,
		StoreyLow:            typ.StoreyLow,
		StoreyHigh:           typ.StoreyHigh,
		FloorAreaSqm:         typ.FloorAreaSqm,
		LeaseCommenceYear:    typ.LeaseCommenceYear,
		RemainingLeaseMonths: typ.RemainingLeaseMonths,
	}, asOf)
	if err != nil {
		return domain.Estimate{}, err
	}

	// exactly one predict call per estimate
	pred, err := s.est.Predict(ctx, v)
	if err != nil {
		return domain.Estimate{}, err
	}
	mid := pred.Point

	premium, obs, err := s.premium(ctx, typ.Town, typ.FlatType, asOf)
	if err != nil {
		return domain.Estimate{}, err
	}

	low := mid * (1 - premium)
	high := mid * (1 + premium)

	btoProxy := mid * (1 - s.cfg.BTODiscount)
	monthly := annuityPayment(btoProxy*s.cfg.LTV, s.cfg.AnnualRate/12, s.cfg.TenureYears*12)
	required := monthly / s.cfg.MSR

	return domain.Estimate{
		Town:     typ.Town,
		FlatType: typ.FlatType,
		Month:    asOf.Format("2006-01"),
		Low:      low,
		Mid:      mid,
		High:     high,
		Basis: domain.Basis{
			Premium:        premium,
			PremiumObs:     obs,
			HistoryRows:    typ.Rows,
			ModelVersion:   pred.ModelVersion,
			BTOProxyPrice:  btoProxy,
			MonthlyPayment: monthly,
			RequiredIncome: required,
			Assumptions: domain.Assumptions{
				BTODiscount: s.cfg.BTODiscount,
				LTV:         s.cfg.LTV,
				AnnualRate:  s.cfg.AnnualRate,
				TenureYears: s.cfg.TenureYears,
				MSR:         s.cfg.MSR,
			},
		},
	}, nil
}

// premium computes the fractional low-to-high storey price delta
// it is a magnitude: negative splits clamp to zero so low <= mid <= high holds
func (s *Svc) premium(ctx context.Context, town, flatType string, asOf time.Time) (float64, int64, error) {
	since := asOf.AddDate(0, -s.cfg.PremiumMonths, 0)
	sample, err := s.market.Premium(ctx, town, flatType, since)
	if err != nil {
		return 0, 0, err
	}
	obs := sample.LowN
	if sample.HighN < obs {
		obs = sample.HighN
	}
	if obs < s.cfg.MinPremiumObs || sample.MedianAll <= 0 {
		return 0, obs, nil
	}
	premium := (sample.MedianHigh - sample.MedianLow) / sample.MedianAll
	return math.Max(0, premium), obs, nil
}

// resolveMonth parses YYYY-MM or falls back to the latest month on record
func (s *Svc) resolveMonth(ctx context.Context, month string) (time.Time, error) {
	if month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return time.Time{}, perr.Validationf("month %q is not YYYY-MM", month)
		}
		return t, nil
	}
	latest, ok, err := s.market.LatestMonth(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, perr.InsufficientDataf("transaction store is empty")
	}
	return latest, nil
}

// annuityPayment is the standard fixed-rate monthly payment formula
func annuityPayment(principal, monthlyRate float64, months int) float64 {
	if principal <= 0 || months <= 0 {
		return 0
	}
	if monthlyRate <= 0 {
		return principal / float64(months)
	}
	return principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(months)))
}
