// Package service contains the market read workflows
package service

import (
	"context"
	"time"

	"flatsense/internal/core/feature"
	"flatsense/internal/modkit/repokit"
	pstrings "flatsense/internal/platform/strings"
	"flatsense/internal/services/market/domain"
	"flatsense/internal/services/market/repo"
)

// Config for the market service
type Config struct {
	// storey band cuts for the floor premium split
	// storey_mid <= LowStoreyMax is the low band, >= HighStoreyMin the high band
	LowStoreyMax  float64
	HighStoreyMin float64
}

// Service defines the market service contract
type Service interface {
	domain.ReaderPort
}

// Svc implements the market service
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	cfg    Config
}

// New constructs a market service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cfg Config) *Svc {
	if db == nil {
		panic("market.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("market.Service requires a non nil Repo binder")
	}
	if cfg.LowStoreyMax <= 0 {
		cfg.LowStoreyMax = 3
	}
	if cfg.HighStoreyMin <= 0 {
		cfg.HighStoreyMin = 10
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db, cfg: cfg}
}

// Vocabulary implements domain.ReaderPort
func (s *Svc) Vocabulary(ctx context.Context) ([]string, []string, error) {
	return s.Repo.Vocabulary(ctx)
}

// Typical implements domain.ReaderPort; town and flat type are stored uppercase
func (s *Svc) Typical(ctx context.Context, town, flatType string) (domain.Typical, error) {
	return s.Repo.Typical(ctx, pstrings.UpperTrim(town), pstrings.UpperTrim(flatType))
}

// Premium implements domain.ReaderPort using the configured storey band cuts
func (s *Svc) Premium(ctx context.Context, town, flatType string, since time.Time) (domain.PremiumSample, error) {
	return s.Repo.Premium(
		ctx,
		pstrings.UpperTrim(town), pstrings.UpperTrim(flatType),
		since,
		s.cfg.LowStoreyMax, s.cfg.HighStoreyMin,
	)
}

// Volume implements domain.ReaderPort
func (s *Svc) Volume(ctx context.Context, since time.Time, flatType string, limit int) ([]domain.VolumeRow, error) {
	ft := ""
	if flatType != "" {
		ft = pstrings.UpperTrim(flatType)
	}
	return s.Repo.Volume(ctx, since, ft, limit)
}

// TrainingSet implements domain.ReaderPort
func (s *Svc) TrainingSet(ctx context.Context) ([]feature.Transaction, domain.Window, error) {
	return s.Repo.TrainingSet(ctx)
}

// LatestMonth implements domain.ReaderPort
func (s *Svc) LatestMonth(ctx context.Context) (time.Time, bool, error) {
	return s.Repo.LatestMonth(ctx)
}
