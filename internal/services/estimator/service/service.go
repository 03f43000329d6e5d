// Package service implements the price estimator: lazy one-pass training,
// artifact registry access, and point/quantile prediction
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"flatsense/internal/core/drift"
	"flatsense/internal/core/feature"
	"flatsense/internal/core/regress"
	"flatsense/internal/modkit/repokit"
	perr "flatsense/internal/platform/errors"
	"flatsense/internal/platform/logger"
	"flatsense/internal/services/estimator/domain"
	"flatsense/internal/services/estimator/repo"
	marketdomain "flatsense/internal/services/market/domain"
	teldomain "flatsense/internal/services/telemetry/domain"
)

// Config for the estimator service
type Config struct {
	// Lambda is the ridge regularization strength
	Lambda float64
	// Quantiles toggles residual quantile offsets on the artifact
	Quantiles bool
	// Buckets is the reference histogram bucket count
	Buckets int
}

// Service defines the estimator contract
type Service interface {
	domain.EstimatorPort
	domain.ModelPort
}

// Svc implements the estimator
type Svc struct {
	Repo   repo.Repo
	market marketdomain.ReaderPort
	rec    teldomain.RecorderPort
	cfg    Config
	log    *logger.Logger

	// mu serializes the bootstrap critical section; concurrent first calls
	// must produce exactly one training run
	mu    sync.Mutex
	model *domain.Model
}

// New constructs an estimator service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[repo.Repo],
	market marketdomain.ReaderPort,
	rec teldomain.RecorderPort,
	cfg Config,
) *Svc {
	if db == nil {
		panic("estimator.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("estimator.Service requires a non nil Repo binder")
	}
	if market == nil {
		panic("estimator.Service requires a market reader")
	}
	if rec == nil {
		panic("estimator.Service requires a telemetry recorder")
	}
	if cfg.Lambda <= 0 {
		cfg.Lambda = 1.0
	}
	if cfg.Buckets <= 0 {
		cfg.Buckets = 10
	}
	return &Svc{
		Repo:   binder.Bind(db),
		market: market,
		rec:    rec,
		cfg:    cfg,
		log:    logger.Named("estimator"),
	}
}

// Ensure implements domain.ModelPort
// load order: in-process cache, then registry, then a single training run
func (s *Svc) Ensure(ctx context.Context) (*domain.Model, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return s.model, false, nil
	}
	m, err := s.Repo.Latest(ctx)
	if err != nil {
		return nil, false, err
	}
	if m != nil {
		s.model = m
		s.log.Debug().Str("version", m.Meta.Version).Msg("loaded persisted model")
		return m, false, nil
	}

	m, err = s.train(ctx)
	if err != nil {
		return nil, false, err
	}
	s.model = m
	return m, true, nil
}

// Retrain forces a fresh training run and replaces the cached model
func (s *Svc) Retrain(ctx context.Context) (*domain.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.train(ctx)
	if err != nil {
		return nil, err
	}
	s.model = m
	return m, nil
}

// Predict implements domain.EstimatorPort
// exactly one artifact lookup per call; bootstrap happens inside Ensure
func (s *Svc) Predict(ctx context.Context, v feature.Vector) (domain.Prediction, error) {
	m, _, err := s.Ensure(ctx)
	if err != nil {
		return domain.Prediction{}, err
	}

	row := regress.Encode(v, m.Artifact.Layout)
	point := regress.Predict(row, m.Artifact.Coeffs)

	p := domain.Prediction{Point: point, ModelVersion: m.Meta.Version}
	if off := m.Artifact.Q10Off; off != nil {
		q := point + *off
		p.Q10 = &q
	}
	if off := m.Artifact.Q50Off; off != nil {
		q := point + *off
		p.Q50 = &q
	}
	if off := m.Artifact.Q90Off; off != nil {
		q := point + *off
		p.Q90 = &q
	}

	if payload, err := json.Marshal(struct {
		In  feature.Vector    `json:"inputs"`
		Out domain.Prediction `json:"outputs"`
	}{v, p}); err == nil {
		s.rec.Record(ctx, teldomain.Prediction(m.Meta.Version, string(payload)))
	}
	return p, nil
}

// train runs the one-pass regression over the full transaction store
// caller must hold s.mu
func (s *Svc) train(ctx context.Context) (*domain.Model, error) {
	start := time.Now()

	txs, window, err := s.market.TrainingSet(ctx)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, perr.ModelTrainingf("transaction store is empty")
	}

	vs := make([]feature.Vector, 0, len(txs))
	y := make([]float64, 0, len(txs))
	for _, tx := range txs {
		// features are computed as of the sale month so flat_age reflects
		// the age at transaction time, not at training time
		v, err := feature.Transform(tx, tx.Month)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeModelTraining, "bad training row")
		}
		vs = append(vs, v)
		y = append(y, tx.ResalePrice)
	}

	layout := regress.BuildLayout(vs)
	x := regress.EncodeAll(vs, layout)
	coeffs, err := regress.Ridge(x, y, s.cfg.Lambda)
	if err != nil {
		return nil, err
	}

	art := domain.Artifact{Layout: layout, Coeffs: coeffs, Lambda: s.cfg.Lambda}
	res := regress.Residuals(x, y, coeffs)
	if s.cfg.Quantiles {
		q10 := regress.Quantile(res, 0.10)
		q50 := regress.Quantile(res, 0.50)
		q90 := regress.Quantile(res, 0.90)
		art.Q10Off, art.Q50Off, art.Q90Off = &q10, &q50, &q90
	}

	fitted := make([]float64, len(y))
	for i := range y {
		fitted[i] = y[i] - res[i]
	}

	m := &domain.Model{
		Meta: domain.Metadata{
			Version:    uuid.NewString(),
			TrainedAt:  time.Now().UTC(),
			TrainStart: window.Start,
			TrainEnd:   window.End,
			TrainRows:  int64(len(txs)),
		},
		Artifact:  art,
		Reference: buildReference(vs, fitted, s.cfg.Buckets),
	}

	if err := s.Repo.Save(ctx, *m); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeModelTraining, "persist model artifact")
	}

	s.rec.Record(ctx, teldomain.ToolCall("model_train", time.Since(start), nil))
	s.log.Info().
		Str("version", m.Meta.Version).
		Int64("rows", m.Meta.TrainRows).
		Time("train_start", m.Meta.TrainStart).
		Time("train_end", m.Meta.TrainEnd).
		Msg("trained model")
	return m, nil
}

// buildReference captures the training-time distributions drift compares against
func buildReference(vs []feature.Vector, fitted []float64, buckets int) domain.Reference {
	areas := make([]float64, len(vs))
	storeys := make([]float64, len(vs))
	ages := make([]float64, len(vs))
	towns := make([]string, len(vs))
	types := make([]string, len(vs))
	var leases []float64
	for i, v := range vs {
		areas[i] = v.FloorAreaSqm
		storeys[i] = v.StoreyMid
		ages[i] = v.FlatAge
		towns[i] = v.Town
		types[i] = v.FlatType
		if v.RemainingLeaseYears != nil {
			leases = append(leases, *v.RemainingLeaseYears)
		}
	}

	ref := domain.Reference{
		Numeric: map[string]drift.Histogram{
			"floor_area_sqm": drift.BuildHistogram(areas, buckets),
			"storey_mid":     drift.BuildHistogram(storeys, buckets),
			"flat_age":       drift.BuildHistogram(ages, buckets),
			"prediction":     drift.BuildHistogram(fitted, buckets),
		},
		Categorical: map[string]map[string]float64{
			"town":      drift.Shares(towns),
			"flat_type": drift.Shares(types),
		},
	}
	if len(leases) > 0 {
		ref.Numeric["remaining_lease_years"] = drift.BuildHistogram(leases, buckets)
	}
	return ref
}
