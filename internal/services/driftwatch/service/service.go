// Package service implements the drift detector: current-month feature and
// prediction distributions scored against the model's training-time reference
package service

import (
	"context"
	"sort"
	"time"

	"flatsense/internal/core/drift"
	"flatsense/internal/core/feature"
	"flatsense/internal/core/regress"
	perr "flatsense/internal/platform/errors"
	"flatsense/internal/platform/logger"
	ptime "flatsense/internal/platform/time"
	"flatsense/internal/services/driftwatch/domain"
	estdomain "flatsense/internal/services/estimator/domain"
	marketdomain "flatsense/internal/services/market/domain"
)

// Config for the drift detector
type Config struct {
	// NumericWarn is the population-stability index warn threshold
	NumericWarn float64
	// CategoricalWarn is the max share delta warn threshold
	CategoricalWarn float64
}

// Service defines the drift detector contract
type Service interface {
	domain.DetectorPort
}

// Svc implements the drift detector
type Svc struct {
	est    estdomain.ModelPort
	market marketdomain.ReaderPort
	cfg    Config
	log    *logger.Logger
}

// New constructs a drift detector
func New(est estdomain.ModelPort, market marketdomain.ReaderPort, cfg Config) *Svc {
	if est == nil {
		panic("driftwatch.Service requires a model port")
	}
	if market == nil {
		panic("driftwatch.Service requires a market reader")
	}
	if cfg.NumericWarn <= 0 {
		cfg.NumericWarn = 0.2
	}
	if cfg.CategoricalWarn <= 0 {
		cfg.CategoricalWarn = 0.1
	}
	return &Svc{est: est, market: market, cfg: cfg, log: logger.Named("driftwatch")}
}

// Compute implements domain.DetectorPort
// the reference rides the model artifact, so a missing reference triggers the
// same single-flight bootstrap the estimator uses. That call reports zero
// drift with reference_created set; scoring starts from the next call
func (s *Svc) Compute(ctx context.Context) (domain.Report, error) {
	m, created, err := s.est.Ensure(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	if m.Reference.Empty() {
		return domain.Report{}, perr.ModelTrainingf("model %s carries no drift reference", m.Meta.Version)
	}

	if created {
		s.log.Info().Str("version", m.Meta.Version).Msg("drift reference created from current store")
		return domain.Report{
			ModelVersion:     m.Meta.Version,
			ReferenceCreated: true,
			Window:           m.Meta.TrainEnd.Format("2006-01"),
			CurrentRows:      int(m.Meta.TrainRows),
			Metrics:          s.zeroMetrics(m.Reference),
		}, nil
	}

	latest, ok, err := s.market.LatestMonth(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	if !ok {
		return domain.Report{}, perr.InsufficientDataf("transaction store is empty")
	}

	cur, err := s.currentWindow(ctx, latest)
	if err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		ModelVersion: m.Meta.Version,
		Window:       latest.Format("2006-01"),
		CurrentRows:  cur.rows,
		Metrics:      s.score(m, cur),
	}
	return report, nil
}

// window holds the current-month distributions being scored
type window struct {
	rows    int
	numeric map[string][]float64
	towns   []string
	types   []string
	vectors []feature.Vector
}

// currentWindow reads the latest transaction month and recomputes the same
// feature and prediction series the training reference was built from
func (s *Svc) currentWindow(ctx context.Context, latest time.Time) (window, error) {
	txs, _, err := s.market.TrainingSet(ctx)
	if err != nil {
		return window{}, err
	}

	latest = ptime.Month(latest)
	w := window{numeric: map[string][]float64{}}
	for _, tx := range txs {
		if !ptime.Month(tx.Month).Equal(latest) {
			continue
		}
		v, err := feature.Transform(tx, tx.Month)
		if err != nil {
			return window{}, perr.Wrap(err, perr.ErrorCodeValidation, "bad current-window row")
		}
		w.rows++
		w.numeric["floor_area_sqm"] = append(w.numeric["floor_area_sqm"], v.FloorAreaSqm)
		w.numeric["storey_mid"] = append(w.numeric["storey_mid"], v.StoreyMid)
		w.numeric["flat_age"] = append(w.numeric["flat_age"], v.FlatAge)
		if v.RemainingLeaseYears != nil {
			w.numeric["remaining_lease_years"] = append(w.numeric["remaining_lease_years"], *v.RemainingLeaseYears)
		}
		w.towns = append(w.towns, v.Town)
		w.types = append(w.types, v.FlatType)
		w.vectors = append(w.vectors, v)
	}
	if w.rows == 0 {
		return window{}, perr.InsufficientDataf("no transactions in window %s", latest.Format("2006-01"))
	}
	return w, nil
}

// score builds one metric per reference feature, in stable name order
func (s *Svc) score(m *estdomain.Model, cur window) []domain.Metric {
	preds := make([]float64, len(cur.vectors))
	for i, v := range cur.vectors {
		preds[i] = regress.Predict(regress.Encode(v, m.Artifact.Layout), m.Artifact.Coeffs)
	}
	cur.numeric["prediction"] = preds

	catCur := map[string]map[string]float64{
		"town":      drift.Shares(cur.towns),
		"flat_type": drift.Shares(cur.types),
	}

	metrics := make([]domain.Metric, 0, len(m.Reference.Numeric)+len(m.Reference.Categorical))
	for _, name := range sortedKeys(m.Reference.Numeric) {
		score := drift.PSI(m.Reference.Numeric[name], cur.numeric[name])
		metrics = append(metrics, s.metric(name, domain.KindNumeric, score, s.cfg.NumericWarn))
	}
	for _, name := range sortedKeys(m.Reference.Categorical) {
		score := drift.ShareDelta(m.Reference.Categorical[name], catCur[name])
		metrics = append(metrics, s.metric(name, domain.KindCategorical, score, s.cfg.CategoricalWarn))
	}
	return metrics
}

// zeroMetrics mirrors the reference feature set with all-zero scores
func (s *Svc) zeroMetrics(ref estdomain.Reference) []domain.Metric {
	metrics := make([]domain.Metric, 0, len(ref.Numeric)+len(ref.Categorical))
	for _, name := range sortedKeys(ref.Numeric) {
		metrics = append(metrics, s.metric(name, domain.KindNumeric, 0, s.cfg.NumericWarn))
	}
	for _, name := range sortedKeys(ref.Categorical) {
		metrics = append(metrics, s.metric(name, domain.KindCategorical, 0, s.cfg.CategoricalWarn))
	}
	return metrics
}

func (s *Svc) metric(name string, kind domain.Kind, score, threshold float64) domain.Metric {
	status := domain.StatusOK
	if score >= threshold {
		status = domain.StatusWarn
	}
	return domain.Metric{Feature: name, Kind: kind, Score: score, Threshold: threshold, Status: status}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
