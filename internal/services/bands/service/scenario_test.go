package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"flatsense/internal/core/feature"
	"flatsense/internal/modkit/repokit"
	perr "flatsense/internal/platform/errors"
	"flatsense/internal/platform/store"
	estdomain "flatsense/internal/services/estimator/domain"
	estrepo "flatsense/internal/services/estimator/repo"
	estsvc "flatsense/internal/services/estimator/service"
	marketdomain "flatsense/internal/services/market/domain"
)

// seedDB satisfies the estimator's TxRunner seam; regRepo never touches it
type seedDB struct{}

func (seedDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (seedDB) Query(context.Context, string, ...any) (store.Rows, error)     { return nil, nil }
func (seedDB) QueryRow(context.Context, string, ...any) store.Row            { return nil }
func (seedDB) Tx(context.Context, func(q store.RowQuerier) error) error      { return nil }

type regRepo struct {
	mu    sync.Mutex
	model *estdomain.Model
	saves int
}

func (r *regRepo) Latest(context.Context) (*estdomain.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model, nil
}

func (r *regRepo) Save(_ context.Context, m estdomain.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = &m
	r.saves++
	return nil
}

// seedMarket is an in-memory market over a fixed transaction list; it
// derives typicals, premium splits and the latest month the way the SQL
// reader would, so the whole estimate pipeline runs on real data flow
type seedMarket struct {
	txs []feature.Transaction
}

func (s *seedMarket) Vocabulary(context.Context) ([]string, []string, error) {
	towns := map[string]struct{}{}
	flats := map[string]struct{}{}
	for _, tx := range s.txs {
		towns[tx.Town] = struct{}{}
		flats[tx.FlatType] = struct{}{}
	}
	return keys(towns), keys(flats), nil
}

func (s *seedMarket) Typical(_ context.Context, town, flatType string) (marketdomain.Typical, error) {
	var rows []feature.Transaction
	for _, tx := range s.txs {
		if tx.Town == town && tx.FlatType == flatType {
			rows = append(rows, tx)
		}
	}
	if len(rows) == 0 {
		return marketdomain.Typical{}, nil
	}
	first := rows[0]
	areas := make([]float64, len(rows))
	for i, tx := range rows {
		areas[i] = tx.FloorAreaSqm
	}
	return marketdomain.Typical{
		Town: town, FlatType: flatType, FlatModel: first.FlatModel,
		FloorAreaSqm: median(areas),
		StoreyLow:    first.StoreyLow, StoreyHigh: first.StoreyHigh,
		LeaseCommenceYear:    first.LeaseCommenceYear,
		RemainingLeaseMonths: first.RemainingLeaseMonths,
		Rows:                 int64(len(rows)),
	}, nil
}

func (s *seedMarket) Premium(_ context.Context, town, flatType string, since time.Time) (marketdomain.PremiumSample, error) {
	var low, high, all []float64
	for _, tx := range s.txs {
		if tx.Town != town || tx.FlatType != flatType || tx.Month.Before(since) {
			continue
		}
		all = append(all, tx.ResalePrice)
		switch {
		case tx.StoreyHigh <= 3:
			low = append(low, tx.ResalePrice)
		case tx.StoreyLow >= 10:
			high = append(high, tx.ResalePrice)
		}
	}
	return marketdomain.PremiumSample{
		MedianLow: median(low), MedianHigh: median(high), MedianAll: median(all),
		LowN: int64(len(low)), HighN: int64(len(high)),
	}, nil
}

func (s *seedMarket) Volume(context.Context, time.Time, string, int) ([]marketdomain.VolumeRow, error) {
	return nil, nil
}

func (s *seedMarket) TrainingSet(context.Context) ([]feature.Transaction, marketdomain.Window, error) {
	if len(s.txs) == 0 {
		return nil, marketdomain.Window{}, nil
	}
	return s.txs, marketdomain.Window{Start: s.txs[0].Month, End: s.txs[len(s.txs)-1].Month}, nil
}

func (s *seedMarket) LatestMonth(context.Context) (time.Time, bool, error) {
	if len(s.txs) == 0 {
		return time.Time{}, false, nil
	}
	latest := s.txs[0].Month
	for _, tx := range s.txs {
		if tx.Month.After(latest) {
			latest = tx.Month
		}
	}
	return latest, true, nil
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// angMoKioYear seeds 2023 with a rising 4 ROOM market, two sales per month
// split across storey bands so the premium sample has both sides
func angMoKioYear() []feature.Transaction {
	lcy := 1990
	rem := 420
	txs := make([]feature.Transaction, 0, 24)
	for i := 0; i < 12; i++ {
		m := time.Date(2023, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		txs = append(txs,
			feature.Transaction{
				Month: m, Town: "ANG MO KIO", FlatType: "4 ROOM", FlatModel: "IMPROVED",
				StoreyLow: 1, StoreyHigh: 3, FloorAreaSqm: 92,
				LeaseCommenceYear: &lcy, RemainingLeaseMonths: &rem,
				ResalePrice: 440000 + float64(i)*5000,
			},
			feature.Transaction{
				Month: m, Town: "ANG MO KIO", FlatType: "4 ROOM", FlatModel: "IMPROVED",
				StoreyLow: 10, StoreyHigh: 12, FloorAreaSqm: 92,
				LeaseCommenceYear: &lcy, RemainingLeaseMonths: &rem,
				ResalePrice: 470000 + float64(i)*5000,
			},
		)
	}
	return txs
}

func newScenario() (*Svc, *regRepo, *fakeRecorder) {
	market := &seedMarket{txs: angMoKioYear()}
	reg := &regRepo{}
	bind := repokit.BindFunc[estrepo.Repo](func(repokit.Queryer) estrepo.Repo { return reg })
	est := estsvc.New(seedDB{}, bind, market, &fakeRecorder{}, estsvc.Config{Quantiles: true})
	rec := &fakeRecorder{}
	return New(market, est, rec, Config{}), reg, rec
}

func TestEstimate_SeededTownEndToEnd(t *testing.T) {
	svc, reg, _ := newScenario()

	est, err := svc.Estimate(context.Background(), "ANG MO KIO", "4 ROOM", "2023-11")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if !(est.Low < est.Mid && est.Mid < est.High) {
		t.Fatalf("premium should widen strictly: low=%g mid=%g high=%g", est.Low, est.Mid, est.High)
	}
	if est.Mid < 400000 || est.Mid > 600000 {
		t.Fatalf("mid = %g, outside the seeded price range", est.Mid)
	}
	if est.Month != "2023-11" {
		t.Fatalf("month = %q", est.Month)
	}
	if est.Basis.PremiumObs != 12 {
		t.Fatalf("premium obs = %d, want 12 high-band sales", est.Basis.PremiumObs)
	}
	if est.Basis.ModelVersion == "" {
		t.Fatalf("estimate carries no model version")
	}
	if reg.saves != 1 {
		t.Fatalf("model trained %d times, want lazy single train", reg.saves)
	}
}

func TestEstimate_UnseenFlatTypeFails(t *testing.T) {
	svc, _, _ := newScenario()

	_, err := svc.Estimate(context.Background(), "ANG MO KIO", "5 ROOM", "2023-11")
	if err == nil || !perr.IsCode(err, perr.ErrorCodeInsufficientData) {
		t.Fatalf("expected insufficient data for unseen pair, got %v", err)
	}
}

func TestEstimate_BlankMonthUsesLatestScenario(t *testing.T) {
	svc, reg, _ := newScenario()

	est, err := svc.Estimate(context.Background(), "ANG MO KIO", "4 ROOM", "")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.Month != "2023-12" {
		t.Fatalf("month = %q, want latest on record", est.Month)
	}

	// second call reuses the persisted model
	if _, err := svc.Estimate(context.Background(), "ANG MO KIO", "4 ROOM", "2023-06"); err != nil {
		t.Fatalf("second estimate: %v", err)
	}
	if reg.saves != 1 {
		t.Fatalf("model retrained on reuse, saves = %d", reg.saves)
	}
}
