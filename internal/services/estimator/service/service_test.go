package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"flatsense/internal/core/feature"
	"flatsense/internal/modkit/repokit"
	perr "flatsense/internal/platform/errors"
	"flatsense/internal/platform/store"
	"flatsense/internal/services/estimator/domain"
	"flatsense/internal/services/estimator/repo"
	marketdomain "flatsense/internal/services/market/domain"
	teldomain "flatsense/internal/services/telemetry/domain"
)

// stubDB satisfies the TxRunner seam; the fake repo ignores it entirely
type stubDB struct{}

func (stubDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (stubDB) Query(context.Context, string, ...any) (store.Rows, error)     { return nil, nil }
func (stubDB) QueryRow(context.Context, string, ...any) store.Row            { return nil }
func (stubDB) Tx(context.Context, func(q store.RowQuerier) error) error      { return nil }

// memRepo is an in-memory model registry
type memRepo struct {
	mu    sync.Mutex
	model *domain.Model
	saves int
}

func (m *memRepo) Latest(context.Context) (*domain.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model, nil
}

func (m *memRepo) Save(_ context.Context, mod domain.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = &mod
	m.saves++
	return nil
}

func (m *memRepo) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func bindRepo(r repo.Repo) repokit.Binder[repo.Repo] {
	return repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return r })
}

// histMarket serves a fixed training set
type histMarket struct {
	txs []feature.Transaction
}

func (h *histMarket) Vocabulary(context.Context) ([]string, []string, error) { return nil, nil, nil }

func (h *histMarket) Typical(context.Context, string, string) (marketdomain.Typical, error) {
	return marketdomain.Typical{}, nil
}

func (h *histMarket) Premium(context.Context, string, string, time.Time) (marketdomain.PremiumSample, error) {
	return marketdomain.PremiumSample{}, nil
}

func (h *histMarket) Volume(context.Context, time.Time, string, int) ([]marketdomain.VolumeRow, error) {
	return nil, nil
}

func (h *histMarket) TrainingSet(context.Context) ([]feature.Transaction, marketdomain.Window, error) {
	if len(h.txs) == 0 {
		return nil, marketdomain.Window{}, nil
	}
	return h.txs, marketdomain.Window{Start: h.txs[0].Month, End: h.txs[len(h.txs)-1].Month}, nil
}

func (h *histMarket) LatestMonth(context.Context) (time.Time, bool, error) {
	if len(h.txs) == 0 {
		return time.Time{}, false, nil
	}
	return h.txs[len(h.txs)-1].Month, true, nil
}

type countRecorder struct {
	mu     sync.Mutex
	events []teldomain.Event
}

func (c *countRecorder) Record(_ context.Context, e teldomain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *countRecorder) count(kind teldomain.Kind, tool string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Kind == kind && (tool == "" || e.Tool == tool) {
			n++
		}
	}
	return n
}

// seedHistory builds twelve months of rising 4 ROOM prices in one town
func seedHistory() []feature.Transaction {
	lcy := 1990
	rem := 420
	txs := make([]feature.Transaction, 0, 24)
	for i := 0; i < 12; i++ {
		m := time.Date(2023, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		// two sales per month so the premium split has both bands
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

func newTestSvc(rec *countRecorder) (*Svc, *memRepo) {
	mr := &memRepo{}
	svc := New(stubDB{}, bindRepo(mr), &histMarket{txs: seedHistory()}, rec, Config{Quantiles: true})
	return svc, mr
}

func testVector() feature.Vector {
	lease := 35.0
	return feature.Vector{
		Town: "ANG MO KIO", FlatType: "4 ROOM", FlatModel: "IMPROVED",
		FloorAreaSqm: 92, StoreyMid: 5, FlatAge: 33, RemainingLeaseYears: &lease,
	}
}

func TestPredict_TrainsOnceLazily(t *testing.T) {
	rec := &countRecorder{}
	svc, mr := newTestSvc(rec)

	p, err := svc.Predict(context.Background(), testVector())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if p.Point <= 0 {
		t.Fatalf("point = %g, want positive price", p.Point)
	}
	if p.ModelVersion == "" {
		t.Fatalf("model version missing")
	}
	if mr.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", mr.saveCount())
	}

	// second call reuses the cached artifact
	if _, err := svc.Predict(context.Background(), testVector()); err != nil {
		t.Fatalf("second predict: %v", err)
	}
	if got := rec.count(teldomain.KindToolCall, "model_train"); got != 1 {
		t.Fatalf("model_train events = %d, want 1", got)
	}
}

func TestPredict_ConcurrentFirstCallsTrainOnce(t *testing.T) {
	rec := &countRecorder{}
	svc, mr := newTestSvc(rec)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Predict(context.Background(), testVector()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("predict: %v", err)
	}

	if got := rec.count(teldomain.KindToolCall, "model_train"); got != 1 {
		t.Fatalf("model_train events = %d, want exactly 1", got)
	}
	if mr.saveCount() != 1 {
		t.Fatalf("saves = %d, want exactly 1", mr.saveCount())
	}
}

func TestPredict_QuantilesBracketThePoint(t *testing.T) {
	rec := &countRecorder{}
	svc, _ := newTestSvc(rec)

	p, err := svc.Predict(context.Background(), testVector())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if p.Q10 == nil || p.Q50 == nil || p.Q90 == nil {
		t.Fatalf("quantiles missing: %+v", p)
	}
	if !(*p.Q10 <= *p.Q50 && *p.Q50 <= *p.Q90) {
		t.Fatalf("quantiles out of order: %g %g %g", *p.Q10, *p.Q50, *p.Q90)
	}
}

func TestPredict_EmitsPredictionTelemetry(t *testing.T) {
	rec := &countRecorder{}
	svc, _ := newTestSvc(rec)

	if _, err := svc.Predict(context.Background(), testVector()); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got := rec.count(teldomain.KindPrediction, ""); got != 1 {
		t.Fatalf("prediction events = %d, want 1", got)
	}
}

func TestEnsure_ReusesPersistedModel(t *testing.T) {
	rec := &countRecorder{}
	mr := &memRepo{}
	first := New(stubDB{}, bindRepo(mr), &histMarket{txs: seedHistory()}, rec, Config{Quantiles: true})
	if _, _, err := first.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// a fresh process finds the registry populated and must not retrain
	second := New(stubDB{}, bindRepo(mr), &histMarket{txs: seedHistory()}, rec, Config{Quantiles: true})
	m, created, err := second.Ensure(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if created {
		t.Fatalf("created = true, want reuse of the persisted model")
	}
	if m == nil || m.Meta.Version == "" {
		t.Fatalf("model = %+v", m)
	}
	if mr.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", mr.saveCount())
	}
}

func TestEnsure_EmptyStoreFailsTraining(t *testing.T) {
	rec := &countRecorder{}
	svc := New(stubDB{}, bindRepo(&memRepo{}), &histMarket{}, rec, Config{})

	_, _, err := svc.Ensure(context.Background())
	if err == nil || !perr.IsCode(err, perr.ErrorCodeModelTraining) {
		t.Fatalf("expected model training error, got %v", err)
	}
}

func TestRetrain_ReplacesModel(t *testing.T) {
	rec := &countRecorder{}
	svc, mr := newTestSvc(rec)

	m1, _, err := svc.Ensure(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	m2, err := svc.Retrain(context.Background())
	if err != nil {
		t.Fatalf("retrain: %v", err)
	}
	if m1.Meta.Version == m2.Meta.Version {
		t.Fatalf("retrain must mint a new version")
	}
	if mr.saveCount() != 2 {
		t.Fatalf("saves = %d, want 2", mr.saveCount())
	}
}
