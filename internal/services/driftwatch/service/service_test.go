package service

import (
	"context"
	"testing"
	"time"

	"flatsense/internal/core/drift"
	"flatsense/internal/core/feature"
	"flatsense/internal/core/regress"
	perr "flatsense/internal/platform/errors"
	"flatsense/internal/services/driftwatch/domain"
	estdomain "flatsense/internal/services/estimator/domain"
	marketdomain "flatsense/internal/services/market/domain"
)

type fakeModelPort struct {
	model   *estdomain.Model
	created bool
}

func (f *fakeModelPort) Ensure(context.Context) (*estdomain.Model, bool, error) {
	return f.model, f.created, nil
}

type histMarket struct{ txs []feature.Transaction }

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
	latest := h.txs[0].Month
	for _, tx := range h.txs {
		if tx.Month.After(latest) {
			latest = tx.Month
		}
	}
	return latest, true, nil
}

// rows builds one month of uniform transactions with the given area
func rows(month time.Time, area float64, n int) []feature.Transaction {
	out := make([]feature.Transaction, n)
	for i := range out {
		out[i] = feature.Transaction{
			Month: month, Town: "ANG MO KIO", FlatType: "4 ROOM",
			StoreyLow: 1 + i%10, StoreyHigh: 3 + i%10,
			FloorAreaSqm: area + float64(i%5),
			ResalePrice:  450000,
		}
	}
	return out
}

// modelOver builds a trained-looking model whose reference reflects txs
func modelOver(txs []feature.Transaction, version string) *estdomain.Model {
	vs, _ := feature.TransformAll(txs, txs[0].Month)
	layout := regress.BuildLayout(vs)
	coeffs := make([]float64, layout.Cols())
	coeffs[0] = 450000 // flat constant model keeps predictions stable

	areas := make([]float64, len(vs))
	storeys := make([]float64, len(vs))
	ages := make([]float64, len(vs))
	towns := make([]string, len(vs))
	types := make([]string, len(vs))
	preds := make([]float64, len(vs))
	for i, v := range vs {
		areas[i] = v.FloorAreaSqm
		storeys[i] = v.StoreyMid
		ages[i] = v.FlatAge
		towns[i] = v.Town
		types[i] = v.FlatType
		preds[i] = regress.Predict(regress.Encode(v, layout), coeffs)
	}

	return &estdomain.Model{
		Meta: estdomain.Metadata{
			Version:  version,
			TrainEnd: txs[len(txs)-1].Month,
		},
		Artifact: estdomain.Artifact{Layout: layout, Coeffs: coeffs},
		Reference: estdomain.Reference{
			Numeric: map[string]drift.Histogram{
				"floor_area_sqm": drift.BuildHistogram(areas, 10),
				"storey_mid":     drift.BuildHistogram(storeys, 10),
				"flat_age":       drift.BuildHistogram(ages, 10),
				"prediction":     drift.BuildHistogram(preds, 10),
			},
			Categorical: map[string]map[string]float64{
				"town":      drift.Shares(towns),
				"flat_type": drift.Shares(types),
			},
		},
	}
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestCompute_ReferenceCreatedReportsZeroDrift(t *testing.T) {
	txs := rows(month(2024, 6), 90, 40)
	est := &fakeModelPort{model: modelOver(txs, "v1"), created: true}
	svc := New(est, &histMarket{txs: txs}, Config{})

	report, err := svc.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !report.ReferenceCreated {
		t.Fatalf("reference_created = false, want true on bootstrap")
	}
	if report.ModelVersion != "v1" {
		t.Fatalf("model version = %q", report.ModelVersion)
	}
	if len(report.Metrics) == 0 {
		t.Fatalf("expected metrics for every reference feature")
	}
	for _, m := range report.Metrics {
		if m.Score != 0 || m.Status != domain.StatusOK {
			t.Fatalf("bootstrap metric not zero: %+v", m)
		}
	}
}

func TestCompute_StableDataScoresOK(t *testing.T) {
	txs := rows(month(2024, 6), 90, 40)
	est := &fakeModelPort{model: modelOver(txs, "v1")}
	svc := New(est, &histMarket{txs: txs}, Config{})

	report, err := svc.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if report.ReferenceCreated {
		t.Fatalf("reference_created = true, want comparison mode")
	}
	if report.Window != "2024-06" {
		t.Fatalf("window = %q", report.Window)
	}
	if report.CurrentRows != 40 {
		t.Fatalf("current rows = %d, want 40", report.CurrentRows)
	}
	for _, m := range report.Metrics {
		if m.Status != domain.StatusOK {
			t.Fatalf("stable data flagged: %+v", m)
		}
	}
}

func TestCompute_ShiftedDataWarns(t *testing.T) {
	trained := rows(month(2024, 5), 90, 40)
	// latest month trades at double the floor area
	current := append(rows(month(2024, 5), 90, 40), rows(month(2024, 6), 180, 40)...)

	est := &fakeModelPort{model: modelOver(trained, "v1")}
	svc := New(est, &histMarket{txs: current}, Config{})

	report, err := svc.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	var area *domain.Metric
	for i := range report.Metrics {
		if report.Metrics[i].Feature == "floor_area_sqm" {
			area = &report.Metrics[i]
		}
	}
	if area == nil {
		t.Fatalf("floor_area_sqm metric missing: %+v", report.Metrics)
	}
	if area.Kind != domain.KindNumeric {
		t.Fatalf("kind = %q", area.Kind)
	}
	if area.Status != domain.StatusWarn {
		t.Fatalf("displaced areas should warn, got %+v", *area)
	}
}

func TestCompute_EmptyReferenceFails(t *testing.T) {
	est := &fakeModelPort{model: &estdomain.Model{Meta: estdomain.Metadata{Version: "v1"}}}
	svc := New(est, &histMarket{}, Config{})

	_, err := svc.Compute(context.Background())
	if err == nil || !perr.IsCode(err, perr.ErrorCodeModelTraining) {
		t.Fatalf("expected model training error, got %v", err)
	}
}

func TestCompute_EmptyStoreFails(t *testing.T) {
	txs := rows(month(2024, 6), 90, 40)
	est := &fakeModelPort{model: modelOver(txs, "v1")}
	svc := New(est, &histMarket{}, Config{})

	_, err := svc.Compute(context.Background())
	if err == nil || !perr.IsCode(err, perr.ErrorCodeInsufficientData) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}
