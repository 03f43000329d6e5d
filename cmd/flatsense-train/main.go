package main

import (
	"context"

	"flatsense/internal/modkit/repokit"
	"flatsense/internal/platform/config"
	"flatsense/internal/platform/logger"
	"flatsense/internal/platform/store"

	estrepo "flatsense/internal/services/estimator/repo"
	estsvc "flatsense/internal/services/estimator/service"
	marketrepo "flatsense/internal/services/market/repo"
	marketsvc "flatsense/internal/services/market/service"
	telrepo "flatsense/internal/services/telemetry/repo"
	telsvc "flatsense/internal/services/telemetry/service"
)

// flatsense-train forces a fresh training run and registers the artifact,
// replacing the lazy bootstrap for deployments that prefer an explicit step
func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", true),
		},
		CH: store.CHConfig{
			Enabled:    true,
			URL:        chCfg.MustString("DBURL"),
			ClientName: "flatsense",
			ClientTag:  "train",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(context.Background(), st)

	market := marketsvc.New(st.PG, marketrepo.NewPG(), marketsvc.Config{})
	telemetry := telsvc.New(telrepo.NewCH(st.CH))

	modelCfg := root.Prefix("MODEL_")
	estimator := estsvc.New(st.PG, estrepo.NewPG(), market, telemetry, estsvc.Config{
		Lambda:    modelCfg.MayFloat64("LAMBDA", 1.0),
		Quantiles: modelCfg.MayBool("QUANTILES", true),
		Buckets:   modelCfg.MayInt("BUCKETS", 10),
	})

	m, err := estimator.Retrain(context.Background())
	if err != nil {
		l.Fatal().Err(err).Msg("training failed")
	}
	l.Info().
		Str("version", m.Meta.Version).
		Int64("rows", m.Meta.TrainRows).
		Time("train_start", m.Meta.TrainStart).
		Time("train_end", m.Meta.TrainEnd).
		Msg("model registered")
}
