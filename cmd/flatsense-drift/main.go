package main

import (
	"context"
	"encoding/json"
	"os"

	"flatsense/internal/modkit/repokit"
	"flatsense/internal/platform/config"
	"flatsense/internal/platform/logger"
	"flatsense/internal/platform/store"

	driftsvc "flatsense/internal/services/driftwatch/service"
	estrepo "flatsense/internal/services/estimator/repo"
	estsvc "flatsense/internal/services/estimator/service"
	marketrepo "flatsense/internal/services/market/repo"
	marketsvc "flatsense/internal/services/market/service"
	telrepo "flatsense/internal/services/telemetry/repo"
	telsvc "flatsense/internal/services/telemetry/service"
)

// flatsense-drift computes a one-shot drift report and prints it as JSON,
// suitable for cron-driven monitoring
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
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    true,
			URL:        chCfg.MustString("DBURL"),
			ClientName: "flatsense",
			ClientTag:  "drift",
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
	detector := driftsvc.New(estimator, market, driftsvc.Config{
		NumericWarn:     modelCfg.MayFloat64("PSI_WARN", 0.2),
		CategoricalWarn: modelCfg.MayFloat64("SHARE_WARN", 0.1),
	})

	report, err := detector.Compute(context.Background())
	if err != nil {
		l.Fatal().Err(err).Msg("drift computation failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		l.Fatal().Err(err).Msg("encode report")
	}
}
