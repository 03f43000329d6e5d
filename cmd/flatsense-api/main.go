// @title         Flatsense API
// @version       0.1.0
// @description   Resale price estimation tools and model health monitoring

package main

import (
	"context"

	"flatsense/internal/modkit/repokit"
	"flatsense/internal/platform/config"
	"flatsense/internal/platform/logger"
	phttp "flatsense/internal/platform/net/http"
	"flatsense/internal/platform/store"

	"flatsense/internal/services/api"
)

func main() {
	// service-scoped config for HTTP etc (FS_API_*)
	root := config.New()
	apiCfg := root.Prefix("FS_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	// bring up logging early
	l := logger.Get()

	// open the platform store (postgres + clickhouse)
	st, err := store.Open(
		context.Background(),
		store.Config{
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
				ClientTag:  "api",
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(context.Background(), st)

	// http server (reads FS_API_PORT)
	srv := phttp.NewServer(apiCfg)

	// mount the tools and monitoring surface
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", true),
		},
	)

	// run
	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
