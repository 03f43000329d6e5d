// Package api provides the HTTP API for the application
package api

import (
	"time"

	"flatsense/internal/platform/config"
	phttp "flatsense/internal/platform/net/http"
	"flatsense/internal/platform/store"

	"flatsense/internal/modkit"
	"flatsense/internal/modkit/httpkit"

	"flatsense/internal/adapters/llm"
	metamod "flatsense/internal/services/api/meta/module"
	monitormod "flatsense/internal/services/api/monitor/module"
	monitorsvc "flatsense/internal/services/api/monitor/service"
	toolsmod "flatsense/internal/services/api/tools/module"
	toolssvc "flatsense/internal/services/api/tools/service"
	bandssvc "flatsense/internal/services/bands/service"
	driftsvc "flatsense/internal/services/driftwatch/service"
	estrepo "flatsense/internal/services/estimator/repo"
	estsvc "flatsense/internal/services/estimator/service"
	marketrepo "flatsense/internal/services/market/repo"
	marketsvc "flatsense/internal/services/market/service"
	routersvc "flatsense/internal/services/router/service"
	supplysvc "flatsense/internal/services/supply/service"
	telrepo "flatsense/internal/services/telemetry/repo"
	telsvc "flatsense/internal/services/telemetry/service"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount wires the service graph and mounts it onto the given router
// services are constructed once here and shared; the estimator's model cache
// and the router's vocabulary live for the process lifetime
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	market := marketsvc.New(deps.PG, marketrepo.NewPG(), marketsvc.Config{
		LowStoreyMax:  float64(opt.Config.Prefix("BANDS_").MayInt("LOW_STOREY_MAX", 3)),
		HighStoreyMin: float64(opt.Config.Prefix("BANDS_").MayInt("HIGH_STOREY_MIN", 10)),
	})

	telemetry := telsvc.New(telrepo.NewCH(deps.CH))

	modelCfg := opt.Config.Prefix("MODEL_")
	estimator := estsvc.New(deps.PG, estrepo.NewPG(), market, telemetry, estsvc.Config{
		Lambda:    modelCfg.MayFloat64("LAMBDA", 1.0),
		Quantiles: modelCfg.MayBool("QUANTILES", true),
		Buckets:   modelCfg.MayInt("BUCKETS", 10),
	})

	finCfg := opt.Config.Prefix("FIN_")
	bandsCfg := opt.Config.Prefix("BANDS_")
	bands := bandssvc.New(market, estimator, telemetry, bandssvc.Config{
		MinPremiumObs: int64(bandsCfg.MayInt("MIN_PREMIUM_OBS", 8)),
		PremiumMonths: bandsCfg.MayInt("PREMIUM_MONTHS", 24),
		BTODiscount:   finCfg.MayFloat64("BTO_DISCOUNT", 0.20),
		LTV:           finCfg.MayFloat64("LTV", 0.80),
		AnnualRate:    finCfg.MayFloat64("ANNUAL_RATE", 0.026),
		TenureYears:   finCfg.MayInt("TENURE_YEARS", 25),
		MSR:           finCfg.MayFloat64("MSR", 0.30),
	})

	supply := supplysvc.New(market, telemetry)

	var gen llm.Generator
	llmCfg := opt.Config.Prefix("LLM_")
	if llmCfg.MayBool("ENABLED", true) {
		gen = llm.New(llm.Config{
			BaseURL: llmCfg.MayString("BASE_URL", ""),
			Model:   llmCfg.MayString("MODEL", ""),
			Timeout: llmCfg.MayDuration("TIMEOUT", 10*time.Second),
		})
	}

	routerCfg := opt.Config.Prefix("ROUTER_")
	router := routersvc.New(market, telemetry, gen, routersvc.Config{
		MaxDistance: routerCfg.MayInt("MAX_DISTANCE", 2),
		LLMTimeout:  routerCfg.MayDuration("LLM_TIMEOUT", 5*time.Second),
	})

	driftwatch := driftsvc.New(estimator, market, driftsvc.Config{
		NumericWarn:     modelCfg.MayFloat64("PSI_WARN", 0.2),
		CategoricalWarn: modelCfg.MayFloat64("SHARE_WARN", 0.1),
	})

	supplyCfg := opt.Config.Prefix("SUPPLY_")
	tools := toolssvc.New(router, bands, supply, toolssvc.Config{
		DefaultYears: supplyCfg.MayInt("DEFAULT_YEARS", 3),
		DefaultTopK:  supplyCfg.MayInt("DEFAULT_TOP_K", 10),
	})
	monitor := monitorsvc.New(driftwatch, telemetry)

	mods := []modkit.Module{
		metamod.New(deps, estimator),
		toolsmod.New(deps, tools),
		monitormod.New(deps, monitor),
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		phttp.MountSwagger(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
}
