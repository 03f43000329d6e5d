// Package http provides http transport for the tool endpoints
package http

import (
	stdhttp "net/http"

	"flatsense/internal/modkit/httpkit"
	"flatsense/internal/services/api/tools/domain"
	svc "flatsense/internal/services/api/tools/service"
)

// Register mounts the tool endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// free-text routing plus dispatch
	httpkit.PostJSON[domain.RouteInput](r, "/route", h.route)

	// price bands for a town and flat type
	httpkit.PostJSON[domain.PriceInput](r, "/price-estimates", h.priceEstimates)

	// scarcest towns by transaction volume
	httpkit.PostJSON[domain.SupplyInput](r, "/low-supply", h.lowSupply)
}

type handlers struct{ svc svc.Service }

// @Summary Route a free-text housing query
// @Tags Tools
// @Accept json
// @Produce json
// @Param payload body domain.RouteInput true "Query"
// @Success 200 {object} domain.RouteResult "ok"
// @Router /tools/route [post]
func (h *handlers) route(r *stdhttp.Request, in domain.RouteInput) (any, error) {
	return h.svc.Route(r.Context(), in)
}

// @Summary Price bands for a town and flat type
// @Tags Tools
// @Accept json
// @Produce json
// @Param payload body domain.PriceInput true "Query"
// @Success 200 {object} bandsdomain.Estimate "ok"
// @Router /tools/price-estimates [post]
func (h *handlers) priceEstimates(r *stdhttp.Request, in domain.PriceInput) (any, error) {
	return h.svc.PriceEstimates(r.Context(), in)
}

// @Summary Towns ranked by transaction scarcity
// @Tags Tools
// @Accept json
// @Produce json
// @Param payload body domain.SupplyInput true "Query"
// @Success 200 {object} supplydomain.Ranking "ok"
// @Router /tools/low-supply [post]
func (h *handlers) lowSupply(r *stdhttp.Request, in domain.SupplyInput) (any, error) {
	return h.svc.LowSupply(r.Context(), in)
}
