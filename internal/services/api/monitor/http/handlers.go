// Package http provides http transport for the monitoring endpoints
package http

import (
	stdhttp "net/http"

	"flatsense/internal/modkit/httpkit"
	"flatsense/internal/services/api/monitor/domain"
	svc "flatsense/internal/services/api/monitor/service"
)

// Register mounts the monitoring endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// drift report; body-less on purpose, the report has no parameters
	httpkit.Post(r, "/drift", h.drift)

	// telemetry aggregate for dashboards
	httpkit.PostJSON[domain.TelemetryInput](r, "/telemetry", h.telemetry)
}

type handlers struct{ svc svc.Service }

// @Summary Current drift report vs the training reference
// @Tags Monitor
// @Produce json
// @Success 200 {object} driftdomain.Report "ok"
// @Router /monitor/drift [post]
func (h *handlers) drift(r *stdhttp.Request) (any, error) {
	return h.svc.Drift(r.Context())
}

// @Summary Tool latency and error aggregate
// @Tags Monitor
// @Accept json
// @Produce json
// @Param payload body domain.TelemetryInput true "Scope"
// @Success 200 {object} teldomain.Aggregate "ok"
// @Router /monitor/telemetry [post]
func (h *handlers) telemetry(r *stdhttp.Request, in domain.TelemetryInput) (any, error) {
	return h.svc.Telemetry(r.Context(), in)
}
