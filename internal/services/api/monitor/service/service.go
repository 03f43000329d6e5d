// Package service orchestrates the monitoring endpoints
package service

import (
	"context"
	"time"

	"flatsense/internal/services/api/monitor/domain"
	driftdomain "flatsense/internal/services/driftwatch/domain"
	teldomain "flatsense/internal/services/telemetry/domain"
)

// Service defines the monitoring contract
type Service interface {
	// Drift computes the current drift report
	Drift(ctx context.Context) (driftdomain.Report, error)

	// Telemetry aggregates the event log for dashboards
	Telemetry(ctx context.Context, in domain.TelemetryInput) (teldomain.Aggregate, error)
}

// Svc implements the monitoring surface
type Svc struct {
	drift driftdomain.DetectorPort
	tel   teldomain.ReaderPort
}

// New constructs the monitoring service
func New(drift driftdomain.DetectorPort, tel teldomain.ReaderPort) *Svc {
	if drift == nil {
		panic("monitor.Service requires a drift detector")
	}
	if tel == nil {
		panic("monitor.Service requires a telemetry reader")
	}
	return &Svc{drift: drift, tel: tel}
}

// Drift implements Service
func (s *Svc) Drift(ctx context.Context) (driftdomain.Report, error) {
	return s.drift.Compute(ctx)
}

// Telemetry implements Service
// Since was validated as YYYY-MM at the bind layer; blank means epoch
func (s *Svc) Telemetry(ctx context.Context, in domain.TelemetryInput) (teldomain.Aggregate, error) {
	var since time.Time
	if in.Since != "" {
		since, _ = time.Parse("2006-01", in.Since)
	}
	return s.tel.Aggregate(ctx, in.Tool, since)
}
