// Package service implements the telemetry recorder and read path
package service

import (
	"context"
	"time"

	perr "flatsense/internal/platform/errors"
	"flatsense/internal/platform/logger"
	"flatsense/internal/services/telemetry/domain"
	"flatsense/internal/services/telemetry/repo"
)

// Service defines the telemetry contract
type Service interface {
	domain.RecorderPort
	domain.ReaderPort
}

// Svc implements the telemetry service
type Svc struct {
	Repo repo.Repo
	log  *logger.Logger
}

// New constructs a telemetry service
func New(r repo.Repo) *Svc {
	if r == nil {
		panic("telemetry.Service requires a non nil Repo")
	}
	return &Svc{Repo: r, log: logger.Named("telemetry")}
}

// Record implements domain.RecorderPort
// a write failure is logged locally and swallowed so tools never see it
func (s *Svc) Record(ctx context.Context, e domain.Event) {
	if err := s.Repo.Append(ctx, e); err != nil {
		werr := perr.Wrap(err, perr.ErrorCodeTelemetryWrite, "telemetry append failed")
		s.log.Warn().Err(werr).Str("kind", string(e.Kind)).Msg("dropping telemetry event")
	}
}

// Aggregate implements domain.ReaderPort
func (s *Svc) Aggregate(ctx context.Context, tool string, since time.Time) (domain.Aggregate, error) {
	return s.Repo.Aggregate(ctx, tool, since)
}

// Timed runs fn and records a tool_call event with its latency and outcome
// the fn error passes through untouched
func Timed[T any](
	ctx context.Context,
	rec domain.RecorderPort,
	tool string,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	start := time.Now()
	out, err := fn(ctx)
	rec.Record(ctx, domain.ToolCall(tool, time.Since(start), err))
	return out, err
}
