package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	"github.com/SscSPs/ipsas_ledger/internal/middleware"
)

// serviceOptions holds the optional collaborators shared by the ledger services.
type serviceOptions struct {
	audit       ports.AuditSink
	metrics     ports.LedgerMetrics
	cache       ports.TrialBalanceCache
	jobs        ports.LedgerJobPublisher
	now         func() time.Time
	postTimeout time.Duration
}

// ServiceOption is a functional option for configuring the ledger services
type ServiceOption func(*serviceOptions)

// WithAuditSink sets where state transitions are reported.
func WithAuditSink(sink ports.AuditSink) ServiceOption {
	return func(o *serviceOptions) { o.audit = sink }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m ports.LedgerMetrics) ServiceOption {
	return func(o *serviceOptions) { o.metrics = m }
}

// WithTrialBalanceCache sets the trial balance cache.
func WithTrialBalanceCache(c ports.TrialBalanceCache) ServiceOption {
	return func(o *serviceOptions) { o.cache = c }
}

// WithJobPublisher sets the background job publisher.
func WithJobPublisher(p ports.LedgerJobPublisher) ServiceOption {
	return func(o *serviceOptions) { o.jobs = p }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) { o.now = now }
}

// WithPostTimeout bounds how long a single post may hold its locks.
func WithPostTimeout(d time.Duration) ServiceOption {
	return func(o *serviceOptions) { o.postTimeout = d }
}

func buildOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BaseService provides common functionality for all services
type BaseService struct {
	audit   ports.AuditSink
	metrics ports.LedgerMetrics
	now     func() time.Time
}

func newBaseService(o serviceOptions) BaseService {
	return BaseService{audit: o.audit, metrics: o.metrics, now: o.now}
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// Now returns the service clock's current time in UTC.
func (s *BaseService) Now() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// Authorize checks the capability table for the actor.
func (s *BaseService) Authorize(ctx context.Context, actor domain.Actor, capability domain.Capability, subject string) error {
	if actor.UserID != "" && actor.Can(capability) {
		return nil
	}
	err := apperrors.Forbidden(subject, actor.UserID, string(capability))
	s.LogWarn(ctx, "Capability check failed",
		slog.String("user_id", actor.UserID),
		slog.String("role", string(actor.Role)),
		slog.String("capability", string(capability)),
		slog.String("subject", subject))
	return err
}

// RecordAudit reports a committed transition to the audit sink.
// The transition has already happened, so a sink failure is logged rather than returned.
func (s *BaseService) RecordAudit(ctx context.Context, event domain.AuditEvent) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(event.Action)
	}
	if s.audit == nil {
		return
	}
	if event.At.IsZero() {
		event.At = s.Now()
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to record audit event",
			slog.String("action", string(event.Action)),
			slog.String("entity", event.Entity),
			slog.String("entity_id", event.EntityID))
	}
}
