package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	"github.com/SscSPs/ipsas_ledger/internal/middleware"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgxpool.Pool used by the store sink.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgxSink writes audit events into audit_logs.
type PgxSink struct {
	db Execer
}

// NewPgxSink returns a sink backed by the given pool.
func NewPgxSink(db Execer) *PgxSink {
	return &PgxSink{db: db}
}

var _ ports.AuditSink = (*PgxSink)(nil)

// Record persists the event.
func (s *PgxSink) Record(ctx context.Context, event domain.AuditEvent) error {
	if s == nil || s.db == nil {
		return errors.New("audit sink not initialised")
	}
	if err := checkEvent(event); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(event.Meta)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		event.ActorID, string(event.Action), event.Entity, event.EntityID, metaJSON, nullableTime(event))
	return err
}

// LogSink writes audit events to the structured log. Used when no store is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that logs through logger, or through the request logger when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

var _ ports.AuditSink = (*LogSink)(nil)

func (s *LogSink) Record(ctx context.Context, event domain.AuditEvent) error {
	if err := checkEvent(event); err != nil {
		return err
	}
	logger := s.logger
	if logger == nil {
		logger = middleware.GetLoggerFromCtx(ctx)
	}
	logger.InfoContext(ctx, "audit",
		slog.String("actor_id", event.ActorID),
		slog.String("action", string(event.Action)),
		slog.String("entity", event.Entity),
		slog.String("entity_id", event.EntityID),
		slog.Any("meta", event.Meta),
		slog.Time("at", event.At))
	return nil
}

// Fanout delivers each event to every sink and joins their errors.
type Fanout []ports.AuditSink

var _ ports.AuditSink = Fanout(nil)

func (f Fanout) Record(ctx context.Context, event domain.AuditEvent) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkEvent(event domain.AuditEvent) error {
	if event.Action == "" || event.Entity == "" || event.EntityID == "" {
		return errors.New("audit event requires action/entity/entity_id")
	}
	return nil
}

func nullableTime(event domain.AuditEvent) any {
	if event.At.IsZero() {
		return nil
	}
	return event.At
}
