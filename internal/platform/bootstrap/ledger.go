// Package bootstrap assembles the ledger services from configuration for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/core/services"
	"github.com/SscSPs/ipsas_ledger/internal/jobs"
	"github.com/SscSPs/ipsas_ledger/internal/platform/audit"
	"github.com/SscSPs/ipsas_ledger/internal/platform/cache"
	"github.com/SscSPs/ipsas_ledger/internal/platform/config"
	"github.com/SscSPs/ipsas_ledger/internal/platform/locks"
	"github.com/SscSPs/ipsas_ledger/internal/platform/metrics"
	"github.com/SscSPs/ipsas_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/ipsas_ledger/internal/repositories/memory"
	"github.com/SscSPs/ipsas_ledger/pkg/database"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Options tune what Build wires.
type Options struct {
	// RunMigrations applies pending schema migrations before the store is used.
	RunMigrations bool
	// Registerer receives the ledger metrics; nil uses the default registerer.
	Registerer prometheus.Registerer
}

// Ledger is a fully wired ledger core plus the infrastructure it holds open.
type Ledger struct {
	Services *portssvc.ServiceContainer
	Metrics  *metrics.Metrics
	Redis    *redis.Client
	Jobs     *jobs.Client

	closers []func()
}

// Close releases every resource in reverse order of acquisition.
func (l *Ledger) Close() {
	for i := len(l.closers) - 1; i >= 0; i-- {
		l.closers[i]()
	}
	l.closers = nil
}

// Build connects the configured store, cache, locks, job queue and audit sinks and
// wires the service container over them. On error everything already opened is closed.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (_ *Ledger, err error) {
	l := &Ledger{Metrics: metrics.NewMetrics(opts.Registerer)}
	defer func() {
		if err != nil {
			l.Close()
		}
	}()

	sinks := audit.Fanout{audit.NewLogSink(logger)}

	var repos portsrepo.RepositoryProvider
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory ledger store; data is lost on restart")
		repos = portsrepo.NewRepositoryProvider(memory.NewStore())
	case config.StoreDriverPgsql:
		if opts.RunMigrations {
			if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		l.closers = append(l.closers, func() { database.ClosePgxPool(pool) })
		logger.Info("Database connection pool established.")

		repos = pgsql.NewRepositoryProvider(pool)
		sinks = append(sinks, audit.NewPgxSink(pool))
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	local := locks.NewManager()
	var locker ports.PostingLocker = local
	svcOpts := []services.ServiceOption{
		services.WithAuditSink(sinks),
		services.WithMetrics(l.Metrics),
		services.WithPostTimeout(cfg.PostTimeout),
	}

	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		l.Redis = client
		l.closers = append(l.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})

		svcOpts = append(svcOpts, services.WithTrialBalanceCache(cache.NewTrialBalanceCache(client, cfg.TrialBalanceTTL)))

		l.Jobs = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		jobClient := l.Jobs
		l.closers = append(l.closers, func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		})
		svcOpts = append(svcOpts, services.WithJobPublisher(jobClient))

		if cfg.UseRedisLocks {
			locker = locks.NewRedisEntryLocker(client, local, locks.DefaultRedisOptions(), logger)
			logger.Info("Using Redis entry locks")
		}
	} else {
		logger.Info("REDIS_ADDR not set; trial balance cache and background jobs disabled")
	}

	l.Services = services.NewServiceContainer(repos, locker, svcOpts...)
	return l, nil
}
