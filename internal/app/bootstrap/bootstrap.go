package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	leaderboardservice "quorum/contexts/poll-core/leaderboard-service"
	leaderboardpostgres "quorum/contexts/poll-core/leaderboard-service/adapters/postgres"
	pollengine "quorum/contexts/poll-core/poll-engine"
	pollpostgres "quorum/contexts/poll-core/poll-engine/adapters/postgres"
	pollentities "quorum/contexts/poll-core/poll-engine/domain/entities"
	tenantregistry "quorum/contexts/poll-core/tenant-registry"
	"quorum/contexts/poll-core/tenant-registry/adapters/jsonfile"
	tenantports "quorum/contexts/poll-core/tenant-registry/ports"
	"quorum/internal/platform/config"
	"quorum/internal/platform/db"
	"quorum/internal/platform/httpserver"
	"quorum/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	polls         pollengine.Module
	sweepInterval time.Duration
	runSweeper    bool
	runRelay      bool
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	tenantModule, err := buildTenantModule(cfg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	leaderboardRepo := leaderboardpostgres.NewRepository(pg.DB, logger)
	leaderboardModule := leaderboardservice.NewModule(leaderboardservice.Dependencies{
		Repo:   leaderboardRepo,
		Clock:  pollpostgres.SystemClock{},
		Logger: logger,
	})

	pollRepo := pollpostgres.NewRepository(pg.DB, logger)
	pollModule := pollengine.NewModule(pollengine.Dependencies{
		Polls:                pollRepo,
		Ledger:               pollRepo,
		Tenants:              tenantDirectory{tenants: tenantModule.Tenants},
		Scores:               scorekeeper{scores: leaderboardModule.Scores},
		Outbox:               pollRepo,
		OutboxRepo:           pollRepo,
		Clock:                pollpostgres.SystemClock{},
		IDGen:                pollpostgres.UUIDGenerator{},
		DefaultScoringPolicy: pollentities.ScoringPolicy(cfg.DefaultScoringPolicy),
		Logger:               logger,
	})

	server := httpserver.New(pollModule, leaderboardModule, tenantModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	tenantModule, err := buildTenantModule(cfg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	leaderboardRepo := leaderboardpostgres.NewRepository(pg.DB, logger)
	leaderboardModule := leaderboardservice.NewModule(leaderboardservice.Dependencies{
		Repo:   leaderboardRepo,
		Clock:  pollpostgres.SystemClock{},
		Logger: logger,
	})

	pollRepo := pollpostgres.NewRepository(pg.DB, logger)
	pollModule := pollengine.NewModule(pollengine.Dependencies{
		Polls:                pollRepo,
		Ledger:               pollRepo,
		Tenants:              tenantDirectory{tenants: tenantModule.Tenants},
		Scores:               scorekeeper{scores: leaderboardModule.Scores},
		Outbox:               pollRepo,
		OutboxRepo:           pollRepo,
		Publisher:            eventPublisher{bus: kafka},
		Clock:                pollpostgres.SystemClock{},
		IDGen:                pollpostgres.UUIDGenerator{},
		DefaultScoringPolicy: pollentities.ScoringPolicy(cfg.DefaultScoringPolicy),
		Logger:               logger,
	})

	return &WorkerApp{
		postgres:      pg,
		polls:         pollModule,
		sweepInterval: cfg.SweepInterval,
		runSweeper:    cfg.EnableDeadlineSweeper,
		runRelay:      cfg.EnableOutboxRelay,
		logger:        logger,
	}, nil
}

func buildTenantModule(cfg config.Config, logger *slog.Logger) (tenantregistry.Module, error) {
	var seed []tenantports.PollConfig
	if strings.TrimSpace(cfg.TenantsFile) != "" {
		configs, err := jsonfile.Load(cfg.TenantsFile)
		if err != nil {
			return tenantregistry.Module{}, err
		}
		seed = configs
	}
	return tenantregistry.NewInMemoryModule(seed, logger), nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.sweepInterval.String(),
		"deadline_sweeper", w.runSweeper,
		"outbox_relay", w.runRelay,
	)

	for {
		if w.runSweeper {
			if err := w.polls.Sweeper.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.runRelay {
			if err := w.polls.Relay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
