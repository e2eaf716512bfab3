package pollengine

import (
	"log/slog"

	httpadapter "quorum/contexts/poll-core/poll-engine/adapters/http"
	"quorum/contexts/poll-core/poll-engine/adapters/memory"
	"quorum/contexts/poll-core/poll-engine/application/commands"
	"quorum/contexts/poll-core/poll-engine/application/queries"
	"quorum/contexts/poll-core/poll-engine/application/workers"
	"quorum/contexts/poll-core/poll-engine/domain/entities"
	"quorum/contexts/poll-core/poll-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Polls   commands.PollUseCase
	Queries queries.PollQueryUseCase
	Sweeper workers.DeadlineSweeper
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Polls                ports.PollRepository
	Ledger               ports.VoteLedger
	Tenants              ports.TenantDirectory
	Scores               ports.Scorekeeper
	Outbox               ports.OutboxWriter
	OutboxRepo           ports.OutboxRepository
	Publisher            ports.EventPublisher
	Clock                ports.Clock
	IDGen                ports.IDGenerator
	DefaultScoringPolicy entities.ScoringPolicy
	Logger               *slog.Logger
}

func NewModule(deps Dependencies) Module {
	pollUseCase := commands.PollUseCase{
		Polls:                deps.Polls,
		Ledger:               deps.Ledger,
		Tenants:              deps.Tenants,
		Scores:               deps.Scores,
		Outbox:               deps.Outbox,
		Clock:                deps.Clock,
		IDGen:                deps.IDGen,
		DefaultScoringPolicy: deps.DefaultScoringPolicy,
		Logger:               deps.Logger,
	}
	queryUseCase := queries.PollQueryUseCase{
		Polls:  deps.Polls,
		Ledger: deps.Ledger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Polls:   pollUseCase,
			Queries: queryUseCase,
			Logger:  deps.Logger,
		},
		Polls:   pollUseCase,
		Queries: queryUseCase,
		Sweeper: workers.DeadlineSweeper{
			Polls:  deps.Polls,
			Closer: pollUseCase,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(
	seed []entities.PollInstance,
	scores ports.Scorekeeper,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Polls:      store,
		Ledger:     store,
		Tenants:    store,
		Scores:     scores,
		Outbox:     store,
		OutboxRepo: store,
		Publisher:  publisher,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
