package leaderboardservice

import (
	"log/slog"

	httpadapter "quorum/contexts/poll-core/leaderboard-service/adapters/http"
	"quorum/contexts/poll-core/leaderboard-service/adapters/memory"
	"quorum/contexts/poll-core/leaderboard-service/application"
	"quorum/contexts/poll-core/leaderboard-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Scores  application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Scores: service,
			Logger: deps.Logger,
		},
		Scores: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:   store,
		Clock:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
