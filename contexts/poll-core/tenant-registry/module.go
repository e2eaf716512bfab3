package tenantregistry

import (
	"log/slog"

	httpadapter "quorum/contexts/poll-core/tenant-registry/adapters/http"
	"quorum/contexts/poll-core/tenant-registry/adapters/memory"
	"quorum/contexts/poll-core/tenant-registry/application"
	"quorum/contexts/poll-core/tenant-registry/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Tenants application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.Registry
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repo,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Tenants: service,
			Logger:  deps.Logger,
		},
		Tenants: service,
	}
}

func NewInMemoryModule(seed []ports.PollConfig, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repo:   store,
		Logger: logger,
	})
	module.Store = store
	return module
}
