package httpadapter

import (
	"context"
	"log/slog"

	"quorum/contexts/poll-core/tenant-registry/application"
	"quorum/contexts/poll-core/tenant-registry/ports"
	httptransport "quorum/contexts/poll-core/tenant-registry/transport/http"
)

type Handler struct {
	Tenants application.Service
	Logger  *slog.Logger
}

func (h Handler) GetTenantHandler(ctx context.Context, guildID string, pollType string) (httptransport.TenantConfig, error) {
	config, err := h.Tenants.Resolve(ctx, guildID, pollType)
	if err != nil {
		return httptransport.TenantConfig{}, err
	}
	return mapConfig(config), nil
}

func (h Handler) ListTenantsHandler(ctx context.Context) (httptransport.TenantListResponse, error) {
	configs, err := h.Tenants.List(ctx)
	if err != nil {
		return httptransport.TenantListResponse{}, err
	}
	items := make([]httptransport.TenantConfig, 0, len(configs))
	for _, config := range configs {
		items = append(items, mapConfig(config))
	}
	return httptransport.TenantListResponse{Items: items}, nil
}

func (h Handler) RegisterTenantHandler(ctx context.Context, req httptransport.RegisterTenantRequest) (httptransport.TenantConfig, error) {
	config, err := h.Tenants.Register(ctx, ports.PollConfig{
		GuildID:          req.GuildID,
		PollType:         req.PollType,
		AdminRoleID:      req.AdminRoleID,
		DashboardCommand: req.DashboardCommand,
		ScoringPolicy:    req.ScoringPolicy,
	})
	if err != nil {
		return httptransport.TenantConfig{}, err
	}
	return mapConfig(config), nil
}

func mapConfig(config ports.PollConfig) httptransport.TenantConfig {
	return httptransport.TenantConfig{
		GuildID:          config.GuildID,
		PollType:         config.PollType,
		AdminRoleID:      config.AdminRoleID,
		DashboardCommand: config.DashboardCommand,
		ScoringPolicy:    config.ScoringPolicy,
	}
}
