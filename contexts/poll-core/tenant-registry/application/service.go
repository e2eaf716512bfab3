package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	domainerrors "quorum/contexts/poll-core/tenant-registry/domain/errors"
	"quorum/contexts/poll-core/tenant-registry/ports"
)

type Service struct {
	Repo   ports.Registry
	Logger *slog.Logger
}

// Resolve maps a (guild, poll type) pair to its tenant config. Unknown pairs
// are a hard error; every poll operation starts here.
func (s Service) Resolve(ctx context.Context, guildID string, pollType string) (ports.PollConfig, error) {
	guildID = strings.TrimSpace(guildID)
	pollType = strings.TrimSpace(pollType)
	if guildID == "" || pollType == "" {
		return ports.PollConfig{}, domainerrors.ErrInvalidTenant
	}
	config, found, err := s.Repo.GetConfig(ctx, guildID, pollType)
	if err != nil {
		return ports.PollConfig{}, err
	}
	if !found {
		return ports.PollConfig{}, domainerrors.ErrUnknownTenant
	}
	return config, nil
}

func (s Service) List(ctx context.Context) ([]ports.PollConfig, error) {
	configs, err := s.Repo.ListConfigs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(configs, func(i, j int) bool {
		if configs[i].GuildID != configs[j].GuildID {
			return configs[i].GuildID < configs[j].GuildID
		}
		return configs[i].PollType < configs[j].PollType
	})
	return configs, nil
}

func (s Service) Register(ctx context.Context, config ports.PollConfig) (ports.PollConfig, error) {
	config.GuildID = strings.TrimSpace(config.GuildID)
	config.PollType = strings.TrimSpace(config.PollType)
	config.AdminRoleID = strings.TrimSpace(config.AdminRoleID)
	config.DashboardCommand = strings.TrimSpace(config.DashboardCommand)
	config.ScoringPolicy = strings.ToLower(strings.TrimSpace(config.ScoringPolicy))
	if config.GuildID == "" || config.PollType == "" {
		return ports.PollConfig{}, domainerrors.ErrInvalidTenant
	}
	switch config.ScoringPolicy {
	case "", "any_overlap", "exact_match":
	default:
		return ports.PollConfig{}, domainerrors.ErrInvalidTenant
	}
	if err := s.Repo.PutConfig(ctx, config); err != nil {
		return ports.PollConfig{}, err
	}
	resolveLogger(s.Logger).Info("tenant registered",
		"event", "tenant_registered",
		"module", "poll-core/tenant-registry",
		"layer", "application",
		"guild_id", config.GuildID,
		"poll_type", config.PollType,
	)
	return config, nil
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
