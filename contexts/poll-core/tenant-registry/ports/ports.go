package ports

import "context"

// PollConfig declares one tenant: a (guild, poll type) pair allowed to run
// polls, plus the knobs that shape behavior inside that tenant.
type PollConfig struct {
	GuildID          string
	PollType         string
	AdminRoleID      string
	DashboardCommand string
	ScoringPolicy    string
}

type Registry interface {
	GetConfig(ctx context.Context, guildID string, pollType string) (PollConfig, bool, error)
	ListConfigs(ctx context.Context) ([]PollConfig, error)
	PutConfig(ctx context.Context, config PollConfig) error
}
