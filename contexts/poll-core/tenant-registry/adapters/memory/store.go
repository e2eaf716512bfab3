package memory

import (
	"context"
	"strings"
	"sync"

	"quorum/contexts/poll-core/tenant-registry/ports"
)

type Store struct {
	mu      sync.RWMutex
	configs map[string]ports.PollConfig
}

func NewStore(seed []ports.PollConfig) *Store {
	configs := make(map[string]ports.PollConfig, len(seed))
	for _, config := range seed {
		configs[configKey(config.GuildID, config.PollType)] = config
	}
	return &Store{configs: configs}
}

func configKey(guildID string, pollType string) string {
	return strings.TrimSpace(guildID) + "|" + strings.TrimSpace(pollType)
}

func (s *Store) GetConfig(_ context.Context, guildID string, pollType string) (ports.PollConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, ok := s.configs[configKey(guildID, pollType)]
	return config, ok, nil
}

func (s *Store) ListConfigs(_ context.Context) ([]ports.PollConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.PollConfig, 0, len(s.configs))
	for _, config := range s.configs {
		items = append(items, config)
	}
	return items, nil
}

func (s *Store) PutConfig(_ context.Context, config ports.PollConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[configKey(config.GuildID, config.PollType)] = config
	return nil
}
