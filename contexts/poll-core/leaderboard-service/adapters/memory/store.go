package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"quorum/contexts/poll-core/leaderboard-service/ports"
)

type Store struct {
	mu sync.RWMutex

	// scores is keyed tenant -> voter.
	scores map[string]map[string]ports.UserScoreEntry
}

func NewStore() *Store {
	return &Store{
		scores: make(map[string]map[string]ports.UserScoreEntry),
	}
}

func tenantKey(guildID string, pollType string) string {
	return strings.TrimSpace(guildID) + "|" + strings.TrimSpace(pollType)
}

func (s *Store) ApplyDeltas(_ context.Context, guildID string, pollType string, at time.Time, deltas []ports.ScoreDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tenantKey(guildID, pollType)
	tenant, ok := s.scores[key]
	if !ok {
		tenant = make(map[string]ports.UserScoreEntry)
		s.scores[key] = tenant
	}
	for _, delta := range deltas {
		entry, exists := tenant[delta.VoterID]
		if !exists {
			entry = ports.UserScoreEntry{
				GuildID:       strings.TrimSpace(guildID),
				PollType:      strings.TrimSpace(pollType),
				VoterID:       delta.VoterID,
				FirstScoredAt: at.UTC(),
			}
		}
		entry.Points += delta.Points
		if delta.Correct {
			entry.CorrectCount++
		}
		entry.PollsParticipated++
		entry.UpdatedAt = at.UTC()
		tenant[delta.VoterID] = entry
	}
	return nil
}

func (s *Store) GetScore(_ context.Context, guildID string, pollType string, voterID string) (ports.UserScoreEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.scores[tenantKey(guildID, pollType)][strings.TrimSpace(voterID)]
	return entry, ok, nil
}

// ListRanked materializes the tenant ordering: points descending, earliest
// first score next, voter ID last. A limit of zero returns the whole board.
func (s *Store) ListRanked(_ context.Context, guildID string, pollType string, limit int, offset int) ([]ports.RankedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant := s.scores[tenantKey(guildID, pollType)]
	items := make([]ports.RankedEntry, 0, len(tenant))
	for _, entry := range tenant {
		items = append(items, ports.RankedEntry{UserScoreEntry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Points != items[j].Points {
			return items[i].Points > items[j].Points
		}
		if !items[i].FirstScoredAt.Equal(items[j].FirstScoredAt) {
			return items[i].FirstScoredAt.Before(items[j].FirstScoredAt)
		}
		return items[i].VoterID < items[j].VoterID
	})
	for i := range items {
		items[i].Rank = i + 1
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []ports.RankedEntry{}, nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]ports.RankedEntry(nil), items[offset:end]...), nil
}

func (s *Store) CountVoters(_ context.Context, guildID string, pollType string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scores[tenantKey(guildID, pollType)]), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
