package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"quorum/contexts/poll-core/poll-engine/domain/entities"
	domainerrors "quorum/contexts/poll-core/poll-engine/domain/errors"
	"quorum/contexts/poll-core/poll-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing tests and local wiring. A single
// mutex makes every conditional write (CAS transitions, state-checked vote
// upserts, scored-marker claims) one atomic section, mirroring what the
// postgres adapter achieves with conditional statements.
type Store struct {
	mu sync.RWMutex

	polls   map[string]entities.PollInstance
	votes   map[string]map[string]entities.VoteRecord
	scored  map[string]time.Time
	tenants map[string]ports.TenantProjection
	outbox  map[string]outboxRecord
}

func NewStore(seed []entities.PollInstance) *Store {
	polls := make(map[string]entities.PollInstance, len(seed))
	for _, poll := range seed {
		polls[poll.PollID] = poll
	}
	return &Store{
		polls:   polls,
		votes:   make(map[string]map[string]entities.VoteRecord),
		scored:  make(map[string]time.Time),
		tenants: make(map[string]ports.TenantProjection),
		outbox:  make(map[string]outboxRecord),
	}
}

func (s *Store) SetTenant(tenant ports.TenantProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[tenantKey(tenant.GuildID, tenant.PollType)] = ports.TenantProjection{
		GuildID:       strings.TrimSpace(tenant.GuildID),
		PollType:      strings.TrimSpace(tenant.PollType),
		ScoringPolicy: tenant.ScoringPolicy,
	}
}

func (s *Store) GetTenant(_ context.Context, guildID string, pollType string) (ports.TenantProjection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenant, ok := s.tenants[tenantKey(guildID, pollType)]
	return tenant, ok, nil
}

func (s *Store) CreateActivePoll(_ context.Context, poll entities.PollInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.polls {
		if existing.State != entities.PollStateActive {
			continue
		}
		if existing.GuildID == poll.GuildID && existing.PollType == poll.PollType {
			return domainerrors.ErrConflictingActivePoll
		}
	}
	s.polls[poll.PollID] = clonePoll(poll)
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.PollInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.PollInstance{}, domainerrors.ErrPollNotFound
	}
	return clonePoll(poll), nil
}

func (s *Store) GetActivePoll(_ context.Context, guildID string, pollType string) (entities.PollInstance, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, poll := range s.polls {
		if poll.State != entities.PollStateActive {
			continue
		}
		if poll.GuildID == strings.TrimSpace(guildID) && poll.PollType == strings.TrimSpace(pollType) {
			return clonePoll(poll), true, nil
		}
	}
	return entities.PollInstance{}, false, nil
}

func (s *Store) TransitionState(_ context.Context, transition ports.StateTransition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[strings.TrimSpace(transition.PollID)]
	if !ok {
		return false, domainerrors.ErrPollNotFound
	}
	if poll.State != transition.From {
		return false, nil
	}
	poll.State = transition.To
	poll.UpdatedAt = transition.At.UTC()
	if len(transition.AnswerKey) > 0 {
		poll.CorrectOptions = append([]int(nil), transition.AnswerKey...)
	}
	s.polls[poll.PollID] = poll
	return true, nil
}

func (s *Store) ListOverduePolls(_ context.Context, now time.Time) ([]entities.PollInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.PollInstance, 0)
	for _, poll := range s.polls {
		if poll.State != entities.PollStateActive {
			continue
		}
		if poll.Deadline.After(now.UTC()) {
			continue
		}
		items = append(items, clonePoll(poll))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Deadline.Before(items[j].Deadline)
	})
	return items, nil
}

func (s *Store) MarkScored(_ context.Context, pollID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pollID = strings.TrimSpace(pollID)
	if _, claimed := s.scored[pollID]; claimed {
		return false, nil
	}
	s.scored[pollID] = at.UTC()
	return true, nil
}

func (s *Store) UnmarkScored(_ context.Context, pollID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scored, strings.TrimSpace(pollID))
	return nil
}

func (s *Store) UpsertVote(_ context.Context, vote entities.VoteRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[vote.PollID]
	if !ok {
		return false, domainerrors.ErrPollNotFound
	}
	// The state check and the write share the lock, so a vote can never land
	// after a close transition committed.
	if poll.State != entities.PollStateActive {
		return false, fmt.Errorf("%w: poll is %s", domainerrors.ErrPollNotActive, poll.State)
	}

	byVoter, ok := s.votes[vote.PollID]
	if !ok {
		byVoter = make(map[string]entities.VoteRecord)
		s.votes[vote.PollID] = byVoter
	}
	existing, replaced := byVoter[vote.VoterID]
	if replaced {
		vote.SubmittedAt = existing.SubmittedAt
	}
	vote.ChosenOrdinals = append([]int(nil), vote.ChosenOrdinals...)
	byVoter[vote.VoterID] = vote
	return replaced, nil
}

func (s *Store) GetBallot(_ context.Context, pollID string, voterID string) (entities.VoteRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[strings.TrimSpace(pollID)][strings.TrimSpace(voterID)]
	if !ok {
		return entities.VoteRecord{}, false, nil
	}
	vote.ChosenOrdinals = append([]int(nil), vote.ChosenOrdinals...)
	return vote, true, nil
}

func (s *Store) ListVotes(_ context.Context, pollID string) ([]entities.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.VoteRecord, 0, len(s.votes[strings.TrimSpace(pollID)]))
	for _, vote := range s.votes[strings.TrimSpace(pollID)] {
		vote.ChosenOrdinals = append([]int(nil), vote.ChosenOrdinals...)
		items = append(items, vote)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SubmittedAt.Equal(items[j].SubmittedAt) {
			return items[i].VoterID < items[j].VoterID
		}
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) TallyVotes(_ context.Context, pollID string) (entities.Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tally := entities.Tally{
		PollID: strings.TrimSpace(pollID),
		Counts: make(map[int]int),
	}
	for _, vote := range s.votes[tally.PollID] {
		tally.Voters++
		for _, ordinal := range vote.ChosenOrdinals {
			tally.Counts[ordinal]++
		}
	}
	return tally, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	// Same semantics as the conflict-ignoring insert in the postgres adapter:
	// a repeated append under an already stored event ID is a no-op.
	if _, ok := s.outbox[outboxID]; ok {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func clonePoll(poll entities.PollInstance) entities.PollInstance {
	poll.Options = append([]entities.Option(nil), poll.Options...)
	if poll.CorrectOptions != nil {
		poll.CorrectOptions = append([]int(nil), poll.CorrectOptions...)
	}
	return poll
}

func tenantKey(guildID string, pollType string) string {
	return strings.TrimSpace(guildID) + "|" + strings.TrimSpace(pollType)
}
