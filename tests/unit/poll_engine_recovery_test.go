package unit

import (
	"context"
	"errors"
	"testing"

	leaderboardservice "quorum/contexts/poll-core/leaderboard-service"
	pollengine "quorum/contexts/poll-core/poll-engine"
	"quorum/contexts/poll-core/poll-engine/adapters/memory"
	"quorum/contexts/poll-core/poll-engine/domain/entities"
	"quorum/contexts/poll-core/poll-engine/ports"
	httptransport "quorum/contexts/poll-core/poll-engine/transport/http"
)

// flakyScorekeeper fails a configured number of calls before delegating,
// simulating a standings store that comes back after a transient outage.
type flakyScorekeeper struct {
	inner    ports.Scorekeeper
	failures int
}

func (s *flakyScorekeeper) ApplyScoring(
	ctx context.Context,
	guildID string,
	pollType string,
	pollID string,
	results []entities.ScoringResult,
) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("standings store unavailable")
	}
	return s.inner.ApplyScoring(ctx, guildID, pollType, pollID, results)
}

type flakyOutbox struct {
	store    *memory.Store
	failures int
}

func (o *flakyOutbox) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	if o.failures > 0 {
		o.failures--
		return errors.New("outbox store unavailable")
	}
	return o.store.AppendOutbox(ctx, envelope)
}

func TestRevealRetryRecoversFromScoringFailure(t *testing.T) {
	leaderboards := leaderboardservice.NewInMemoryModule(nil)
	flaky := &flakyScorekeeper{
		inner:    leaderboardScorekeeper{scores: leaderboards.Scores},
		failures: 1,
	}
	polls := pollengine.NewInMemoryModule(nil, flaky, &capturingPublisher{}, nil)
	polls.Store.SetTenant(ports.TenantProjection{GuildID: "guild-1", PollType: "trivia"})
	ctx := context.Background()

	poll, err := polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if _, err := polls.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-1", httptransport.SubmitVoteRequest{
		ChosenOrdinals: []int{0},
	}); err != nil {
		t.Fatalf("submit vote failed: %v", err)
	}
	if _, err := polls.Polls.ClosePoll(ctx, poll.PollID); err != nil {
		t.Fatalf("close poll failed: %v", err)
	}

	if _, err := polls.Polls.RevealPoll(ctx, poll.PollID, []string{"Red"}); err == nil {
		t.Fatalf("reveal must fail while the standings store is down")
	}

	result, err := polls.Polls.RevealPoll(ctx, poll.PollID, []string{"Red"})
	if err != nil {
		t.Fatalf("reveal retry failed: %v", err)
	}
	if !result.Scored {
		t.Fatalf("retry must perform the scoring pass")
	}
	if len(result.Results) != 1 {
		t.Fatalf("expected 1 scoring result, got %d", len(result.Results))
	}

	standing, err := leaderboards.Handler.StandingHandler(ctx, "guild-1", "trivia", "user-1")
	if err != nil {
		t.Fatalf("standing failed: %v", err)
	}
	if standing.Entry.Points != 1 || standing.Entry.PollsParticipated != 1 {
		t.Fatalf("scoring must apply exactly once after the retry: %+v", standing.Entry)
	}
}

func TestCloseRetryEmitsMissedEvent(t *testing.T) {
	store := memory.NewStore(nil)
	leaderboards := leaderboardservice.NewInMemoryModule(nil)
	outbox := &flakyOutbox{store: store}
	module := pollengine.NewModule(pollengine.Dependencies{
		Polls:      store,
		Ledger:     store,
		Tenants:    store,
		Scores:     leaderboardScorekeeper{scores: leaderboards.Scores},
		Outbox:     outbox,
		OutboxRepo: store,
		Publisher:  &capturingPublisher{},
		Clock:      store,
		IDGen:      store,
	})
	store.SetTenant(ports.TenantProjection{GuildID: "guild-1", PollType: "trivia"})
	ctx := context.Background()

	poll, err := module.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if _, err := module.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-1", httptransport.SubmitVoteRequest{
		ChosenOrdinals: []int{0},
	}); err != nil {
		t.Fatalf("submit vote failed: %v", err)
	}

	outbox.failures = 1
	if _, err := module.Polls.ClosePoll(ctx, poll.PollID); err == nil {
		t.Fatalf("close must fail while the outbox store is down")
	}
	state, err := module.Handler.GetPollHandler(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("get poll failed: %v", err)
	}
	if state.State != "closed" {
		t.Fatalf("failed close must still have committed the transition, got %s", state.State)
	}

	result, err := module.Polls.ClosePoll(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("close retry failed: %v", err)
	}
	if !result.AlreadyClosed {
		t.Fatalf("close retry must report already closed")
	}
	if result.Tally[0] != 1 || result.Voters != 1 {
		t.Fatalf("close retry must carry the tally: %v voters=%d", result.Tally, result.Voters)
	}

	pending, err := store.ListPendingOutbox(ctx, 0)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	closedEvents := 0
	for _, message := range pending {
		if message.EventType == "poll.closed" {
			closedEvents++
		}
	}
	if closedEvents != 1 {
		t.Fatalf("expected exactly one poll.closed event after the retry, got %d", closedEvents)
	}
}
