package unit

import (
	"context"
	"testing"
	"time"

	"quorum/contexts/poll-core/poll-engine/domain/entities"
)

func overduePoll(pollID string) entities.PollInstance {
	created := time.Now().UTC().Add(-2 * time.Hour)
	return entities.PollInstance{
		PollID:    pollID,
		GuildID:   "guild-1",
		PollType:  "trivia",
		CreatorID: "admin-1",
		Question:  "Which color is on the flag?",
		Options: []entities.Option{
			{Ordinal: 0, Label: "Red"},
			{Ordinal: 1, Label: "Blue"},
		},
		MaxSelections:        1,
		ShowVotesWhileActive: true,
		State:                entities.PollStateActive,
		CreatedAt:            created,
		Deadline:             time.Now().UTC().Add(-time.Minute),
		UpdatedAt:            created,
	}
}

func TestDeadlineSweeperClosesOverduePolls(t *testing.T) {
	fixture := newPollFixture([]entities.PollInstance{overduePoll("poll-overdue")})
	ctx := context.Background()

	if err := fixture.polls.Sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	poll, err := fixture.polls.Handler.GetPollHandler(ctx, "poll-overdue")
	if err != nil {
		t.Fatalf("get poll failed: %v", err)
	}
	if poll.State != "closed" {
		t.Fatalf("expected closed after sweep, got %s", poll.State)
	}

	// The second tick finds nothing overdue and emits nothing new.
	if err := fixture.polls.Sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	pending, err := fixture.polls.Store.ListPendingOutbox(ctx, 0)
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
		t.Fatalf("expected one poll.closed event, got %d", closedEvents)
	}
}

func TestOutboxRelayPublishesPendingOnce(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	if _, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest()); err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	if err := fixture.polls.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	topics := fixture.publisher.published()
	if len(topics) != 1 || topics[0] != "poll.created" {
		t.Fatalf("expected one poll.created publish, got %v", topics)
	}

	if err := fixture.polls.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay failed: %v", err)
	}
	if len(fixture.publisher.published()) != 1 {
		t.Fatalf("relay republished already-published messages")
	}

	pending, err := fixture.polls.Store.ListPendingOutbox(ctx, 0)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after relay, got %d pending", len(pending))
	}
}
