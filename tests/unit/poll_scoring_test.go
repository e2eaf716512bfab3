package unit

import (
	"context"
	"testing"

	"quorum/contexts/poll-core/poll-engine/domain/entities"
	"quorum/contexts/poll-core/poll-engine/ports"
	httptransport "quorum/contexts/poll-core/poll-engine/transport/http"
)

func TestAnyOverlapScoringGivesPartialCredit(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	req := createPollRequest()
	req.MaxSelections = 2
	req.CorrectAnswers = []string{"Red", "Blue"}
	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", req)
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	for voter, ordinals := range map[string][]int{
		"user-full":    {0, 1},
		"user-partial": {1, 2},
		"user-miss":    {2},
	} {
		if _, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, voter, httptransport.SubmitVoteRequest{
			ChosenOrdinals: ordinals,
		}); err != nil {
			t.Fatalf("vote for %s failed: %v", voter, err)
		}
	}
	if _, err := fixture.polls.Handler.ClosePollHandler(ctx, poll.PollID); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := fixture.polls.Handler.RevealPollHandler(ctx, poll.PollID, httptransport.RevealPollRequest{}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}

	board, err := fixture.leaderboards.Handler.LeaderboardHandler(ctx, "guild-1", "trivia", 10, 0)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	points := map[string]int{}
	correct := map[string]int{}
	for _, item := range board.Items {
		points[item.VoterID] = item.Points
		correct[item.VoterID] = item.CorrectCount
	}
	if points["user-full"] != 2 || points["user-partial"] != 1 || points["user-miss"] != 0 {
		t.Fatalf("unexpected points: %v", points)
	}
	if correct["user-full"] != 1 || correct["user-partial"] != 1 || correct["user-miss"] != 0 {
		t.Fatalf("unexpected correct counts: %v", correct)
	}
}

func TestExactMatchScoringRejectsPartialBallots(t *testing.T) {
	fixture := newPollFixture(nil)
	fixture.polls.Store.SetTenant(ports.TenantProjection{
		GuildID:       "guild-2",
		PollType:      "trivia",
		ScoringPolicy: entities.ScoringPolicyExactMatch,
	})
	ctx := context.Background()

	req := createPollRequest()
	req.GuildID = "guild-2"
	req.MaxSelections = 2
	req.CorrectAnswers = []string{"Red", "Blue"}
	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", req)
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	for voter, ordinals := range map[string][]int{
		"user-exact":   {0, 1},
		"user-partial": {0},
	} {
		if _, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, voter, httptransport.SubmitVoteRequest{
			ChosenOrdinals: ordinals,
		}); err != nil {
			t.Fatalf("vote for %s failed: %v", voter, err)
		}
	}
	if _, err := fixture.polls.Handler.ClosePollHandler(ctx, poll.PollID); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := fixture.polls.Handler.RevealPollHandler(ctx, poll.PollID, httptransport.RevealPollRequest{}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}

	board, err := fixture.leaderboards.Handler.LeaderboardHandler(ctx, "guild-2", "trivia", 10, 0)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	points := map[string]int{}
	for _, item := range board.Items {
		points[item.VoterID] = item.Points
	}
	if points["user-exact"] != 2 {
		t.Fatalf("exact ballot should score 2, got %d", points["user-exact"])
	}
	if points["user-partial"] != 0 {
		t.Fatalf("partial ballot should score 0 under exact match, got %d", points["user-partial"])
	}
}
