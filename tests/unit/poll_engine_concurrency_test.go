package unit

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"quorum/contexts/poll-core/poll-engine/application/commands"
	httptransport "quorum/contexts/poll-core/poll-engine/transport/http"
)

func TestConcurrentVotersEachGetOneBallot(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	const voters = 32
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, err := fixture.polls.Polls.SubmitVote(ctx, commands.SubmitVoteCommand{
				PollID:         poll.PollID,
				VoterID:        fmt.Sprintf("user-%d", index),
				ChosenOrdinals: []int{index % 3},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent vote failed: %v", err)
		}
	}

	tally, err := fixture.polls.Handler.TallyHandler(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if tally.VoterCount != voters {
		t.Fatalf("expected %d voters, got %d", voters, tally.VoterCount)
	}
	total := 0
	for _, count := range tally.Counts {
		total += count.Votes
	}
	if total != voters {
		t.Fatalf("expected %d counted ballots, got %d", voters, total)
	}
}

func TestConcurrentCloseHasOneWinner(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if _, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-1", httptransport.SubmitVoteRequest{
		ChosenOrdinals: []int{0},
	}); err != nil {
		t.Fatalf("submit vote failed: %v", err)
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan commands.ClosePollResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := fixture.polls.Polls.ClosePoll(ctx, poll.PollID)
			if err != nil {
				t.Errorf("concurrent close failed: %v", err)
				return
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for result := range results {
		if !result.AlreadyClosed {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one close winner, got %d", winners)
	}

	closedEvents := 0
	pending, err := fixture.polls.Store.ListPendingOutbox(ctx, 0)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	for _, message := range pending {
		if message.EventType == "poll.closed" {
			closedEvents++
		}
	}
	if closedEvents != 1 {
		t.Fatalf("expected one poll.closed event, got %d", closedEvents)
	}
}

func TestConcurrentRevealScoresExactlyOnce(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	for voter, ordinal := range map[string]int{"user-1": 0, "user-2": 1} {
		if _, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, voter, httptransport.SubmitVoteRequest{
			ChosenOrdinals: []int{ordinal},
		}); err != nil {
			t.Fatalf("submit vote failed: %v", err)
		}
	}
	if _, err := fixture.polls.Handler.ClosePollHandler(ctx, poll.PollID); err != nil {
		t.Fatalf("close poll failed: %v", err)
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan commands.RevealPollResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := fixture.polls.Polls.RevealPoll(ctx, poll.PollID, []string{"Red"})
			if err != nil {
				t.Errorf("concurrent reveal failed: %v", err)
				return
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)

	scoringPasses := 0
	for result := range results {
		if result.Scored {
			scoringPasses++
		}
	}
	if scoringPasses != 1 {
		t.Fatalf("expected exactly one scoring pass, got %d", scoringPasses)
	}

	standing, err := fixture.leaderboards.Handler.StandingHandler(ctx, "guild-1", "trivia", "user-1")
	if err != nil {
		t.Fatalf("standing failed: %v", err)
	}
	if standing.Entry.Points != 1 || standing.Entry.PollsParticipated != 1 {
		t.Fatalf("concurrent reveal double-scored: %+v", standing.Entry)
	}
}
