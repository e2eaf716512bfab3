package unit

import (
	"context"
	"errors"
	"strings"
	"testing"

	pollerrors "quorum/contexts/poll-core/poll-engine/domain/errors"
	httptransport "quorum/contexts/poll-core/poll-engine/transport/http"
)

func createPollRequest() httptransport.CreatePollRequest {
	return httptransport.CreatePollRequest{
		GuildID:              "guild-1",
		PollType:             "trivia",
		Question:             "Which color is on the flag?",
		Options:              []string{"Red", "Blue", "Green"},
		MaxSelections:        1,
		ShowVotesWhileActive: true,
		DurationSeconds:      3600,
	}
}

func TestPollLifecycleCreateVoteCloseReveal(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if poll.State != "active" {
		t.Fatalf("expected active poll, got %s", poll.State)
	}

	votes := map[string]int{"user-1": 0, "user-2": 1, "user-3": 0}
	for voter, ordinal := range votes {
		if _, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, voter, httptransport.SubmitVoteRequest{
			ChosenOrdinals: []int{ordinal},
		}); err != nil {
			t.Fatalf("submit vote for %s failed: %v", voter, err)
		}
	}

	closed, err := fixture.polls.Handler.ClosePollHandler(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("close poll failed: %v", err)
	}
	if closed.AlreadyClosed {
		t.Fatalf("first close must not report already closed")
	}
	if closed.Poll.State != "closed" {
		t.Fatalf("expected closed state, got %s", closed.Poll.State)
	}
	tallied := map[string]int{}
	for _, count := range closed.Tally {
		tallied[count.Label] = count.Votes
	}
	if tallied["Red"] != 2 || tallied["Blue"] != 1 || tallied["Green"] != 0 {
		t.Fatalf("unexpected close tally: %v", tallied)
	}
	if closed.VoterCount != 3 {
		t.Fatalf("expected 3 voters in close response, got %d", closed.VoterCount)
	}

	_, err = fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-4", httptransport.SubmitVoteRequest{
		ChosenOrdinals: []int{2},
	})
	if !errors.Is(err, pollerrors.ErrPollNotActive) {
		t.Fatalf("expected ErrPollNotActive after close, got %v", err)
	}
	if !strings.Contains(err.Error(), "closed") {
		t.Fatalf("rejection should name the poll state, got %q", err.Error())
	}

	revealed, err := fixture.polls.Handler.RevealPollHandler(ctx, poll.PollID, httptransport.RevealPollRequest{
		CorrectAnswers: []string{"Red"},
	})
	if err != nil {
		t.Fatalf("reveal poll failed: %v", err)
	}
	if revealed.AlreadyRevealed {
		t.Fatalf("first reveal must not report already revealed")
	}
	if len(revealed.Poll.CorrectOptions) != 1 || revealed.Poll.CorrectOptions[0] != 0 {
		t.Fatalf("expected answer key [0], got %v", revealed.Poll.CorrectOptions)
	}
	awarded := map[string]bool{}
	for _, result := range revealed.Results {
		awarded[result.VoterID] = result.WasCorrect
	}
	if len(awarded) != 3 || !awarded["user-1"] || awarded["user-2"] || !awarded["user-3"] {
		t.Fatalf("unexpected reveal results: %+v", revealed.Results)
	}

	board, err := fixture.leaderboards.Handler.LeaderboardHandler(ctx, "guild-1", "trivia", 10, 0)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board.Items) != 3 {
		t.Fatalf("expected 3 leaderboard entries, got %d", len(board.Items))
	}
	points := map[string]int{}
	for _, item := range board.Items {
		points[item.VoterID] = item.Points
	}
	if points["user-1"] != 1 || points["user-3"] != 1 || points["user-2"] != 0 {
		t.Fatalf("unexpected points: %v", points)
	}

	archived, err := fixture.polls.Handler.ArchivePollHandler(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("archive poll failed: %v", err)
	}
	if archived.State != "archived" {
		t.Fatalf("expected archived state, got %s", archived.State)
	}
}

func TestPollCloseAndRevealAreIdempotent(t *testing.T) {
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

	if _, err := fixture.polls.Handler.ClosePollHandler(ctx, poll.PollID); err != nil {
		t.Fatalf("close poll failed: %v", err)
	}
	repeat, err := fixture.polls.Handler.ClosePollHandler(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("repeated close failed: %v", err)
	}
	if !repeat.AlreadyClosed {
		t.Fatalf("repeated close must report already closed")
	}

	if _, err := fixture.polls.Handler.RevealPollHandler(ctx, poll.PollID, httptransport.RevealPollRequest{
		CorrectAnswers: []string{"Red"},
	}); err != nil {
		t.Fatalf("reveal poll failed: %v", err)
	}
	again, err := fixture.polls.Handler.RevealPollHandler(ctx, poll.PollID, httptransport.RevealPollRequest{
		CorrectAnswers: []string{"Red"},
	})
	if err != nil {
		t.Fatalf("repeated reveal failed: %v", err)
	}
	if !again.AlreadyRevealed {
		t.Fatalf("repeated reveal must report already revealed")
	}

	standing, err := fixture.leaderboards.Handler.StandingHandler(ctx, "guild-1", "trivia", "user-1")
	if err != nil {
		t.Fatalf("standing failed: %v", err)
	}
	if standing.Entry.Points != 1 || standing.Entry.PollsParticipated != 1 {
		t.Fatalf("repeated reveal must not double-score: %+v", standing.Entry)
	}
}

func TestVoteResubmissionLastWins(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	first, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-1", httptransport.SubmitVoteRequest{
		ChosenOrdinals: []int{0},
	})
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if first.Replaced {
		t.Fatalf("first vote must not report replaced")
	}
	second, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-1", httptransport.SubmitVoteRequest{
		ChosenOrdinals: []int{1},
	})
	if err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}
	if !second.Replaced {
		t.Fatalf("resubmission must report replaced")
	}

	tally, err := fixture.polls.Handler.TallyHandler(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if tally.VoterCount != 1 {
		t.Fatalf("expected one voter, got %d", tally.VoterCount)
	}
	counts := map[string]int{}
	for _, count := range tally.Counts {
		counts[count.Label] = count.Votes
	}
	if counts["Red"] != 0 || counts["Blue"] != 1 {
		t.Fatalf("expected Blue=1 Red=0, got %v", counts)
	}

	ballot, err := fixture.polls.Handler.BallotHandler(ctx, poll.PollID, "user-1")
	if err != nil {
		t.Fatalf("ballot failed: %v", err)
	}
	if len(ballot.ChosenOrdinals) != 1 || ballot.ChosenOrdinals[0] != 1 {
		t.Fatalf("expected ballot [1], got %v", ballot.ChosenOrdinals)
	}
}

func TestOneActivePollPerTenant(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if _, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest()); !errors.Is(err, pollerrors.ErrConflictingActivePoll) {
		t.Fatalf("expected ErrConflictingActivePoll, got %v", err)
	}

	if _, err := fixture.polls.Handler.CancelPollHandler(ctx, poll.PollID); err != nil {
		t.Fatalf("cancel poll failed: %v", err)
	}
	replacement, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create after cancel failed: %v", err)
	}
	if replacement.PollID == poll.PollID {
		t.Fatalf("replacement must be a new poll")
	}
}

func TestCreatePollValidation(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	cases := map[string]func(*httptransport.CreatePollRequest){
		"one option":          func(r *httptransport.CreatePollRequest) { r.Options = []string{"Red"} },
		"duplicate options":   func(r *httptransport.CreatePollRequest) { r.Options = []string{"Red", "red"} },
		"zero max selections": func(r *httptransport.CreatePollRequest) { r.MaxSelections = 0 },
		"oversized max":       func(r *httptransport.CreatePollRequest) { r.MaxSelections = 4 },
		"empty question":      func(r *httptransport.CreatePollRequest) { r.Question = "  " },
		"no duration":         func(r *httptransport.CreatePollRequest) { r.DurationSeconds = 0 },
	}
	for name, mutate := range cases {
		req := createPollRequest()
		mutate(&req)
		if _, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", req); !errors.Is(err, pollerrors.ErrInvalidPollInput) {
			t.Fatalf("%s: expected ErrInvalidPollInput, got %v", name, err)
		}
	}

	unknown := createPollRequest()
	unknown.GuildID = "guild-unknown"
	if _, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", unknown); !errors.Is(err, pollerrors.ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}
}

func TestVoteSelectionValidation(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	req := createPollRequest()
	req.MaxSelections = 2
	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", req)
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	bad := [][]int{
		{},
		{3},
		{-1},
		{0, 1, 2},
	}
	for _, ordinals := range bad {
		if _, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-1", httptransport.SubmitVoteRequest{
			ChosenOrdinals: ordinals,
		}); !errors.Is(err, pollerrors.ErrInvalidOptionSelection) {
			t.Fatalf("ordinals %v: expected ErrInvalidOptionSelection, got %v", ordinals, err)
		}
	}

	// Duplicate ordinals collapse rather than fail.
	vote, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-1", httptransport.SubmitVoteRequest{
		ChosenOrdinals: []int{1, 1},
	})
	if err != nil {
		t.Fatalf("deduped vote failed: %v", err)
	}
	if len(vote.ChosenOrdinals) != 1 || vote.ChosenOrdinals[0] != 1 {
		t.Fatalf("expected deduped ballot [1], got %v", vote.ChosenOrdinals)
	}
}

func TestTallyHiddenWhileActive(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	req := createPollRequest()
	req.ShowVotesWhileActive = false
	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", req)
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if _, err := fixture.polls.Handler.SubmitVoteHandler(ctx, poll.PollID, "user-1", httptransport.SubmitVoteRequest{
		ChosenOrdinals: []int{0},
	}); err != nil {
		t.Fatalf("submit vote failed: %v", err)
	}

	tally, err := fixture.polls.Handler.TallyHandler(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if !tally.Hidden || len(tally.Counts) != 0 {
		t.Fatalf("expected hidden tally while active, got %+v", tally)
	}

	if _, err := fixture.polls.Handler.ClosePollHandler(ctx, poll.PollID); err != nil {
		t.Fatalf("close poll failed: %v", err)
	}
	tally, err = fixture.polls.Handler.TallyHandler(ctx, poll.PollID)
	if err != nil {
		t.Fatalf("tally after close failed: %v", err)
	}
	if tally.Hidden || tally.VoterCount != 1 {
		t.Fatalf("expected visible tally after close, got %+v", tally)
	}
}

func TestRevealRequiresClosedPollAndAnswerKey(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	if _, err := fixture.polls.Handler.RevealPollHandler(ctx, poll.PollID, httptransport.RevealPollRequest{
		CorrectAnswers: []string{"Red"},
	}); !errors.Is(err, pollerrors.ErrPollNotClosed) {
		t.Fatalf("expected ErrPollNotClosed for active poll, got %v", err)
	}

	if _, err := fixture.polls.Handler.ClosePollHandler(ctx, poll.PollID); err != nil {
		t.Fatalf("close poll failed: %v", err)
	}
	if _, err := fixture.polls.Handler.RevealPollHandler(ctx, poll.PollID, httptransport.RevealPollRequest{}); !errors.Is(err, pollerrors.ErrNoAnswerKeyConfigured) {
		t.Fatalf("expected ErrNoAnswerKeyConfigured, got %v", err)
	}
	if _, err := fixture.polls.Handler.RevealPollHandler(ctx, poll.PollID, httptransport.RevealPollRequest{
		CorrectAnswers: []string{"Purple"},
	}); !errors.Is(err, pollerrors.ErrInvalidPollInput) {
		t.Fatalf("expected ErrInvalidPollInput for unknown label, got %v", err)
	}

	if _, err := fixture.polls.Handler.ArchivePollHandler(ctx, poll.PollID); !errors.Is(err, pollerrors.ErrPollNotRevealed) {
		t.Fatalf("expected ErrPollNotRevealed for archive of closed poll, got %v", err)
	}
}

func TestBallotNotFound(t *testing.T) {
	fixture := newPollFixture(nil)
	ctx := context.Background()

	poll, err := fixture.polls.Handler.CreatePollHandler(ctx, "admin-1", createPollRequest())
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if _, err := fixture.polls.Handler.BallotHandler(ctx, poll.PollID, "user-1"); !errors.Is(err, pollerrors.ErrBallotNotFound) {
		t.Fatalf("expected ErrBallotNotFound, got %v", err)
	}
	if _, err := fixture.polls.Handler.GetPollHandler(ctx, "missing-poll"); !errors.Is(err, pollerrors.ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound, got %v", err)
	}
}
