package scoring

import (
	"sort"

	"quorum/contexts/poll-core/poll-engine/domain/entities"
)

// Score computes point awards for every ballot of a poll against its answer
// key. The vote set must be the frozen ledger as of the closed transition;
// Score itself is a pure function and holds no exactly-once responsibility.
//
// Points are the number of chosen options present in the answer key. Whether a
// ballot counts as correct depends on the poll shape and tenant policy:
// single-answer polls always require an exact-set match, multi-select polls
// follow the supplied policy.
func Score(poll entities.PollInstance, votes []entities.VoteRecord, policy entities.ScoringPolicy) []entities.ScoringResult {
	correct := make(map[int]struct{}, len(poll.CorrectOptions))
	for _, ordinal := range poll.CorrectOptions {
		correct[ordinal] = struct{}{}
	}

	exact := policy == entities.ScoringPolicyExactMatch || poll.MaxSelections == 1

	results := make([]entities.ScoringResult, 0, len(votes))
	for _, vote := range votes {
		overlap := 0
		for _, ordinal := range vote.ChosenOrdinals {
			if _, ok := correct[ordinal]; ok {
				overlap++
			}
		}

		wasCorrect := overlap > 0
		if exact {
			wasCorrect = overlap == len(correct) && len(vote.ChosenOrdinals) == len(correct)
		}

		points := overlap
		if exact && !wasCorrect {
			points = 0
		}
		results = append(results, entities.ScoringResult{
			VoterID:       vote.VoterID,
			PointsAwarded: points,
			WasCorrect:    wasCorrect,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].VoterID < results[j].VoterID
	})
	return results
}
