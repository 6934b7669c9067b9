package proposals

import "github.com/saxenaaman628/badenya/internal/models"

// Tally counts votes and applies the pass rule: more for than against, and
// participation at or above quorumPercent.
func Tally(votes []models.Vote, eligibleMembers int, quorumPercent float64) models.TallyResult {
	r := models.TallyResult{
		EligibleMembers: eligibleMembers,
		QuorumPercent:   quorumPercent,
	}
	for _, v := range votes {
		switch v.Decision {
		case models.DecisionFor:
			r.VotesFor++
		case models.DecisionAgainst:
			r.VotesAgainst++
		case models.DecisionAbstain:
			r.VotesAbstain++
		}
	}
	r.TotalVotes = r.VotesFor + r.VotesAgainst + r.VotesAbstain
	if eligibleMembers > 0 {
		r.ParticipationRate = float64(r.TotalVotes) / float64(eligibleMembers) * 100
	}
	r.Passed = r.VotesFor > r.VotesAgainst && r.ParticipationRate >= quorumPercent
	return r
}
