package proposals

import (
	"time"

	"github.com/saxenaaman628/badenya/internal/models"
)

var transitions = map[models.ProposalStatus][]models.ProposalStatus{
	models.StatusPending:  {models.StatusApproved, models.StatusRejected, models.StatusExpired},
	models.StatusApproved: {models.StatusExecuted},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to models.ProposalStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// transition moves p to the target status and stamps the matching timestamps.
func transition(p *models.Proposal, to models.ProposalStatus, now time.Time) error {
	if !CanTransition(p.Status, to) {
		return newError(KindInvalidTransition, "cannot move proposal from %s to %s", p.Status, to)
	}
	if p.Status == models.StatusPending {
		t := now
		p.FinalizedAt = &t
	}
	if to == models.StatusExecuted {
		t := now
		p.ExecutedAt = &t
	}
	p.Status = to
	p.UpdatedAt = now
	return nil
}

// nextStatus decides whether a pending proposal should leave pending given
// its current tally. Voting closes once every current member in roster has
// voted or the deadline has passed; zero votes at the deadline means expired.
// Votes from members who have since left count in the tally but never stand
// in for a current member's vote.
func nextStatus(p *models.Proposal, r models.TallyResult, roster []string, now time.Time) (models.ProposalStatus, bool) {
	if p.Status != models.StatusPending {
		return p.Status, false
	}
	deadlinePassed := !now.Before(p.VotingDeadline)
	allVoted := rosterVoted(p, roster)

	switch {
	case deadlinePassed && r.TotalVotes == 0:
		return models.StatusExpired, true
	case deadlinePassed || allVoted:
		if r.Passed {
			return models.StatusApproved, true
		}
		return models.StatusRejected, true
	}
	return models.StatusPending, false
}

func rosterVoted(p *models.Proposal, roster []string) bool {
	if len(roster) == 0 {
		return false
	}
	for _, id := range roster {
		if !p.HasVoted(id) {
			return false
		}
	}
	return true
}

func eventFor(s models.ProposalStatus) models.EventType {
	switch s {
	case models.StatusApproved:
		return models.EventProposalApproved
	case models.StatusRejected:
		return models.EventProposalRejected
	case models.StatusExpired:
		return models.EventProposalExpired
	case models.StatusExecuted:
		return models.EventProposalExecuted
	}
	return ""
}
