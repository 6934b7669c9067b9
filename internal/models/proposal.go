package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"
	StatusApproved ProposalStatus = "approved"
	StatusRejected ProposalStatus = "rejected"
	StatusExpired  ProposalStatus = "expired"
	StatusExecuted ProposalStatus = "executed"
)

func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired, StatusExecuted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s ProposalStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusExecuted:
		return true
	}
	return false
}

type Category string

const (
	CategoryLoan       Category = "loan"
	CategoryInvestment Category = "investment"
	CategoryCharity    Category = "charity"
	CategoryEvent      Category = "event"
	CategoryEmergency  Category = "emergency"
	CategoryOther      Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryLoan, CategoryInvestment, CategoryCharity, CategoryEvent, CategoryEmergency, CategoryOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Decision string

const (
	DecisionFor     Decision = "for"
	DecisionAgainst Decision = "against"
	DecisionAbstain Decision = "abstain"
)

// ParseDecision accepts exactly "for", "against" or "abstain".
func ParseDecision(s string) (Decision, bool) {
	switch d := Decision(s); d {
	case DecisionFor, DecisionAgainst, DecisionAbstain:
		return d, true
	}
	return "", false
}

type Recipient struct {
	Name    string `json:"name"`
	Details string `json:"details,omitempty"`
}

type Vote struct {
	UserID   string    `json:"user_id"`
	Decision Decision  `json:"decision"`
	Comment  string    `json:"comment,omitempty"`
	CastAt   time.Time `json:"cast_at"`
}

// TallyResult is derived from a proposal's votes; it is never the source of truth.
type TallyResult struct {
	VotesFor          int     `json:"votes_for"`
	VotesAgainst      int     `json:"votes_against"`
	VotesAbstain      int     `json:"votes_abstain"`
	TotalVotes        int     `json:"total_votes"`
	EligibleMembers   int     `json:"eligible_members"`
	ParticipationRate float64 `json:"participation_rate"`
	QuorumPercent     float64 `json:"quorum_percent"`
	Passed            bool    `json:"passed"`
}

type Proposal struct {
	ID             string          `json:"id"`
	GroupID        string          `json:"group_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	Category       Category        `json:"category"`
	Priority       Priority        `json:"priority"`
	Recipient      *Recipient      `json:"recipient,omitempty"`
	ProposedBy     string          `json:"proposed_by"`
	VotingDeadline time.Time       `json:"voting_deadline"`
	Status         ProposalStatus  `json:"status"`
	Votes          []Vote          `json:"votes"`
	Result         *TallyResult    `json:"result,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	FinalizedAt    *time.Time      `json:"finalized_at,omitempty"`
	ExecutedAt     *time.Time      `json:"executed_at,omitempty"`
	ExecutedBy     string          `json:"executed_by,omitempty"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	ReminderSent   bool            `json:"reminder_sent,omitempty"`
}

// HasVoted reports whether userID already has a vote on p.
func (p *Proposal) HasVoted(userID string) bool {
	for _, v := range p.Votes {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores can hand out snapshots safely.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	c := *p
	c.Votes = append([]Vote(nil), p.Votes...)
	if p.Recipient != nil {
		r := *p.Recipient
		c.Recipient = &r
	}
	if p.Result != nil {
		r := *p.Result
		c.Result = &r
	}
	if p.FinalizedAt != nil {
		t := *p.FinalizedAt
		c.FinalizedAt = &t
	}
	if p.ExecutedAt != nil {
		t := *p.ExecutedAt
		c.ExecutedAt = &t
	}
	return &c
}
