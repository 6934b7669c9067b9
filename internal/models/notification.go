package models

import "time"

type EventType string

const (
	EventProposalCreated     EventType = "proposal.created"
	EventDeadlineApproaching EventType = "proposal.deadline_approaching"
	EventProposalApproved    EventType = "proposal.approved"
	EventProposalRejected    EventType = "proposal.rejected"
	EventProposalExpired     EventType = "proposal.expired"
	EventProposalExecuted    EventType = "proposal.executed"
)

// Notification is addressed to a group; Recipients narrows it to specific
// members, an empty list means every member.
type Notification struct {
	Event      EventType         `json:"event"`
	GroupID    string            `json:"group_id"`
	Recipients []string          `json:"recipients,omitempty"`
	ProposalID string            `json:"proposal_id,omitempty"`
	Payload    map[string]string `json:"payload,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
