package models

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleTreasurer Role = "treasurer"
	RoleMember    Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTreasurer, RoleMember:
		return true
	}
	return false
}

// CanExecute reports whether the role may turn approved proposals into ledger transactions.
func (r Role) CanExecute() bool {
	return r == RoleAdmin || r == RoleTreasurer
}

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	// QuorumPercent overrides the service-wide quorum when set.
	QuorumPercent *float64 `json:"quorum_percent,omitempty"`
}

type Member struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
