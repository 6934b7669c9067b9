package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/shopspring/decimal"
)

type proposalRow struct {
	ID               string          `gorm:"primaryKey;size:36"`
	GroupID          string          `gorm:"size:36;not null;index:idx_proposals_group_created,priority:1"`
	Title            string          `gorm:"size:200;not null"`
	Description      string          `gorm:"type:text;not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Currency         string          `gorm:"size:8"`
	Category         string          `gorm:"size:16;not null"`
	Priority         string          `gorm:"size:16;not null"`
	RecipientName    string          `gorm:"size:200"`
	RecipientDetails string          `gorm:"size:500"`
	ProposedBy       string          `gorm:"size:36;not null"`
	VotingDeadline   time.Time       `gorm:"not null"`
	Status           string          `gorm:"size:16;not null;index"`
	Result           string          `gorm:"type:text"`
	CreatedAt        time.Time       `gorm:"autoCreateTime:false;index:idx_proposals_group_created,priority:2"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime:false"`
	FinalizedAt      *time.Time
	ExecutedAt       *time.Time
	ExecutedBy       string `gorm:"size:36"`
	TransactionID    string `gorm:"size:36"`
	ReminderSent     bool   `gorm:"not null;default:false"`
	// Version is bumped on every update and guards the write with a compare-and-set.
	Version int64 `gorm:"not null;default:0"`
}

func (proposalRow) TableName() string { return "proposals" }

// voteRow carries the one-vote-per-member rule as a unique index.
type voteRow struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ProposalID string    `gorm:"size:36;not null;uniqueIndex:idx_votes_proposal_user,priority:1"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_votes_proposal_user,priority:2"`
	Decision   string    `gorm:"size:8;not null"`
	Comment    string    `gorm:"type:text"`
	CastAt     time.Time `gorm:"not null"`
}

func (voteRow) TableName() string { return "votes" }

type groupRow struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Name          string    `gorm:"size:200;not null"`
	Currency      string    `gorm:"size:8;not null"`
	CreatedBy     string    `gorm:"size:36;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	QuorumPercent *float64
}

func (groupRow) TableName() string { return "savings_groups" }

type memberRow struct {
	GroupID  string    `gorm:"primaryKey;size:36"`
	UserID   string    `gorm:"primaryKey;size:36"`
	Role     string    `gorm:"size:16;not null"`
	JoinedAt time.Time `gorm:"not null"`
}

func (memberRow) TableName() string { return "group_members" }

type transactionRow struct {
	ID               string          `gorm:"primaryKey;size:36"`
	GroupID          string          `gorm:"size:36;not null;index"`
	Type             string          `gorm:"size:16;not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Description      string          `gorm:"size:500"`
	RecipientName    string          `gorm:"size:200"`
	RecipientDetails string          `gorm:"size:500"`
	// ProposalID is NULL for contributions; a proposal can produce at most one transaction.
	ProposalID *string   `gorm:"size:36;uniqueIndex"`
	Category   string    `gorm:"size:16"`
	CreatedBy  string    `gorm:"size:36"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false;index"`
}

func (transactionRow) TableName() string { return "transactions" }

type userRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:100;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
}

func (userRow) TableName() string { return "users" }

func toProposalRow(p *models.Proposal) (proposalRow, error) {
	r := proposalRow{
		ID:             p.ID,
		GroupID:        p.GroupID,
		Title:          p.Title,
		Description:    p.Description,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Category:       string(p.Category),
		Priority:       string(p.Priority),
		ProposedBy:     p.ProposedBy,
		VotingDeadline: p.VotingDeadline.UTC(),
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt.UTC(),
		UpdatedAt:      p.UpdatedAt.UTC(),
		FinalizedAt:    utcPtr(p.FinalizedAt),
		ExecutedAt:     utcPtr(p.ExecutedAt),
		ExecutedBy:     p.ExecutedBy,
		TransactionID:  p.TransactionID,
		ReminderSent:   p.ReminderSent,
	}
	if p.Recipient != nil {
		r.RecipientName, r.RecipientDetails = p.Recipient.Name, p.Recipient.Details
	}
	if p.Result != nil {
		b, err := json.Marshal(p.Result)
		if err != nil {
			return r, err
		}
		r.Result = string(b)
	}
	return r, nil
}

func (r proposalRow) model(votes []voteRow) (*models.Proposal, error) {
	p := &models.Proposal{
		ID:             r.ID,
		GroupID:        r.GroupID,
		Title:          r.Title,
		Description:    r.Description,
		Amount:         r.Amount,
		Currency:       r.Currency,
		Category:       models.Category(r.Category),
		Priority:       models.Priority(r.Priority),
		ProposedBy:     r.ProposedBy,
		VotingDeadline: r.VotingDeadline.UTC(),
		Status:         models.ProposalStatus(r.Status),
		Votes:          make([]models.Vote, 0, len(votes)),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		FinalizedAt:    utcPtr(r.FinalizedAt),
		ExecutedAt:     utcPtr(r.ExecutedAt),
		ExecutedBy:     r.ExecutedBy,
		TransactionID:  r.TransactionID,
		ReminderSent:   r.ReminderSent,
	}
	if r.RecipientName != "" || r.RecipientDetails != "" {
		p.Recipient = &models.Recipient{Name: r.RecipientName, Details: r.RecipientDetails}
	}
	if r.Result != "" {
		p.Result = &models.TallyResult{}
		if err := json.Unmarshal([]byte(r.Result), p.Result); err != nil {
			return nil, fmt.Errorf("proposal %s result: %w", r.ID, err)
		}
	}
	for _, v := range votes {
		p.Votes = append(p.Votes, models.Vote{
			UserID:   v.UserID,
			Decision: models.Decision(v.Decision),
			Comment:  v.Comment,
			CastAt:   v.CastAt.UTC(),
		})
	}
	return p, nil
}

func toVoteRow(proposalID string, v models.Vote) voteRow {
	return voteRow{ProposalID: proposalID, UserID: v.UserID, Decision: string(v.Decision), Comment: v.Comment, CastAt: v.CastAt.UTC()}
}

func toTransactionRow(tx *models.Transaction) transactionRow {
	r := transactionRow{
		ID:          tx.ID,
		GroupID:     tx.GroupID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    string(tx.Category),
		CreatedBy:   tx.CreatedBy,
		CreatedAt:   tx.CreatedAt.UTC(),
	}
	if tx.ProposalID != "" {
		id := tx.ProposalID
		r.ProposalID = &id
	}
	if tx.Recipient != nil {
		r.RecipientName, r.RecipientDetails = tx.Recipient.Name, tx.Recipient.Details
	}
	return r
}

func (r transactionRow) model() *models.Transaction {
	tx := &models.Transaction{
		ID:          r.ID,
		GroupID:     r.GroupID,
		Type:        models.TransactionType(r.Type),
		Amount:      r.Amount,
		Description: r.Description,
		Category:    models.Category(r.Category),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.ProposalID != nil {
		tx.ProposalID = *r.ProposalID
	}
	if r.RecipientName != "" || r.RecipientDetails != "" {
		tx.Recipient = &models.Recipient{Name: r.RecipientName, Details: r.RecipientDetails}
	}
	return tx
}

func (r groupRow) model() *models.Group {
	return &models.Group{
		ID:            r.ID,
		Name:          r.Name,
		Currency:      r.Currency,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt.UTC(),
		QuorumPercent: r.QuorumPercent,
	}
}

func (r memberRow) model() models.Member {
	return models.Member{GroupID: r.GroupID, UserID: r.UserID, Role: models.Role(r.Role), JoinedAt: r.JoinedAt.UTC()}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
