package redishandler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/shopspring/decimal"
)

// Hash fields come back from Redis as strings; records mirror them one to one
// and are converted to models afterwards.

type proposalRecord struct {
	ID               string `mapstructure:"id"`
	GroupID          string `mapstructure:"group_id"`
	Title            string `mapstructure:"title"`
	Description      string `mapstructure:"description"`
	Amount           string `mapstructure:"amount"`
	Currency         string `mapstructure:"currency"`
	Category         string `mapstructure:"category"`
	Priority         string `mapstructure:"priority"`
	RecipientName    string `mapstructure:"recipient_name"`
	RecipientDetails string `mapstructure:"recipient_details"`
	ProposedBy       string `mapstructure:"proposed_by"`
	VotingDeadline   string `mapstructure:"voting_deadline"`
	Status           string `mapstructure:"status"`
	Result           string `mapstructure:"result"`
	CreatedAt        string `mapstructure:"created_at"`
	UpdatedAt        string `mapstructure:"updated_at"`
	FinalizedAt      string `mapstructure:"finalized_at"`
	ExecutedAt       string `mapstructure:"executed_at"`
	ExecutedBy       string `mapstructure:"executed_by"`
	TransactionID    string `mapstructure:"transaction_id"`
	ReminderSent     string `mapstructure:"reminder_sent"`
}

func proposalFields(p *models.Proposal) (map[string]interface{}, error) {
	result := ""
	if p.Result != nil {
		b, err := json.Marshal(p.Result)
		if err != nil {
			return nil, err
		}
		result = string(b)
	}
	var rName, rDetails string
	if p.Recipient != nil {
		rName, rDetails = p.Recipient.Name, p.Recipient.Details
	}
	reminder := "0"
	if p.ReminderSent {
		reminder = "1"
	}
	return map[string]interface{}{
		"id":                p.ID,
		"group_id":          p.GroupID,
		"title":             p.Title,
		"description":       p.Description,
		"amount":            p.Amount.String(),
		"currency":          p.Currency,
		"category":          string(p.Category),
		"priority":          string(p.Priority),
		"recipient_name":    rName,
		"recipient_details": rDetails,
		"proposed_by":       p.ProposedBy,
		"voting_deadline":   formatTime(p.VotingDeadline),
		"status":            string(p.Status),
		"result":            result,
		"created_at":        formatTime(p.CreatedAt),
		"updated_at":        formatTime(p.UpdatedAt),
		"finalized_at":      formatOptTime(p.FinalizedAt),
		"executed_at":       formatOptTime(p.ExecutedAt),
		"executed_by":       p.ExecutedBy,
		"transaction_id":    p.TransactionID,
		"reminder_sent":     reminder,
	}, nil
}

func decodeProposal(data map[string]string) (*models.Proposal, error) {
	var rec proposalRecord
	if err := mapstructure.Decode(data, &rec); err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}
	p := &models.Proposal{
		ID:            rec.ID,
		GroupID:       rec.GroupID,
		Title:         rec.Title,
		Description:   rec.Description,
		Currency:      rec.Currency,
		Category:      models.Category(rec.Category),
		Priority:      models.Priority(rec.Priority),
		ProposedBy:    rec.ProposedBy,
		Status:        models.ProposalStatus(rec.Status),
		ExecutedBy:    rec.ExecutedBy,
		TransactionID: rec.TransactionID,
		ReminderSent:  rec.ReminderSent == "1",
		Votes:         []models.Vote{},
	}
	var err error
	if p.Amount, err = decimal.NewFromString(rec.Amount); err != nil {
		return nil, fmt.Errorf("proposal %s amount: %w", rec.ID, err)
	}
	if rec.RecipientName != "" || rec.RecipientDetails != "" {
		p.Recipient = &models.Recipient{Name: rec.RecipientName, Details: rec.RecipientDetails}
	}
	if rec.Result != "" {
		p.Result = &models.TallyResult{}
		if err := json.Unmarshal([]byte(rec.Result), p.Result); err != nil {
			return nil, fmt.Errorf("proposal %s result: %w", rec.ID, err)
		}
	}
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&p.VotingDeadline, rec.VotingDeadline},
		{&p.CreatedAt, rec.CreatedAt},
		{&p.UpdatedAt, rec.UpdatedAt},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, fmt.Errorf("proposal %s: %w", rec.ID, err)
		}
	}
	if p.FinalizedAt, err = parseOptTime(rec.FinalizedAt); err != nil {
		return nil, fmt.Errorf("proposal %s: %w", rec.ID, err)
	}
	if p.ExecutedAt, err = parseOptTime(rec.ExecutedAt); err != nil {
		return nil, fmt.Errorf("proposal %s: %w", rec.ID, err)
	}
	return p, nil
}

type groupRecord struct {
	ID            string `mapstructure:"id"`
	Name          string `mapstructure:"name"`
	Currency      string `mapstructure:"currency"`
	CreatedBy     string `mapstructure:"created_by"`
	CreatedAt     string `mapstructure:"created_at"`
	QuorumPercent string `mapstructure:"quorum_percent"`
}

func groupFields(g *models.Group) map[string]interface{} {
	f := map[string]interface{}{
		"id":         g.ID,
		"name":       g.Name,
		"currency":   g.Currency,
		"created_by": g.CreatedBy,
		"created_at": formatTime(g.CreatedAt),
	}
	if g.QuorumPercent != nil {
		f["quorum_percent"] = strconv.FormatFloat(*g.QuorumPercent, 'f', -1, 64)
	}
	return f
}

func decodeGroup(data map[string]string) (*models.Group, error) {
	var rec groupRecord
	if err := mapstructure.Decode(data, &rec); err != nil {
		return nil, fmt.Errorf("decode group: %w", err)
	}
	g := &models.Group{ID: rec.ID, Name: rec.Name, Currency: rec.Currency, CreatedBy: rec.CreatedBy}
	var err error
	if g.CreatedAt, err = parseTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("group %s: %w", rec.ID, err)
	}
	if rec.QuorumPercent != "" {
		q, err := strconv.ParseFloat(rec.QuorumPercent, 64)
		if err != nil {
			return nil, fmt.Errorf("group %s quorum: %w", rec.ID, err)
		}
		g.QuorumPercent = &q
	}
	return g, nil
}

type transactionRecord struct {
	ID               string `mapstructure:"id"`
	GroupID          string `mapstructure:"group_id"`
	Type             string `mapstructure:"type"`
	Amount           string `mapstructure:"amount"`
	Description      string `mapstructure:"description"`
	RecipientName    string `mapstructure:"recipient_name"`
	RecipientDetails string `mapstructure:"recipient_details"`
	ProposalID       string `mapstructure:"proposal_id"`
	Category         string `mapstructure:"category"`
	CreatedBy        string `mapstructure:"created_by"`
	CreatedAt        string `mapstructure:"created_at"`
}

func transactionFields(tx *models.Transaction) map[string]interface{} {
	var rName, rDetails string
	if tx.Recipient != nil {
		rName, rDetails = tx.Recipient.Name, tx.Recipient.Details
	}
	return map[string]interface{}{
		"id":                tx.ID,
		"group_id":          tx.GroupID,
		"type":              string(tx.Type),
		"amount":            tx.Amount.String(),
		"description":       tx.Description,
		"recipient_name":    rName,
		"recipient_details": rDetails,
		"proposal_id":       tx.ProposalID,
		"category":          string(tx.Category),
		"created_by":        tx.CreatedBy,
		"created_at":        formatTime(tx.CreatedAt),
	}
}

func decodeTransaction(data map[string]string) (*models.Transaction, error) {
	var rec transactionRecord
	if err := mapstructure.Decode(data, &rec); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	tx := &models.Transaction{
		ID:          rec.ID,
		GroupID:     rec.GroupID,
		Type:        models.TransactionType(rec.Type),
		Description: rec.Description,
		ProposalID:  rec.ProposalID,
		Category:    models.Category(rec.Category),
		CreatedBy:   rec.CreatedBy,
	}
	var err error
	if tx.Amount, err = decimal.NewFromString(rec.Amount); err != nil {
		return nil, fmt.Errorf("transaction %s amount: %w", rec.ID, err)
	}
	if tx.CreatedAt, err = parseTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", rec.ID, err)
	}
	if rec.RecipientName != "" || rec.RecipientDetails != "" {
		tx.Recipient = &models.Recipient{Name: rec.RecipientName, Details: rec.RecipientDetails}
	}
	return tx, nil
}

type userRecord struct {
	ID           string `mapstructure:"id"`
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
	CreatedAt    string `mapstructure:"created_at"`
}

func decodeUser(data map[string]string) (*models.User, error) {
	var rec userRecord
	if err := mapstructure.Decode(data, &rec); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u := &models.User{ID: rec.ID, Username: rec.Username, PasswordHash: rec.PasswordHash}
	var err error
	if u.CreatedAt, err = parseTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("user %s: %w", rec.Username, err)
	}
	return u, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseOptTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
