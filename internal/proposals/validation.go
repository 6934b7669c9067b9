package proposals

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/saxenaaman628/badenya/internal/ledger"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/shopspring/decimal"
)

const (
	MinTitleLength       = 5
	MinDescriptionLength = 20
)

// CreateInput carries the member-supplied fields of a new proposal.
type CreateInput struct {
	Title          string
	Description    string
	Amount         decimal.Decimal
	Category       models.Category
	Priority       models.Priority
	Recipient      *models.Recipient
	VotingDeadline time.Time
}

// validate collects every violated field rather than stopping at the first.
func (in *CreateInput) validate(now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.Recipient != nil {
		in.Recipient.Name = strings.TrimSpace(in.Recipient.Name)
		in.Recipient.Details = strings.TrimSpace(in.Recipient.Details)
		if in.Recipient.Name == "" && in.Recipient.Details == "" {
			in.Recipient = nil
		}
	}

	var fields []FieldError
	add := func(field, msg string) { fields = append(fields, FieldError{Field: field, Message: msg}) }

	if utf8.RuneCountInString(in.Title) < MinTitleLength {
		add("title", "must be at least 5 characters")
	}
	if utf8.RuneCountInString(in.Description) < MinDescriptionLength {
		add("description", "must be at least 20 characters")
	}
	switch err := ledger.CheckAmount(in.Amount); {
	case errors.Is(err, ledger.ErrInvalidAmount):
		add("amount", "must be greater than zero")
	case err != nil:
		add("amount", "must have at most 4 decimal places and 16 integer digits")
	}
	if !in.Category.Valid() {
		add("category", "must be one of loan, investment, charity, event, emergency, other")
	}
	if !in.Priority.Valid() {
		add("priority", "must be one of low, medium, high, urgent")
	}
	if in.Recipient != nil && in.Recipient.Name == "" {
		add("recipient.name", "is required when recipient details are given")
	}
	if !in.VotingDeadline.After(now) {
		add("voting_deadline", "must be in the future")
	}

	if len(fields) > 0 {
		return &Error{Kind: KindValidation, Message: "invalid proposal", Fields: fields}
	}
	return nil
}
