// Package ledger records group money movements and rolls them up into balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saxenaaman628/badenya/internal/models"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places every backend stores exactly.
// The SQL columns are decimal(20,4), which leaves 16 integer digits.
const AmountScale = 4

var maxAmount = decimal.New(1, 16)

var (
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrAmountPrecision = fmt.Errorf("amount must have at most %d decimal places and at most 16 integer digits", AmountScale)
)

// CheckAmount accepts positive amounts that every store keeps without rounding.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(AmountScale)) || amount.GreaterThanOrEqual(maxAmount) {
		return ErrAmountPrecision
	}
	return nil
}

// Repository is the ledger side of a storage backend.
type Repository interface {
	AppendTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error)
}

// TypeForCategory maps a proposal category to the ledger entry it produces.
func TypeForCategory(c models.Category) models.TransactionType {
	switch c {
	case models.CategoryLoan:
		return models.TxLoan
	case models.CategoryInvestment:
		return models.TxInvestment
	case models.CategoryEmergency:
		return models.TxWithdrawal
	default:
		return models.TxExpense
	}
}

// FromProposal builds the transaction an executed proposal writes.
func FromProposal(p *models.Proposal, executorID string, now time.Time) *models.Transaction {
	tx := &models.Transaction{
		ID:          uuid.New().String(),
		GroupID:     p.GroupID,
		Type:        TypeForCategory(p.Category),
		Amount:      p.Amount,
		Description: "Proposal: " + p.Title,
		ProposalID:  p.ID,
		Category:    p.Category,
		CreatedBy:   executorID,
		CreatedAt:   now,
	}
	if p.Recipient != nil {
		r := *p.Recipient
		tx.Recipient = &r
	}
	return tx
}

type Summary struct {
	GroupID           string                                     `json:"group_id"`
	Balance           decimal.Decimal                            `json:"balance"`
	TotalIn           decimal.Decimal                            `json:"total_in"`
	TotalOut          decimal.Decimal                            `json:"total_out"`
	ByType            map[models.TransactionType]decimal.Decimal `json:"by_type"`
	Count             int                                        `json:"count"`
	LastTransactionAt *time.Time                                 `json:"last_transaction_at,omitempty"`
}

// Summarize folds transactions into a balance: contributions and repayments
// add, everything else subtracts.
func Summarize(groupID string, txs []*models.Transaction) Summary {
	s := Summary{
		GroupID:  groupID,
		Balance:  decimal.Zero,
		TotalIn:  decimal.Zero,
		TotalOut: decimal.Zero,
		ByType:   map[models.TransactionType]decimal.Decimal{},
	}
	for _, tx := range txs {
		s.Count++
		s.ByType[tx.Type] = s.ByType[tx.Type].Add(tx.Amount)
		if tx.Type.Inflow() {
			s.TotalIn = s.TotalIn.Add(tx.Amount)
		} else {
			s.TotalOut = s.TotalOut.Add(tx.Amount)
		}
		if s.LastTransactionAt == nil || tx.CreatedAt.After(*s.LastTransactionAt) {
			t := tx.CreatedAt
			s.LastTransactionAt = &t
		}
	}
	s.Balance = s.TotalIn.Sub(s.TotalOut)
	return s
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// RecordContribution adds a member's deposit to the group ledger.
func (s *Service) RecordContribution(ctx context.Context, groupID, userID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Member contribution"
	}
	tx := &models.Transaction{
		ID:          uuid.New().String(),
		GroupID:     groupID,
		Type:        models.TxContribution,
		Amount:      amount,
		Description: description,
		CreatedBy:   userID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.AppendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("record contribution: %w", err)
	}
	return tx, nil
}

// Transactions returns the group's ledger, newest first.
func (s *Service) Transactions(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs, nil
}

func (s *Service) Summary(ctx context.Context, groupID string) (Summary, error) {
	txs, err := s.repo.ListTransactions(ctx, groupID)
	if err != nil {
		return Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	return Summarize(groupID, txs), nil
}
