package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxContribution TransactionType = "contribution"
	TxWithdrawal   TransactionType = "withdrawal"
	TxLoan         TransactionType = "loan"
	TxRepayment    TransactionType = "repayment"
	TxInvestment   TransactionType = "investment"
	TxExpense      TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxContribution, TxWithdrawal, TxLoan, TxRepayment, TxInvestment, TxExpense:
		return true
	}
	return false
}

// Inflow reports whether the transaction adds money to the group balance.
func (t TransactionType) Inflow() bool {
	return t == TxContribution || t == TxRepayment
}

// Transaction is one entry of a group's ledger.
type Transaction struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Recipient   *Recipient      `json:"recipient,omitempty"`
	ProposalID  string          `json:"proposal_id,omitempty"`
	Category    Category        `json:"category,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
