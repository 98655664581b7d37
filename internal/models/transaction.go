package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is a single income or expense entry. Amount is always
// positive; Type carries the direction.
type Transaction struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"userId"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Type          TransactionType `gorm:"not null" json:"type"`
	Category      string          `gorm:"not null;default:''" json:"category"`
	PaymentMethod string          `gorm:"not null;default:''" json:"paymentMethod"`
	Notes         *string         `json:"notes"`
	ReceiptURL    *string         `json:"receiptUrl"`
	PartyID       *string         `gorm:"type:uuid;index" json:"partyId"`
}

// Effect returns the signed contribution of a transaction to its party's
// balance: +amount for income, -amount for expense.
func Effect(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeIncome {
		return amount
	}
	return amount.Neg()
}

// Effect returns the signed contribution of t to its party's balance.
func (t *Transaction) Effect() decimal.Decimal {
	return Effect(t.Type, t.Amount)
}
