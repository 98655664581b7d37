package models

import "github.com/shopspring/decimal"

// PartyType distinguishes customers from suppliers.
type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
)

// Valid reports whether t is customer or supplier.
func (t PartyType) Valid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

// Party is a customer or supplier with a running balance. A positive
// balance is a receivable, a negative one a payable. Balance always equals
// OpeningBalance plus the effect of every transaction referencing the
// party; only the transaction service changes it after creation.
type Party struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"userId"`
	Name           string          `gorm:"not null" json:"name"`
	Phone          *string         `json:"phone"`
	Type           PartyType       `gorm:"not null" json:"type"`
	Balance        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"openingBalance"`
}
