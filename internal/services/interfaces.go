package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kyatflow/internal/models"
	"kyatflow/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// PartyUpdateFields holds the editable party attributes. Nil means unchanged.
// Balance is deliberately absent.
type PartyUpdateFields struct {
	Name  *string
	Phone *string
	Type  *models.PartyType
}

// BalanceRepair reports the outcome of recomputing a party balance.
type BalanceRepair struct {
	PartyID          string          `json:"partyId"`
	PreviousBalance  decimal.Decimal `json:"previousBalance"`
	RecomputedAmount decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transactionCount"`
}

// PartyServicer defines the contract for customer/supplier bookkeeping.
type PartyServicer interface {
	CreateParty(userID, name string, phone *string, partyType models.PartyType, openingBalance decimal.Decimal) (*models.Party, error)
	GetUserParties(userID string, partyType *models.PartyType, page pagination.PageRequest) (*pagination.PageResponse[models.Party], error)
	GetPartyByID(userID, partyID string) (*models.Party, error)
	UpdateParty(userID, partyID string, fields PartyUpdateFields) (*models.Party, error)
	DeleteParty(userID, partyID string) error
	ApplyEffect(tx *gorm.DB, userID, partyID string, delta decimal.Decimal) error
	RecalculateBalance(partyID string) (*BalanceRepair, error)
}

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	Date          time.Time
	Amount        decimal.Decimal
	Type          models.TransactionType
	Category      string
	PaymentMethod string
	Notes         *string
	ReceiptURL    *string
	PartyID       *string
}

// TransactionUpdateFields holds a partial transaction update. A nil field is
// left unchanged. PartyID is doubly indirect: nil keeps the current party,
// a pointer to nil detaches the transaction from any party.
type TransactionUpdateFields struct {
	Date          *time.Time
	Amount        *decimal.Decimal
	Type          *models.TransactionType
	Category      *string
	PaymentMethod *string
	Notes         *string
	ReceiptURL    *string
	PartyID       **string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
	Category *string
	PartyID  *string
}

// TransactionServicer defines the contract for the ledger: every mutation
// keeps the referenced party's balance consistent.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// SubscriptionServicer defines the contract for the plan state machine.
type SubscriptionServicer interface {
	GetSubscription(userID string) (*models.User, error)
	StartTrial(userID string) (*models.User, error)
	RedeemCode(userID, code string) (*models.User, error)
	GenerateCode() (*models.RedemptionCode, error)
	ListCodes(used *bool, page pagination.PageRequest) (*pagination.PageResponse[models.RedemptionCode], error)
	AdminSetStatus(userID string, status models.SubscriptionStatus, days *int) (*models.User, error)
	ExpireOverdue() (int64, error)
	NotifyPayment(userID, paymentMethod string) error
}

// BudgetProgress contains spending vs budget data for a budget's current period.
type BudgetProgress struct {
	BudgetID    string          `json:"budgetId"`
	Category    string          `json:"category"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	Budgeted    decimal.Decimal `json:"budgeted"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Percentage  float64         `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, category string, amount decimal.Decimal, period models.BudgetPeriod) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, category *string, amount *decimal.Decimal, period *models.BudgetPeriod) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)
}

// Summary totals income and expense over a date range.
type Summary struct {
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpense     decimal.Decimal `json:"totalExpense"`
	Net              decimal.Decimal `json:"net"`
	TransactionCount int64           `json:"transactionCount"`
}

// CategoryTotal is one row of a per-category breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int64           `json:"count"`
}

// MonthlyTotal holds income and expense for one calendar month.
type MonthlyTotal struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// PartyTotals sums outstanding receivables and payables across parties.
type PartyTotals struct {
	Receivables decimal.Decimal `json:"receivables"`
	Payables    decimal.Decimal `json:"payables"`
	Net         decimal.Decimal `json:"net"`
	PartyCount  int64           `json:"partyCount"`
}

// AnalyticsServicer defines the contract for read-only reporting queries.
type AnalyticsServicer interface {
	GetSummary(userID string, from, to *time.Time) (*Summary, error)
	GetCategoryBreakdown(userID string, txType models.TransactionType, from, to *time.Time) ([]CategoryTotal, error)
	GetMonthlyTrend(userID string, months int) ([]MonthlyTotal, error)
	GetPartyTotals(userID string) (*PartyTotals, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
