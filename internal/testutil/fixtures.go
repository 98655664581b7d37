package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"kyatflow/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a free-plan user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a free-plan user with the given email.
// The password is always "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:              email,
		PasswordHash:       string(hash),
		Name:               "Test User",
		Role:               models.RoleUser,
		SubscriptionStatus: models.SubscriptionFree,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAdmin creates a user holding the admin role.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUserWithEmail(t, db, fmt.Sprintf("admin%d@test.com", nextID()))
	if err := db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote test admin: %v", err)
	}
	user.Role = models.RoleAdmin
	return user
}

// SetTestSubscription forces a user's subscription columns.
func SetTestSubscription(t *testing.T, db *gorm.DB, user *models.User, status models.SubscriptionStatus, end *time.Time) {
	t.Helper()

	updates := map[string]interface{}{
		"subscription_status":   status,
		"subscription_end_date": end,
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		t.Fatalf("failed to set test subscription: %v", err)
	}
	user.SubscriptionStatus = status
	user.SubscriptionEndDate = end
}

// CreateTestParty creates a customer with zero balance.
func CreateTestParty(t *testing.T, db *gorm.DB, userID string) *models.Party {
	t.Helper()
	return CreateTestPartyWithBalance(t, db, userID, models.PartyTypeCustomer, "0")
}

// CreateTestPartyWithBalance creates a party of the given type and seed balance.
func CreateTestPartyWithBalance(t *testing.T, db *gorm.DB, userID string, partyType models.PartyType, balance string) *models.Party {
	t.Helper()

	seed := decimal.RequireFromString(balance)
	party := &models.Party{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Party %d", nextID()),
		Type:           partyType,
		Balance:        seed,
		OpeningBalance: seed,
	}
	if err := db.Create(party).Error; err != nil {
		t.Fatalf("failed to create test party: %v", err)
	}
	return party
}

// CreateTestTransaction inserts a transaction row directly. It does not
// touch any party balance; use the transaction service for that.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, partyID *string, txType models.TransactionType, amount string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:        userID,
		Date:          time.Now().UTC(),
		Amount:        decimal.RequireFromString(amount),
		Type:          txType,
		Category:      "General",
		PaymentMethod: "cash",
		PartyID:       partyID,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestCode creates an unused redemption code.
func CreateTestCode(t *testing.T, db *gorm.DB, code string) *models.RedemptionCode {
	t.Helper()

	rc := &models.RedemptionCode{Code: code}
	if err := db.Create(rc).Error; err != nil {
		t.Fatalf("failed to create test redemption code: %v", err)
	}
	return rc
}

// CreateTestBudget creates a monthly budget of 100.00 for the given category.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, category string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:   userID,
		Category: category,
		Amount:   decimal.NewFromInt(100),
		Period:   models.BudgetPeriodMonthly,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
