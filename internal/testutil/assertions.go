package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/models"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertPartyBalance reloads the party and compares its stored balance.
func AssertPartyBalance(t *testing.T, db *gorm.DB, partyID string, want string) {
	t.Helper()

	var party models.Party
	if err := db.First(&party, "id = ?", partyID).Error; err != nil {
		t.Fatalf("failed to reload party %s: %v", partyID, err)
	}
	if !party.Balance.Equal(decimal.RequireFromString(want)) {
		t.Errorf("party %s balance = %s, want %s", party.Name, party.Balance, want)
	}
}

// AssertLedgerConsistent checks that the party's stored balance equals its
// opening balance plus the signed sum of every transaction referencing it.
func AssertLedgerConsistent(t *testing.T, db *gorm.DB, partyID string) {
	t.Helper()

	var party models.Party
	if err := db.First(&party, "id = ?", partyID).Error; err != nil {
		t.Fatalf("failed to reload party %s: %v", partyID, err)
	}

	var txs []models.Transaction
	if err := db.Where("party_id = ?", partyID).Find(&txs).Error; err != nil {
		t.Fatalf("failed to load transactions: %v", err)
	}

	want := party.OpeningBalance
	for i := range txs {
		want = want.Add(txs[i].Effect())
	}
	if !party.Balance.Equal(want) {
		t.Errorf("party %s balance = %s, but transactions sum to %s", party.Name, party.Balance, want)
	}
}
