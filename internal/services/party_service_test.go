package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"kyatflow/internal/models"
	"kyatflow/internal/pagination"
	"kyatflow/internal/testutil"
)

func TestCreateParty(t *testing.T) {
	t.Run("valid_with_seed_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)

		phone := " 09-123456 "
		party, err := svc.CreateParty(user.ID, "Daw Aye", &phone, models.PartyTypeCustomer, dec("1500"))
		testutil.AssertNoError(t, err)

		if party.ID == "" {
			t.Fatal("expected party ID")
		}
		if party.Phone == nil || *party.Phone != "09-123456" {
			t.Errorf("expected trimmed phone, got %v", party.Phone)
		}
		testutil.AssertPartyBalance(t, db, party.ID, "1500")
		testutil.AssertLedgerConsistent(t, db, party.ID)
	})

	t.Run("zero_balance_by_default", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)

		party, err := svc.CreateParty(user.ID, "Supplier Co", nil, models.PartyTypeSupplier, decimal.Zero)
		testutil.AssertNoError(t, err)

		testutil.AssertPartyBalance(t, db, party.ID, "0")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateParty(user.ID, "  ", nil, models.PartyTypeCustomer, decimal.Zero)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateParty(user.ID, "Someone", nil, "employee", decimal.Zero)
		testutil.AssertAppError(t, err, "INVALID_PARTY_TYPE")
	})
}

func TestGetUserParties(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPartyService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	testutil.CreateTestPartyWithBalance(t, db, user.ID, models.PartyTypeCustomer, "10")
	testutil.CreateTestPartyWithBalance(t, db, user.ID, models.PartyTypeSupplier, "-10")
	testutil.CreateTestParty(t, db, other.ID)

	page := pagination.PageRequest{Page: 1, PageSize: 10}

	all, err := svc.GetUserParties(user.ID, nil, page)
	testutil.AssertNoError(t, err)
	if all.TotalItems != 2 {
		t.Errorf("expected 2 parties, got %d", all.TotalItems)
	}

	supplier := models.PartyTypeSupplier
	suppliers, err := svc.GetUserParties(user.ID, &supplier, page)
	testutil.AssertNoError(t, err)
	if suppliers.TotalItems != 1 {
		t.Fatalf("expected 1 supplier, got %d", suppliers.TotalItems)
	}
	if suppliers.Data[0].Type != models.PartyTypeSupplier {
		t.Errorf("expected supplier, got %s", suppliers.Data[0].Type)
	}
}

func TestGetPartyByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestParty(t, db, user.ID)

		party, err := svc.GetPartyByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)

		if party.Name != created.Name {
			t.Errorf("expected name %s, got %s", created.Name, party.Name)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		party := testutil.CreateTestParty(t, db, owner.ID)

		_, err := svc.GetPartyByID(other.ID, party.ID)
		testutil.AssertAppError(t, err, "PARTY_NOT_FOUND")
	})
}

func TestUpdateParty(t *testing.T) {
	t.Run("fields_change_balance_does_not", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)
		party := testutil.CreateTestPartyWithBalance(t, db, user.ID, models.PartyTypeCustomer, "320")

		name := "U Ba"
		phone := "09-777"
		supplier := models.PartyTypeSupplier
		updated, err := svc.UpdateParty(user.ID, party.ID, PartyUpdateFields{Name: &name, Phone: &phone, Type: &supplier})
		testutil.AssertNoError(t, err)

		if updated.Name != "U Ba" {
			t.Errorf("expected name U Ba, got %s", updated.Name)
		}
		if updated.Type != models.PartyTypeSupplier {
			t.Errorf("expected supplier, got %s", updated.Type)
		}
		testutil.AssertPartyBalance(t, db, party.ID, "320")
	})

	t.Run("clear_phone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)

		phone := "09-111"
		party, err := svc.CreateParty(user.ID, "Ko Min", &phone, models.PartyTypeCustomer, decimal.Zero)
		testutil.AssertNoError(t, err)

		empty := ""
		updated, err := svc.UpdateParty(user.ID, party.ID, PartyUpdateFields{Phone: &empty})
		testutil.AssertNoError(t, err)

		if updated.Phone != nil {
			t.Errorf("expected phone cleared, got %s", *updated.Phone)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)
		party := testutil.CreateTestParty(t, db, user.ID)

		name := ""
		_, err := svc.UpdateParty(user.ID, party.ID, PartyUpdateFields{Name: &name})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)

		name := "x"
		_, err := svc.UpdateParty(user.ID, "0190a4c8-0000-7000-8000-000000000000", PartyUpdateFields{Name: &name})
		testutil.AssertAppError(t, err, "PARTY_NOT_FOUND")
	})
}

func TestDeleteParty(t *testing.T) {
	t.Run("unreferenced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)
		party := testutil.CreateTestParty(t, db, user.ID)

		testutil.AssertNoError(t, svc.DeleteParty(user.ID, party.ID))

		_, err := svc.GetPartyByID(user.ID, party.ID)
		testutil.AssertAppError(t, err, "PARTY_NOT_FOUND")
	})

	t.Run("referenced_party_is_kept", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		txSvc := NewTransactionService(db, svc)
		user := testutil.CreateTestUser(t, db)
		party := testutil.CreateTestParty(t, db, user.ID)

		_, err := txSvc.CreateTransaction(user.ID, income("90", &party.ID))
		testutil.AssertNoError(t, err)

		err = svc.DeleteParty(user.ID, party.ID)
		testutil.AssertAppError(t, err, "PARTY_HAS_TRANSACTIONS")

		testutil.AssertPartyBalance(t, db, party.ID, "90")
		var count int64
		db.Model(&models.Transaction{}).Where("party_id = ?", party.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected transaction to survive, found %d", count)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		party := testutil.CreateTestParty(t, db, owner.ID)

		err := svc.DeleteParty(other.ID, party.ID)
		testutil.AssertAppError(t, err, "PARTY_NOT_FOUND")

		_, err = svc.GetPartyByID(owner.ID, party.ID)
		testutil.AssertNoError(t, err)
	})
}

func TestRecalculateBalance(t *testing.T) {
	t.Run("repairs_drift", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)
		party := testutil.CreateTestPartyWithBalance(t, db, user.ID, models.PartyTypeCustomer, "100")

		// Raw inserts bypass the ledger, so the stored balance drifts.
		testutil.CreateTestTransaction(t, db, user.ID, &party.ID, models.TransactionTypeIncome, "40")
		testutil.CreateTestTransaction(t, db, user.ID, &party.ID, models.TransactionTypeExpense, "15")

		repair, err := svc.RecalculateBalance(party.ID)
		testutil.AssertNoError(t, err)

		if !repair.PreviousBalance.Equal(dec("100")) {
			t.Errorf("expected previous balance 100, got %s", repair.PreviousBalance)
		}
		if !repair.RecomputedAmount.Equal(dec("125")) {
			t.Errorf("expected recomputed balance 125, got %s", repair.RecomputedAmount)
		}
		if repair.TransactionCount != 2 {
			t.Errorf("expected 2 transactions, got %d", repair.TransactionCount)
		}
		testutil.AssertPartyBalance(t, db, party.ID, "125")
		testutil.AssertLedgerConsistent(t, db, party.ID)
	})

	t.Run("reports_stored_balance_before_repair", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)
		user := testutil.CreateTestUser(t, db)
		party := testutil.CreateTestParty(t, db, user.ID)

		if err := db.Model(&models.Party{}).Where("id = ?", party.ID).
			Update("balance", dec("999")).Error; err != nil {
			t.Fatalf("failed to corrupt balance: %v", err)
		}

		repair, err := svc.RecalculateBalance(party.ID)
		testutil.AssertNoError(t, err)

		if !repair.PreviousBalance.Equal(dec("999")) {
			t.Errorf("expected previous balance 999, got %s", repair.PreviousBalance)
		}
		if !repair.RecomputedAmount.IsZero() {
			t.Errorf("expected recomputed balance 0, got %s", repair.RecomputedAmount)
		}
		testutil.AssertPartyBalance(t, db, party.ID, "0")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPartyService(db)

		_, err := svc.RecalculateBalance("0190a4c8-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "PARTY_NOT_FOUND")
	})
}
