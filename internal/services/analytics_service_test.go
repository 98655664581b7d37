package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kyatflow/internal/models"
	"kyatflow/internal/testutil"
)

func createDatedTransaction(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, amount, category string, date time.Time) {
	t.Helper()
	tx := testutil.CreateTestTransaction(t, db, userID, nil, txType, amount)
	require.NoError(t, db.Model(tx).Updates(map[string]interface{}{"date": date, "category": category}).Error)
}

func TestAnalyticsSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAnalyticsService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	createDatedTransaction(t, db, user.ID, models.TransactionTypeIncome, "1000", "Sales", jan)
	createDatedTransaction(t, db, user.ID, models.TransactionTypeExpense, "300", "Stock", jan)
	createDatedTransaction(t, db, user.ID, models.TransactionTypeIncome, "200", "Sales", feb)
	createDatedTransaction(t, db, other.ID, models.TransactionTypeIncome, "999", "Sales", jan)

	t.Run("all_time", func(t *testing.T) {
		summary, err := svc.GetSummary(user.ID, nil, nil)
		require.NoError(t, err)

		assert.True(t, summary.TotalIncome.Equal(dec("1200")), "income = %s", summary.TotalIncome)
		assert.True(t, summary.TotalExpense.Equal(dec("300")), "expense = %s", summary.TotalExpense)
		assert.True(t, summary.Net.Equal(dec("900")), "net = %s", summary.Net)
		assert.Equal(t, int64(3), summary.TransactionCount)
	})

	t.Run("date_range", func(t *testing.T) {
		from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		summary, err := svc.GetSummary(user.ID, &from, nil)
		require.NoError(t, err)

		assert.True(t, summary.TotalIncome.Equal(dec("200")), "income = %s", summary.TotalIncome)
		assert.True(t, summary.TotalExpense.IsZero())
		assert.Equal(t, int64(1), summary.TransactionCount)
	})

	t.Run("empty", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, db)
		summary, err := svc.GetSummary(stranger.ID, nil, nil)
		require.NoError(t, err)

		assert.True(t, summary.Net.IsZero())
		assert.Equal(t, int64(0), summary.TransactionCount)
	})
}

func TestAnalyticsCategoryBreakdown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAnalyticsService(db)
	user := testutil.CreateTestUser(t, db)

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	createDatedTransaction(t, db, user.ID, models.TransactionTypeExpense, "50", "Transport", day)
	createDatedTransaction(t, db, user.ID, models.TransactionTypeExpense, "400", "Stock", day)
	createDatedTransaction(t, db, user.ID, models.TransactionTypeExpense, "100", "Stock", day)
	createDatedTransaction(t, db, user.ID, models.TransactionTypeIncome, "900", "Sales", day)

	totals, err := svc.GetCategoryBreakdown(user.ID, models.TransactionTypeExpense, nil, nil)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, "Stock", totals[0].Category)
	assert.True(t, totals[0].Total.Equal(dec("500")), "stock total = %s", totals[0].Total)
	assert.Equal(t, int64(2), totals[0].Count)
	assert.Equal(t, "Transport", totals[1].Category)

	_, err = svc.GetCategoryBreakdown(user.ID, "transfer", nil, nil)
	testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
}

func TestAnalyticsMonthlyTrend(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAnalyticsService(db).(*analyticsService)
	svc.now = func() time.Time { return time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC) }
	user := testutil.CreateTestUser(t, db)

	createDatedTransaction(t, db, user.ID, models.TransactionTypeIncome, "100", "Sales", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	createDatedTransaction(t, db, user.ID, models.TransactionTypeExpense, "40", "Stock", time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC))
	createDatedTransaction(t, db, user.ID, models.TransactionTypeIncome, "70", "Sales", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	createDatedTransaction(t, db, user.ID, models.TransactionTypeIncome, "500", "Sales", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))

	trend, err := svc.GetMonthlyTrend(user.ID, 3)
	require.NoError(t, err)
	require.Len(t, trend, 3)

	assert.Equal(t, "2025-01", trend[0].Month)
	assert.True(t, trend[0].Income.Equal(dec("100")))
	assert.True(t, trend[0].Expense.Equal(dec("40")))
	assert.True(t, trend[0].Net.Equal(dec("60")))

	assert.Equal(t, "2025-02", trend[1].Month)
	assert.True(t, trend[1].Net.IsZero())

	assert.Equal(t, "2025-03", trend[2].Month)
	assert.True(t, trend[2].Income.Equal(dec("70")))

	defaults, err := svc.GetMonthlyTrend(user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, defaults, defaultTrendMonths)
}

func TestAnalyticsPartyTotals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAnalyticsService(db)
	user := testutil.CreateTestUser(t, db)

	testutil.CreateTestPartyWithBalance(t, db, user.ID, models.PartyTypeCustomer, "300")
	testutil.CreateTestPartyWithBalance(t, db, user.ID, models.PartyTypeCustomer, "200")
	testutil.CreateTestPartyWithBalance(t, db, user.ID, models.PartyTypeSupplier, "-150")
	testutil.CreateTestParty(t, db, user.ID)

	totals, err := svc.GetPartyTotals(user.ID)
	require.NoError(t, err)

	assert.True(t, totals.Receivables.Equal(dec("500")), "receivables = %s", totals.Receivables)
	assert.True(t, totals.Payables.Equal(dec("150")), "payables = %s", totals.Payables)
	assert.True(t, totals.Net.Equal(dec("350")), "net = %s", totals.Net)
	assert.Equal(t, int64(4), totals.PartyCount)
}
