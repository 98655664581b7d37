package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/models"
)

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 24
)

// analyticsService answers read-only reporting queries over the ledger.
type analyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *analyticsService) userTransactions(userID string, from, to *time.Time) *gorm.DB {
	q := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("date >= ?", from.UTC())
	}
	if to != nil {
		q = q.Where("date <= ?", to.UTC())
	}
	return q
}

// GetSummary totals income and expense between from and to, both optional.
func (s *analyticsService) GetSummary(userID string, from, to *time.Time) (*Summary, error) {
	var summary Summary
	err := s.userTransactions(userID, from, to).
		Select(
			"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0), "+
				"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0), "+
				"COUNT(*)",
			models.TransactionTypeIncome, models.TransactionTypeExpense,
		).
		Row().Scan(&summary.TotalIncome, &summary.TotalExpense, &summary.TransactionCount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary.Net = summary.TotalIncome.Sub(summary.TotalExpense)
	return &summary, nil
}

// GetCategoryBreakdown sums transactions of one type per category, largest first.
func (s *analyticsService) GetCategoryBreakdown(userID string, txType models.TransactionType, from, to *time.Time) ([]CategoryTotal, error) {
	if !txType.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}

	rows, err := s.userTransactions(userID, from, to).
		Select("category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("type = ?", txType).
		Group("category").
		Order("total DESC").
		Rows()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer rows.Close()

	totals := []CategoryTotal{}
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return totals, nil
}

// GetMonthlyTrend returns income and expense for each of the last months
// calendar months, oldest first. Months without activity are included.
// Bucketing happens here rather than in SQL so the query stays portable.
func (s *analyticsService) GetMonthlyTrend(userID string, months int) ([]MonthlyTotal, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}
	if months > maxTrendMonths {
		months = maxTrendMonths
	}

	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	var txs []models.Transaction
	if err := s.db.Select("date", "type", "amount").
		Where("user_id = ? AND date >= ?", userID, start).
		Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	trend := make([]MonthlyTotal, months)
	index := make(map[string]int, months)
	for i := range trend {
		key := start.AddDate(0, i, 0).Format("2006-01")
		trend[i] = MonthlyTotal{Month: key, Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
		index[key] = i
	}

	for _, tx := range txs {
		i, ok := index[tx.Date.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		if tx.Type == models.TransactionTypeIncome {
			trend[i].Income = trend[i].Income.Add(tx.Amount)
		} else {
			trend[i].Expense = trend[i].Expense.Add(tx.Amount)
		}
		trend[i].Net = trend[i].Net.Add(tx.Effect())
	}

	return trend, nil
}

// GetPartyTotals sums receivables (positive balances) and payables
// (negative balances, reported as a positive amount).
func (s *analyticsService) GetPartyTotals(userID string) (*PartyTotals, error) {
	var totals PartyTotals
	var payables decimal.Decimal
	err := s.db.Model(&models.Party{}).
		Select(
			"COALESCE(SUM(CASE WHEN balance > 0 THEN balance ELSE 0 END), 0), "+
				"COALESCE(SUM(CASE WHEN balance < 0 THEN balance ELSE 0 END), 0), "+
				"COUNT(*)",
		).
		Where("user_id = ?", userID).
		Row().Scan(&totals.Receivables, &payables, &totals.PartyCount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals.Payables = payables.Abs()
	totals.Net = totals.Receivables.Sub(totals.Payables)
	return &totals, nil
}
