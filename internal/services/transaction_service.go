package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/models"
	"kyatflow/internal/pagination"
)

// transactionService handles the income/expense ledger. Every mutation
// moves the referenced party's balance in the same database transaction.
type transactionService struct {
	db           *gorm.DB
	partyService PartyServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, partyService PartyServicer) TransactionServicer {
	return &transactionService{
		db:           db,
		partyService: partyService,
	}
}

// CreateTransaction records a transaction and applies its effect to the
// referenced party, if any.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error) {
	amount, err := validateAmount(input.Amount)
	if err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:        userID,
		Date:          date.UTC(),
		Amount:        amount,
		Type:          input.Type,
		Category:      strings.TrimSpace(input.Category),
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		Notes:         input.Notes,
		ReceiptURL:    input.ReceiptURL,
		PartyID:       normalizePartyID(input.PartyID),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// The party is validated by the balance update itself, before the
		// row exists, so a foreign or missing party never reaches the FK.
		if transaction.PartyID != nil {
			if err := s.partyService.ApplyEffect(tx, userID, *transaction.PartyID, transaction.Effect()); err != nil {
				return err
			}
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	result, err := pagination.FindPage[models.Transaction](base, page, "date DESC", "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", f.FromDate.UTC())
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", f.ToDate.UTC())
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.PartyID != nil {
		q = q.Where("party_id = ?", *f.PartyID)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return findTransaction(s.db, userID, transactionID)
}

// UpdateTransaction applies a partial update. The old effect is reversed on
// the old party and the new effect applied to the target party; when the
// party does not change this nets to newEffect - oldEffect.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findTransaction(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, transactionID)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})

		amount := existing.Amount
		if fields.Amount != nil {
			if amount, err = validateAmount(*fields.Amount); err != nil {
				return err
			}
			updates["amount"] = amount
		}
		txType := existing.Type
		if fields.Type != nil {
			if !fields.Type.Valid() {
				return apperrors.ErrInvalidTransactionType
			}
			txType = *fields.Type
			updates["type"] = txType
		}
		target := existing.PartyID
		if fields.PartyID != nil {
			target = normalizePartyID(*fields.PartyID)
			updates["party_id"] = target
		}

		for _, adj := range partyAdjustments(existing.PartyID, existing.Effect(), target, models.Effect(txType, amount)) {
			if err := s.partyService.ApplyEffect(tx, userID, adj.partyID, adj.delta); err != nil {
				return err
			}
		}

		if fields.Date != nil {
			updates["date"] = fields.Date.UTC()
		}
		if fields.Category != nil {
			updates["category"] = strings.TrimSpace(*fields.Category)
		}
		if fields.PaymentMethod != nil {
			updates["payment_method"] = strings.TrimSpace(*fields.PaymentMethod)
		}
		if fields.Notes != nil {
			updates["notes"] = *fields.Notes
		}
		if fields.ReceiptURL != nil {
			updates["receipt_url"] = *fields.ReceiptURL
		}

		if len(updates) > 0 {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		result, err = findTransaction(tx, userID, transactionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTransaction deletes a transaction and reverses its effect on the party balance
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := findTransaction(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, transactionID)
		if err != nil {
			return err
		}

		if transaction.PartyID != nil {
			if err := s.partyService.ApplyEffect(tx, userID, *transaction.PartyID, transaction.Effect().Neg()); err != nil {
				return err
			}
		}

		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func findTransaction(db *gorm.DB, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// validateAmount rejects non-positive amounts and rounds to the stored scale.
func validateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.ErrInvalidAmount
	}
	return amount, nil
}

func normalizePartyID(partyID *string) *string {
	if partyID == nil || strings.TrimSpace(*partyID) == "" {
		return nil
	}
	id := strings.TrimSpace(*partyID)
	return &id
}

type partyAdjustment struct {
	partyID string
	delta   decimal.Decimal
}

// partyAdjustments returns the balance changes for moving an effect from
// oldParty to newParty, ordered by party id so concurrent moves between the
// same two parties lock rows in the same order.
func partyAdjustments(oldParty *string, oldEffect decimal.Decimal, newParty *string, newEffect decimal.Decimal) []partyAdjustment {
	if oldParty != nil && newParty != nil && *oldParty == *newParty {
		return []partyAdjustment{{partyID: *oldParty, delta: newEffect.Sub(oldEffect)}}
	}
	var adjs []partyAdjustment
	if oldParty != nil {
		adjs = append(adjs, partyAdjustment{partyID: *oldParty, delta: oldEffect.Neg()})
	}
	if newParty != nil {
		adjs = append(adjs, partyAdjustment{partyID: *newParty, delta: newEffect})
	}
	sort.Slice(adjs, func(i, j int) bool { return adjs[i].partyID < adjs[j].partyID })
	return adjs
}
