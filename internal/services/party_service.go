package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/logger"
	"kyatflow/internal/models"
	"kyatflow/internal/pagination"
)

// partyService handles customer and supplier bookkeeping.
type partyService struct {
	db *gorm.DB
}

// NewPartyService creates a new PartyServicer.
func NewPartyService(db *gorm.DB) PartyServicer {
	return &partyService{db: db}
}

// CreateParty creates a party with the given seed balance.
func (s *partyService) CreateParty(userID, name string, phone *string, partyType models.PartyType, openingBalance decimal.Decimal) (*models.Party, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "party name is required")
	}
	if !partyType.Valid() {
		return nil, apperrors.ErrInvalidPartyType
	}

	seed := openingBalance.Round(2)
	party := &models.Party{
		UserID:         userID,
		Name:           name,
		Phone:          normalizePhone(phone),
		Type:           partyType,
		Balance:        seed,
		OpeningBalance: seed,
	}

	if err := s.db.Create(party).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return party, nil
}

// GetUserParties retrieves a paginated list of a user's parties, optionally
// narrowed to customers or suppliers.
func (s *partyService) GetUserParties(userID string, partyType *models.PartyType, page pagination.PageRequest) (*pagination.PageResponse[models.Party], error) {
	base := s.db.Model(&models.Party{}).Where("user_id = ?", userID)
	if partyType != nil {
		base = base.Where("type = ?", *partyType)
	}

	result, err := pagination.FindPage[models.Party](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetPartyByID retrieves a party by ID for a specific user
func (s *partyService) GetPartyByID(userID, partyID string) (*models.Party, error) {
	return findParty(s.db, userID, partyID)
}

// UpdateParty edits descriptive fields. The balance is never touched here.
func (s *partyService) UpdateParty(userID, partyID string, fields PartyUpdateFields) (*models.Party, error) {
	party, err := s.GetPartyByID(userID, partyID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "party name cannot be empty")
		}
		updates["name"] = name
	}
	if fields.Phone != nil {
		updates["phone"] = normalizePhone(fields.Phone)
	}
	if fields.Type != nil {
		if !fields.Type.Valid() {
			return nil, apperrors.ErrInvalidPartyType
		}
		updates["type"] = *fields.Type
	}

	if len(updates) > 0 {
		if err := s.db.Model(party).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", party.ID).First(party).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return party, nil
}

// DeleteParty removes a party that no transaction references. The
// reference count and the delete share one database transaction.
func (s *partyService) DeleteParty(userID, partyID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		party, err := findParty(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, partyID)
		if err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&models.Transaction{}).Where("party_id = ?", party.ID).Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			return apperrors.ErrPartyHasTransactions
		}

		if err := tx.Delete(party).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ApplyEffect adds delta to the balance of the user's party as a single
// atomic statement on tx. A party that does not exist or belongs to
// someone else yields ErrPartyNotFound.
func (s *partyService) ApplyEffect(tx *gorm.DB, userID, partyID string, delta decimal.Decimal) error {
	result := tx.Model(&models.Party{}).
		Where("id = ? AND user_id = ?", partyID, userID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrPartyNotFound
	}
	return nil
}

// RecalculateBalance recomputes a party's balance from its opening balance
// and transaction history and stores the result.
func (s *partyService) RecalculateBalance(partyID string) (*BalanceRepair, error) {
	var repair *BalanceRepair
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var party models.Party
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", partyID).First(&party).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPartyNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var txs []models.Transaction
		if err := tx.Select("type", "amount").Where("party_id = ?", party.ID).Find(&txs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		previous := party.Balance
		balance := party.OpeningBalance
		for i := range txs {
			balance = balance.Add(txs[i].Effect())
		}

		// Updating through &party would copy balance back into party.Balance.
		if err := tx.Model(&models.Party{}).Where("id = ?", party.ID).Update("balance", balance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		repair = &BalanceRepair{
			PartyID:          party.ID,
			PreviousBalance:  previous,
			RecomputedAmount: balance,
			TransactionCount: int64(len(txs)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !repair.PreviousBalance.Equal(repair.RecomputedAmount) {
		logger.Get().Infow("party balance repaired",
			"party_id", repair.PartyID,
			"previous", repair.PreviousBalance.String(),
			"balance", repair.RecomputedAmount.String(),
		)
	}
	return repair, nil
}

func findParty(db *gorm.DB, userID, partyID string) (*models.Party, error) {
	var party models.Party
	if err := db.Where("id = ? AND user_id = ?", partyID, userID).First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPartyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &party, nil
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil
	}
	return &p
}
