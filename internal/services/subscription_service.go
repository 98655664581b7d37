package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/logger"
	"kyatflow/internal/models"
	"kyatflow/internal/pagination"
)

const (
	codeLength      = 8
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 5
)

var timedStatuses = []models.SubscriptionStatus{models.SubscriptionTrial, models.SubscriptionPro}

// subscriptionService drives the free/trial/pro/expired state machine.
type subscriptionService struct {
	db        *gorm.DB
	notifier  Notifier
	trialDays int
	proDays   int
	now       func() time.Time
}

// NewSubscriptionService creates a new SubscriptionServicer. Trials last
// trialDays; redeemed codes and admin upgrades without an explicit length
// last proDays.
func NewSubscriptionService(db *gorm.DB, notifier Notifier, trialDays, proDays int) SubscriptionServicer {
	return &subscriptionService{
		db:        db,
		notifier:  notifier,
		trialDays: trialDays,
		proDays:   proDays,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetSubscription returns the user with an overdue plan already moved to expired.
func (s *subscriptionService) GetSubscription(userID string) (*models.User, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !user.Overdue(now) {
		return user, nil
	}

	result := s.db.Model(&models.User{}).
		Where("id = ? AND subscription_status IN ? AND subscription_end_date <= ?", user.ID, timedStatuses, now).
		Updates(map[string]interface{}{
			"subscription_status":   models.SubscriptionExpired,
			"subscription_end_date": nil,
		})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected > 0 {
		logger.Get().Infow("subscription expired", "user_id", user.ID, "previous_status", user.SubscriptionStatus)
	}

	return findUser(s.db, userID)
}

// StartTrial moves a free user onto a time-boxed trial. The update is
// conditional on the free state, so concurrent starts apply at most once.
func (s *subscriptionService) StartTrial(userID string) (*models.User, error) {
	if _, err := findUser(s.db, userID); err != nil {
		return nil, err
	}

	now := s.now()
	end := now.AddDate(0, 0, s.trialDays)
	result := s.db.Model(&models.User{}).
		Where("id = ? AND subscription_status = ?", userID, models.SubscriptionFree).
		Updates(map[string]interface{}{
			"subscription_status":   models.SubscriptionTrial,
			"trial_start_date":      now,
			"subscription_end_date": end,
		})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrTrialNotAvailable
	}

	logger.Get().Infow("trial started", "user_id", userID, "ends_at", end)
	return findUser(s.db, userID)
}

// RedeemCode consumes a single-use code and upgrades the user to pro. The
// code is claimed with a conditional update, so of any number of
// concurrent redemptions exactly one succeeds.
func (s *subscriptionService) RedeemCode(userID, code string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.ErrInvalidCode
	}

	var user *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findUser(tx, userID); err != nil {
			return err
		}

		now := s.now()
		claim := tx.Model(&models.RedemptionCode{}).
			Where("code = ? AND is_used = ?", code, false).
			Updates(map[string]interface{}{
				"is_used": true,
				"used_by": userID,
				"used_at": now,
			})
		if claim.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, claim.Error)
		}
		if claim.RowsAffected != 1 {
			return apperrors.ErrInvalidCode
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"subscription_status":   models.SubscriptionPro,
			"subscription_end_date": now.AddDate(0, 0, s.proDays),
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var err error
		user, err = findUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("redemption code used", "user_id", userID, "code", code)
	return user, nil
}

// GenerateCode creates a new unused redemption code, retrying on the rare
// collision with an existing one.
func (s *subscriptionService) GenerateCode() (*models.RedemptionCode, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateRedemptionCode(codeLength)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		rc := &models.RedemptionCode{Code: code}
		createErr := s.db.Create(rc).Error
		if createErr == nil {
			logger.Get().Infow("redemption code generated", "code_id", rc.ID)
			return rc, nil
		}

		var count int64
		if err := s.db.Model(&models.RedemptionCode{}).Where("code = ?", code).Count(&count).Error; err != nil || count == 0 {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, createErr)
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("no unique code after %d attempts", maxCodeAttempts))
}

// ListCodes returns redemption codes, newest first, optionally filtered by use.
func (s *subscriptionService) ListCodes(used *bool, page pagination.PageRequest) (*pagination.PageResponse[models.RedemptionCode], error) {
	base := s.db.Model(&models.RedemptionCode{})
	if used != nil {
		base = base.Where("is_used = ?", *used)
	}

	result, err := pagination.FindPage[models.RedemptionCode](base, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// AdminSetStatus overrides a user's plan. Timed plans run for days (or the
// pro default) from now; free and expired clear the end date.
func (s *subscriptionService) AdminSetStatus(userID string, status models.SubscriptionStatus, days *int) (*models.User, error) {
	if !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if days != nil && *days <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must be greater than zero")
	}

	now := s.now()
	updates := map[string]interface{}{"subscription_status": status}
	if status.Timed() {
		length := s.proDays
		if days != nil {
			length = *days
		}
		updates["subscription_end_date"] = now.AddDate(0, 0, length)
		if status == models.SubscriptionTrial {
			updates["trial_start_date"] = now
		}
	} else {
		updates["subscription_end_date"] = nil
	}

	var user *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		var err error
		user, err = findUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("subscription status set", "user_id", userID, "status", status, "ends_at", user.SubscriptionEndDate)
	return user, nil
}

// ExpireOverdue moves every trial or pro user past their end date to
// expired and reports how many were changed.
func (s *subscriptionService) ExpireOverdue() (int64, error) {
	result := s.db.Model(&models.User{}).
		Where("subscription_status IN ? AND subscription_end_date <= ?", timedStatuses, s.now()).
		Updates(map[string]interface{}{
			"subscription_status":   models.SubscriptionExpired,
			"subscription_end_date": nil,
		})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	logger.Get().Infow("expired overdue subscriptions", "count", result.RowsAffected)
	return result.RowsAffected, nil
}

// NotifyPayment tells the administrator that a user reports having paid.
// It never changes subscription state.
func (s *subscriptionService) NotifyPayment(userID, paymentMethod string) error {
	user, err := findUser(s.db, userID)
	if err != nil {
		return err
	}

	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method is required")
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}
	subject := fmt.Sprintf("Payment notification from %s", name)
	body := fmt.Sprintf("User %s (%s, id %s) reports a payment via %s.\nCurrent plan: %s.\nGenerate a code or set the status to pro once the payment is confirmed.",
		name, user.Email, user.ID, paymentMethod, user.SubscriptionStatus)

	if err := s.notifier.Notify(subject, body); err != nil {
		logger.Get().Errorw("failed to send payment notification", "error", err, "user_id", userID)
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// generateRedemptionCode returns a random code drawn uniformly from codeAlphabet.
func generateRedemptionCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
