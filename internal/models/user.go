package models

import "time"

// SubscriptionStatus is the state of a user's plan.
type SubscriptionStatus string

const (
	SubscriptionFree    SubscriptionStatus = "free"
	SubscriptionTrial   SubscriptionStatus = "trial"
	SubscriptionPro     SubscriptionStatus = "pro"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Valid reports whether s is one of the four known states.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionFree, SubscriptionTrial, SubscriptionPro, SubscriptionExpired:
		return true
	}
	return false
}

// Timed reports whether the state carries an expiry date.
func (s SubscriptionStatus) Timed() bool {
	return s == SubscriptionTrial || s == SubscriptionPro
}

// Role grants capabilities beyond a regular account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents the user model in the database
type User struct {
	Base
	Email               string             `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash        string             `gorm:"not null" json:"-"`
	Name                string             `json:"name"`
	Role                Role               `gorm:"not null;default:'user'" json:"role"`
	SubscriptionStatus  SubscriptionStatus `gorm:"not null;default:'free'" json:"subscriptionStatus"`
	TrialStartDate      *time.Time         `json:"trialStartDate"`
	SubscriptionEndDate *time.Time         `json:"subscriptionEndDate"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Overdue reports whether a trial or pro plan has passed its end date.
func (u *User) Overdue(now time.Time) bool {
	if !u.SubscriptionStatus.Timed() || u.SubscriptionEndDate == nil {
		return false
	}
	return !now.Before(*u.SubscriptionEndDate)
}

// HasActiveSubscription reports whether the user may use paid features at now.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.SubscriptionStatus.Timed() && u.SubscriptionEndDate != nil && !u.Overdue(now)
}
