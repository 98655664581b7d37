package models

import (
	"time"

	"kyatflow/internal/uuid"

	"gorm.io/gorm"
)

// RedemptionCode is a single-use token that upgrades a user to pro.
type RedemptionCode struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string     `gorm:"size:32;uniqueIndex;not null" json:"code"`
	IsUsed    bool       `gorm:"not null;default:false" json:"isUsed"`
	UsedBy    *string    `gorm:"type:uuid" json:"usedBy"`
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (r *RedemptionCode) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New()
	}
	return nil
}
