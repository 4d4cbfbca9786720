// Package models contains domain entities and business models for the guide backend
package models

import (
	"time"

	"github.com/google/uuid"
)

type Business struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_businesses_uuid" json:"uuid"`

	Name          string `gorm:"size:120;not null" json:"name"`
	PhoneNumber   string `gorm:"size:30" json:"phone_number"`
	LicenseNumber string `gorm:"size:60" json:"license_number"`
	Address       string `gorm:"size:255" json:"address"`
	ProfileImage  []byte `gorm:"type:bytea" json:"-"`

	OwnerID uint     `gorm:"not null;index:idx_businesses_owner_id" json:"owner_id"`
	Owner   *Account `gorm:"foreignKey:OwnerID;references:ID" json:"owner,omitempty"`

	Status string `gorm:"size:20;not null;default:'Pending';index:idx_businesses_status" json:"status"`

	// At most one sub-manager account, and a sub-manager manages at most one
	// business; the unique index enforces the one-to-one from this side.
	SubManagerID *uint    `gorm:"uniqueIndex:uk_businesses_sub_manager_id" json:"sub_manager_id,omitempty"`
	SubManager   *Account `gorm:"foreignKey:SubManagerID;references:ID" json:"sub_manager,omitempty"`

	// Dedicated business login, provisioned once after approval.
	HasAccount           bool    `gorm:"not null;default:false" json:"has_account"`
	BusinessUsername     *string `gorm:"size:60;uniqueIndex:uk_businesses_business_username" json:"business_username,omitempty"`
	BusinessPasswordHash *string `gorm:"size:255" json:"-"`
	AccountID            *uint   `gorm:"uniqueIndex:uk_businesses_account_id" json:"account_id,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_businesses_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Business) TableName() string {
	return "businesses"
}

// Business approval status constants
const (
	BusinessStatusPending  = "Pending"
	BusinessStatusApproved = "Approved"
	BusinessStatusDenied   = "Denied"
)

func (b *Business) IsPending() bool {
	return b.Status == BusinessStatusPending
}

func (b *Business) IsApproved() bool {
	return b.Status == BusinessStatusApproved
}

func (b *Business) IsDenied() bool {
	return b.Status == BusinessStatusDenied
}

// BusinessFilter represents filter criteria for business queries
type BusinessFilter struct {
	ID               *uint
	UUID             *uuid.UUID
	Name             *string
	OwnerID          *uint
	Status           *string
	SubManagerID     *uint
	AccountID        *uint
	HasAccount       *bool
	BusinessUsername *string
	CreatedAfter     *time.Time
	CreatedBefore    *time.Time
}
