// Package models contains domain entities and business models for the guide backend
package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the single identity record behind every login. The account type
// selects exactly one variant payload; the remaining variant columns stay NULL.
type Account struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`
	AccountTypeID uint        `gorm:"not null;index:idx_accounts_account_type_id" json:"account_type_id"`
	AccountType   AccountType `gorm:"foreignKey:AccountTypeID;references:ID" json:"account_type,omitempty"`

	// Identity fields (required for all types). Username is stored lowercase
	// so uniqueness is case-insensitive.
	Username     string `gorm:"size:60;not null;uniqueIndex:uk_accounts_username" json:"username"`
	Email        string `gorm:"size:255;not null;uniqueIndex:uk_accounts_email" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	// Profile fields
	FullName     string `gorm:"size:255;not null" json:"full_name"`
	PhoneNumber  string `gorm:"size:30" json:"phone_number"`
	Location     string `gorm:"size:255" json:"location"`
	Address      string `gorm:"size:255" json:"address"`
	ProfileImage []byte `gorm:"type:bytea" json:"-"`

	// Admin variant
	DepartmentName *string `gorm:"size:120" json:"department_name,omitempty"`

	// CityAdmin variant
	CityName     *string `gorm:"size:120" json:"city_name,omitempty"`
	CityPosition *string `gorm:"size:120" json:"city_position,omitempty"`

	// SubManager variant: the single business this account manages
	ManagedBusinessID *uint `gorm:"uniqueIndex:uk_accounts_managed_business_id" json:"managed_business_id,omitempty"`

	// Business variant: the single business this dedicated login operates
	BusinessID *uint `gorm:"uniqueIndex:uk_accounts_business_id" json:"business_id,omitempty"`

	// RegularUser variant
	MemberSince *time.Time `json:"member_since,omitempty"`
	IsActive    *bool      `gorm:"default:true;index:idx_accounts_is_active" json:"is_active"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_accounts_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	OwnedBusinesses []Business       `gorm:"foreignKey:OwnerID" json:"owned_businesses,omitempty"`
	Sessions        []AccountSession `gorm:"foreignKey:AccountID" json:"-"`
	AuditLogs       []AuditLog       `gorm:"foreignKey:AccountID" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID                *uint
	UUID              *uuid.UUID
	AccountTypeID     *uint
	AccountTypeName   *string
	Username          *string
	Email             *string
	PhoneNumber       *string
	BusinessID        *uint
	ManagedBusinessID *uint
	IsActive          *bool
	CreatedAfter      *time.Time
	CreatedBefore     *time.Time
}

func (a *Account) TypeName() string {
	return a.AccountType.TypeName
}

func (a *Account) IsAdmin() bool {
	return a.AccountType.TypeName == AccountTypeAdmin
}

func (a *Account) IsBusinessAccount() bool {
	return a.AccountType.TypeName == AccountTypeBusiness
}

func (a *Account) IsSubManager() bool {
	return a.AccountType.TypeName == AccountTypeSubManager
}

func (a *Account) IsCityAdmin() bool {
	return a.AccountType.TypeName == AccountTypeCityAdmin
}

// Roles returns the role claims carried on tokens issued for this account.
// There is exactly one role per account: the account type tag.
func (a *Account) Roles() []string {
	if a.AccountType.TypeName == "" {
		return nil
	}
	return []string{a.AccountType.TypeName}
}
