// Package models contains domain entities and business models for the guide backend
package models

import (
	"time"
)

type AccountType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TypeName    string    `gorm:"size:30;not null;uniqueIndex" json:"type_name"`
	DisplayName string    `gorm:"size:50;not null" json:"display_name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AccountType) TableName() string {
	return "account_types"
}

// Account type constants. The type name doubles as the role claim carried on
// session tokens, so these strings are part of the token contract.
const (
	AccountTypeRegularUser = "RegularUser"
	AccountTypeAdmin       = "Admin"
	AccountTypeBusiness    = "Business"
	AccountTypeSubManager  = "SubManager"
	AccountTypeCityAdmin   = "CityAdmin"
)

// AllAccountTypes lists every known account type tag in seeding order.
var AllAccountTypes = []string{
	AccountTypeRegularUser,
	AccountTypeAdmin,
	AccountTypeBusiness,
	AccountTypeSubManager,
	AccountTypeCityAdmin,
}

// NormalizeAccountType maps an incoming account-type tag to a known one.
// Unrecognized or empty tags fall back to RegularUser.
func NormalizeAccountType(tag string) string {
	for _, t := range AllAccountTypes {
		if t == tag {
			return t
		}
	}
	return AccountTypeRegularUser
}

// AccountTypeFilter represents filter criteria for account type queries
type AccountTypeFilter struct {
	ID            *uint
	TypeName      *string
	DisplayName   *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
