// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// RegisterRequest represents the registration form data. The account type
// selects which variant fields are required; an unrecognized or missing type
// registers a regular user.
type RegisterRequest struct {
	AccountType string `json:"account_type,omitempty" validate:"omitempty,max=32" example:"Business"`

	Username    string `json:"username" validate:"required,min=3,max=64,username_format" example:"caspian.cafe"`
	Email       string `json:"email" validate:"required,email,max=255" example:"owner@example.com"`
	Password    string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	FullName    string `json:"full_name" validate:"required,max=255" example:"Sara Moradi"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,max=32" example:"+989123456789"`
	Location    string `json:"location,omitempty" validate:"omitempty,max=255"`
	Address     string `json:"address,omitempty" validate:"omitempty,max=512"`

	// ProfileImage is raw image bytes, base64-encoded on the wire.
	ProfileImage []byte `json:"profile_image,omitempty" validate:"omitempty,max=1048576"`

	// Admin variant
	DepartmentName *string `json:"department_name,omitempty" validate:"omitempty,max=255"`

	// CityAdmin variant
	CityName     *string `json:"city_name,omitempty" validate:"omitempty,max=255"`
	CityPosition *string `json:"city_position,omitempty" validate:"omitempty,max=255"`

	// Business variant: a pending business application is created alongside
	// the account when a business name is supplied.
	BusinessName    *string `json:"business_name,omitempty" validate:"omitempty,max=255"`
	BusinessLicense *string `json:"business_license,omitempty" validate:"omitempty,max=64"`
	BusinessPhone   *string `json:"business_phone,omitempty" validate:"omitempty,max=32"`
	BusinessAddress *string `json:"business_address,omitempty" validate:"omitempty,max=512"`
}

// RegisterResponse represents the response after successful registration
type RegisterResponse struct {
	Message string       `json:"message"`
	Account ProfileView  `json:"account"`
	Session SessionDTO   `json:"session"`
}

// SessionDTO represents issued session credentials
type SessionDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
	CreatedAt    string `json:"created_at" example:"2025-01-15T10:30:00Z"`
}

// ProfileView is the role-shaped profile representation: common identity
// fields plus exactly one variant object selected by the account's role.
type ProfileView struct {
	ID           uint       `json:"id"`
	UUID         string     `json:"uuid"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	Location     string     `json:"location,omitempty"`
	Address      string     `json:"address,omitempty"`
	AccountType  string     `json:"account_type"`
	ProfileImage []byte     `json:"profile_image,omitempty"`
	Roles        []string   `json:"roles"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	Admin           *AdminDetails       `json:"admin,omitempty"`
	CityAdmin       *CityAdminDetails   `json:"city_admin,omitempty"`
	Business        *BusinessSummaryDTO `json:"business,omitempty"`
	ManagedBusiness *BusinessSummaryDTO `json:"managed_business,omitempty"`
	Membership      *MembershipDetails  `json:"membership,omitempty"`
}

// AdminDetails is the Admin variant payload of the profile view
type AdminDetails struct {
	DepartmentName string `json:"department_name"`
}

// CityAdminDetails is the CityAdmin variant payload of the profile view
type CityAdminDetails struct {
	CityName     string `json:"city_name"`
	CityPosition string `json:"city_position,omitempty"`
}

// MembershipDetails is the RegularUser variant payload of the profile view
type MembershipDetails struct {
	MemberSince *time.Time `json:"member_since,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

// BusinessSummaryDTO is the business summary nested in profile views and
// business listings. ProfileImage is omitted for managed-business summaries.
type BusinessSummaryDTO struct {
	ID           uint   `json:"id"`
	UUID         string `json:"uuid"`
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	Address      string `json:"address,omitempty"`
	Status       string `json:"status"`
	HasAccount   bool   `json:"has_account"`
	ProfileImage []byte `json:"profile_image,omitempty"`
}
