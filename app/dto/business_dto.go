// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// CreateBusinessRequest represents a new business application. Status always
// starts as pending regardless of what the client sends.
type CreateBusinessRequest struct {
	Name          string `json:"name" validate:"required,max=255" example:"Caspian Cafe"`
	PhoneNumber   string `json:"phone_number,omitempty" validate:"omitempty,max=32"`
	LicenseNumber string `json:"license_number,omitempty" validate:"omitempty,max=64"`
	Address       string `json:"address,omitempty" validate:"omitempty,max=512"`
	ProfileImage  []byte `json:"profile_image,omitempty" validate:"omitempty,max=1048576"`
}

// UpdateBusinessRequest carries partial business updates; nil fields are left
// untouched. Status and ownership are not updatable through this request.
type UpdateBusinessRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=255"`
	PhoneNumber   *string `json:"phone_number,omitempty" validate:"omitempty,max=32"`
	LicenseNumber *string `json:"license_number,omitempty" validate:"omitempty,max=64"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=512"`
}

// BusinessDTO represents full business data for API responses
type BusinessDTO struct {
	ID               uint      `json:"id"`
	UUID             string    `json:"uuid"`
	Name             string    `json:"name"`
	PhoneNumber      string    `json:"phone_number,omitempty"`
	LicenseNumber    string    `json:"license_number,omitempty"`
	Address          string    `json:"address,omitempty"`
	ProfileImage     []byte    `json:"profile_image,omitempty"`
	OwnerID          uint      `json:"owner_id"`
	Status           string    `json:"status"`
	HasAccount       bool      `json:"has_account"`
	BusinessUsername *string   `json:"business_username,omitempty"`
	SubManagerID     *uint     `json:"sub_manager_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PendingBusinessDTO represents a pending application with owner contact
// details for the review queue
type PendingBusinessDTO struct {
	Business BusinessDTO     `json:"business"`
	Owner    OwnerContactDTO `json:"owner"`
}

// OwnerContactDTO summarizes the applicant behind a pending business
type OwnerContactDTO struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// CreateBusinessAccountRequest represents the request to create the dedicated
// login account for an approved business
type CreateBusinessAccountRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,username_format"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

// CreateBusinessAccountResponse represents the created dedicated account
type CreateBusinessAccountResponse struct {
	Message  string      `json:"message"`
	Business BusinessDTO `json:"business"`
	Account  ProfileView `json:"account"`
}

// BusinessStatusResponse represents the result of an approve/deny decision
type BusinessStatusResponse struct {
	Message  string      `json:"message"`
	Business BusinessDTO `json:"business"`
}
