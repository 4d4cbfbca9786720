// Package dto contains Data Transfer Objects for API request and response structures
package dto

// UpdateProfileRequest carries partial profile updates. A nil field leaves the
// stored value untouched; a non-nil field overwrites it, even when empty.
type UpdateProfileRequest struct {
	FullName     *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
	PhoneNumber  *string `json:"phone_number,omitempty" validate:"omitempty,max=32"`
	Location     *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=512"`
	ProfileImage *[]byte `json:"profile_image,omitempty" validate:"omitempty"`

	// Variant fields, applied only when they match the account's role
	DepartmentName *string `json:"department_name,omitempty" validate:"omitempty,max=255"`
	CityName       *string `json:"city_name,omitempty" validate:"omitempty,max=255"`
	CityPosition   *string `json:"city_position,omitempty" validate:"omitempty,max=255"`
}

// UpdateProfileResponse returns the updated role-shaped view
type UpdateProfileResponse struct {
	Message string      `json:"message"`
	Account ProfileView `json:"account"`
}

// ChangePasswordRequest represents the request to change the account password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=8,max=100"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=100,nefield=CurrentPassword"`
}

// ChangePasswordResponse represents the response after a password change
type ChangePasswordResponse struct {
	Message           string `json:"message"`
	PasswordChangedAt string `json:"password_changed_at"`
}

// DeleteAccountResponse represents the response after self-service deletion
type DeleteAccountResponse struct {
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}
