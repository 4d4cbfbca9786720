package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// Common error codes returned in ErrorDetail.Code
const (
	ErrorCodeValidation          = "VALIDATION_ERROR"
	ErrorCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrorCodeUnauthorized        = "UNAUTHORIZED"
	ErrorCodeForbidden           = "FORBIDDEN"
	ErrorCodeRoleRequired        = "ROLE_REQUIRED"
	ErrorCodeNotFound            = "NOT_FOUND"
	ErrorCodeConflict            = "CONFLICT"
	ErrorCodeInvalidState        = "INVALID_STATE"
	ErrorCodeBusinessNotApproved = "BUSINESS_NOT_APPROVED"
	ErrorCodeCannotDeleteSelf    = "CANNOT_DELETE_SELF"
	ErrorCodeTokenExpired        = "TOKEN_EXPIRED"
	ErrorCodeTokenRevoked        = "TOKEN_REVOKED"
	ErrorCodeInternal            = "INTERNAL_ERROR"
)
