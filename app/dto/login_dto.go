// Package dto contains Data Transfer Objects for API request and response structures
package dto

// LoginRequest represents the request payload for standard login. Identifier
// is a username, falling back to email lookup for legacy clients.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=3,max=255" example:"caspian.cafe or owner@example.com"`
	Password   string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Message string      `json:"message"`
	Account ProfileView `json:"account"`
	Session SessionDTO  `json:"session"`
}

// BusinessLoginRequest represents the request payload for dedicated
// business-account login
type BusinessLoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64" example:"caspian.cafe.biz"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// BusinessLoginResponse represents the successful business login response
type BusinessLoginResponse struct {
	Message  string             `json:"message"`
	Account  ProfileView        `json:"account"`
	Business BusinessSummaryDTO `json:"business"`
	Session  SessionDTO         `json:"session"`
}

// LogoutResponse represents the response after logout
type LogoutResponse struct {
	Message  string `json:"message"`
	LoggedOut bool  `json:"logged_out"`
}
