// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// AdminUserDTO represents an account row in the admin user listing
type AdminUserDTO struct {
	ID          uint       `json:"id"`
	UUID        string     `json:"uuid"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	AccountType string     `json:"account_type"`
	Roles       []string   `json:"roles"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ListUsersResponse represents the admin user listing with pagination info
type ListUsersResponse struct {
	Users      []AdminUserDTO `json:"users"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// DeleteUserResponse represents the result of an admin-initiated deletion
type DeleteUserResponse struct {
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}
