// Package businessflow contains the core business logic and use cases for account and business workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountTypeNotFound   = errors.New("account type not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrIncorrectPassword     = errors.New("incorrect password")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrEmailAlreadyExists    = errors.New("email already exists")

	// Variant validation errors
	ErrDepartmentNameRequired = errors.New("department name is required for admin accounts")
	ErrCityFieldsRequired     = errors.New("city name and position are required for city admin accounts")
	ErrBusinessFieldsRequired = errors.New("business name and license are required for business accounts")

	// Business-related errors
	ErrBusinessNotFound     = errors.New("business not found")
	ErrBusinessNameRequired = errors.New("business name is required")
	ErrBusinessNotApproved  = errors.New("business is not approved")
	ErrNotBusinessOwner     = errors.New("caller does not own this business")
	ErrAlreadyHasAccount    = errors.New("business already has a dedicated account")

	// Admin errors
	ErrCannotDeleteSelf = errors.New("admins cannot delete their own account through user management")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsAccountTypeNotFound(err error) bool {
	return errors.Is(err, ErrAccountTypeNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsUsernameAlreadyExists(err error) bool {
	return errors.Is(err, ErrUsernameAlreadyExists)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsDepartmentNameRequired(err error) bool {
	return errors.Is(err, ErrDepartmentNameRequired)
}

func IsCityFieldsRequired(err error) bool {
	return errors.Is(err, ErrCityFieldsRequired)
}

func IsBusinessFieldsRequired(err error) bool {
	return errors.Is(err, ErrBusinessFieldsRequired)
}

func IsBusinessNotFound(err error) bool {
	return errors.Is(err, ErrBusinessNotFound)
}

func IsBusinessNameRequired(err error) bool {
	return errors.Is(err, ErrBusinessNameRequired)
}

func IsBusinessNotApproved(err error) bool {
	return errors.Is(err, ErrBusinessNotApproved)
}

func IsNotBusinessOwner(err error) bool {
	return errors.Is(err, ErrNotBusinessOwner)
}

func IsAlreadyHasAccount(err error) bool {
	return errors.Is(err, ErrAlreadyHasAccount)
}

func IsCannotDeleteSelf(err error) bool {
	return errors.Is(err, ErrCannotDeleteSelf)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
