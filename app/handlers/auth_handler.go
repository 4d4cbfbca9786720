// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/app/middleware"
	businessflow "github.com/guideapp/guide-backend/business_flow"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	BusinessLogin(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	signupFlow businessflow.SignupFlow
	loginFlow  businessflow.LoginFlow
	validator  *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(signupFlow businessflow.SignupFlow, loginFlow businessflow.LoginFlow) *AuthHandler {
	return &AuthHandler{
		signupFlow: signupFlow,
		loginFlow:  loginFlow,
		validator:  newValidator(),
	}
}

func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register handles account registration
// @Summary Account Registration
// @Description Register a new account; the account type selects the variant payload
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration data"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterResponse} "Account registered"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Username or email already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorCodeValidation, validationErrors(err))
	}

	result, err := h.signupFlow.Register(createRequestContext(c, "/api/v1/auth/register"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsUsernameAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Username already exists", "USERNAME_EXISTS", nil)
		}
		if businessflow.IsEmailAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Email already exists", "EMAIL_EXISTS", nil)
		}
		if businessflow.IsDepartmentNameRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Department name is required for admin accounts", "DEPARTMENT_NAME_REQUIRED", nil)
		}
		if businessflow.IsCityFieldsRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "City name and position are required for city admin accounts", "CITY_FIELDS_REQUIRED", nil)
		}
		if businessflow.IsBusinessFieldsRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Business name and license are required for business accounts", "BUSINESS_FIELDS_REQUIRED", nil)
		}
		if businessflow.IsAccountTypeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Account type not found", "ACCOUNT_TYPE_NOT_FOUND", nil)
		}

		log.Println("Registration failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Registration failed", "REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// Login handles standard authentication
// @Summary Login
// @Description Authenticate with username (or email) and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Login successful"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/token [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorCodeValidation, validationErrors(err))
	}

	result, err := h.loginFlow.Login(createRequestContext(c, "/api/v1/auth/token"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidCredentials(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", dto.ErrorCodeInvalidCredentials, nil)
		}

		log.Println("Login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// BusinessLogin handles dedicated business account authentication
// @Summary Business Login
// @Description Authenticate a dedicated business account; the linked business must be approved
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.BusinessLoginRequest true "Business login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.BusinessLoginResponse} "Business login successful"
// @Failure 401 {object} dto.APIResponse "Invalid credentials or business not approved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/business-login [post]
func (h *AuthHandler) BusinessLogin(c fiber.Ctx) error {
	var req dto.BusinessLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorCodeValidation, validationErrors(err))
	}

	result, err := h.loginFlow.BusinessLogin(createRequestContext(c, "/api/v1/auth/business-login"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsBusinessNotApproved(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Business is not approved", dto.ErrorCodeBusinessNotApproved, nil)
		}
		if businessflow.IsInvalidCredentials(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", dto.ErrorCodeInvalidCredentials, nil)
		}

		log.Println("Business login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Business login failed", "BUSINESS_LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Logout revokes the presented token and closes its session
// @Summary Logout
// @Description Revoke the current access token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.LogoutResponse} "Logged out"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorCodeUnauthorized, nil)
	}

	token, ok := middleware.GetAccessTokenFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorCodeUnauthorized, nil)
	}

	result, err := h.loginFlow.Logout(createRequestContext(c, "/api/v1/auth/logout"), accountID, token, clientMetadata(c))
	if err != nil {
		log.Println("Logout failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
