// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/app/middleware"
	businessflow "github.com/guideapp/guide-backend/business_flow"
)

// BusinessHandlerInterface defines the contract for business handlers
type BusinessHandlerInterface interface {
	CreateBusiness(c fiber.Ctx) error
	ListMine(c fiber.Ctx) error
	ListPending(c fiber.Ctx) error
	UpdateBusiness(c fiber.Ctx) error
	DeleteBusiness(c fiber.Ctx) error
	Approve(c fiber.Ctx) error
	Deny(c fiber.Ctx) error
	CreateAccount(c fiber.Ctx) error
}

// BusinessHandler handles business lifecycle HTTP requests
type BusinessHandler struct {
	businessFlow businessflow.BusinessLifecycleFlow
	validator    *validator.Validate
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(businessFlow businessflow.BusinessLifecycleFlow) *BusinessHandler {
	return &BusinessHandler{
		businessFlow: businessFlow,
		validator:    newValidator(),
	}
}

func (h *BusinessHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *BusinessHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *BusinessHandler) businessIDParam(c fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, err
	}
	return uint(id), nil
}

// CreateBusiness files a new business application
// @Summary Create Business
// @Description Submit a new business application; status starts as Pending
// @Tags Business
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateBusinessRequest true "Business data"
// @Success 201 {object} dto.APIResponse{data=dto.BusinessDTO} "Business created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/business [post]
func (h *BusinessHandler) CreateBusiness(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorCodeUnauthorized, nil)
	}

	var req dto.CreateBusinessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorCodeValidation, validationErrors(err))
	}

	result, err := h.businessFlow.CreateBusiness(createRequestContext(c, "/api/v1/business"), accountID, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsBusinessNameRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Business name is required", "BUSINESS_NAME_REQUIRED", nil)
		}

		log.Println("Create business failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create business", "CREATE_BUSINESS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Business created successfully", result)
}

// ListMine returns the caller's businesses
// @Summary My Businesses
// @Description List businesses owned by the authenticated account
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.BusinessDTO} "Businesses"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/business/my-businesses [get]
func (h *BusinessHandler) ListMine(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorCodeUnauthorized, nil)
	}

	result, err := h.businessFlow.ListMine(createRequestContext(c, "/api/v1/business/my-businesses"), accountID)
	if err != nil {
		log.Println("List businesses failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list businesses", "LIST_BUSINESSES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Businesses retrieved successfully", result)
}

// ListPending returns the admin review queue
// @Summary Pending Businesses
// @Description List businesses awaiting review with applicant contact details
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.PendingBusinessDTO} "Pending businesses"
// @Failure 403 {object} dto.APIResponse "Admin role required"
// @Router /api/v1/business/pending [get]
func (h *BusinessHandler) ListPending(c fiber.Ctx) error {
	result, err := h.businessFlow.ListPending(createRequestContext(c, "/api/v1/business/pending"))
	if err != nil {
		log.Println("List pending businesses failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list pending businesses", "LIST_PENDING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Pending businesses retrieved successfully", result)
}

// UpdateBusiness applies a partial owner edit
// @Summary Update Business
// @Description Partially update an owned business; non-owned businesses read as not found
// @Tags Business
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Business ID"
// @Param request body dto.UpdateBusinessRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.BusinessDTO} "Updated business"
// @Failure 404 {object} dto.APIResponse "Business not found"
// @Router /api/v1/business/{id} [put]
func (h *BusinessHandler) UpdateBusiness(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorCodeUnauthorized, nil)
	}

	businessID, err := h.businessIDParam(c)
	if err != nil || businessID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid business ID", "INVALID_BUSINESS_ID", nil)
	}

	var req dto.UpdateBusinessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorCodeValidation, validationErrors(err))
	}

	result, err := h.businessFlow.UpdateBusiness(createRequestContext(c, "/api/v1/business/:id"), businessID, accountID, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsBusinessNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Business not found", dto.ErrorCodeNotFound, nil)
		}
		if businessflow.IsBusinessNameRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Business name is required", "BUSINESS_NAME_REQUIRED", nil)
		}

		log.Println("Update business failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update business", "UPDATE_BUSINESS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Business updated successfully", result)
}

// DeleteBusiness removes an owned business
// @Summary Delete Business
// @Description Delete an owned business, including its dedicated login account
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Param id path int true "Business ID"
// @Success 200 {object} dto.APIResponse "Business deleted"
// @Failure 404 {object} dto.APIResponse "Business not found"
// @Router /api/v1/business/{id} [delete]
func (h *BusinessHandler) DeleteBusiness(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorCodeUnauthorized, nil)
	}

	businessID, err := h.businessIDParam(c)
	if err != nil || businessID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid business ID", "INVALID_BUSINESS_ID", nil)
	}

	err = h.businessFlow.DeleteBusiness(createRequestContext(c, "/api/v1/business/:id"), businessID, accountID, clientMetadata(c))
	if err != nil {
		if businessflow.IsBusinessNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Business not found", dto.ErrorCodeNotFound, nil)
		}

		log.Println("Delete business failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete business", "DELETE_BUSINESS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Business deleted successfully", nil)
}

// Approve marks a business approved
// @Summary Approve Business
// @Description Mark a business as approved
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Param id path int true "Business ID"
// @Success 200 {object} dto.APIResponse{data=dto.BusinessStatusResponse} "Business approved"
// @Failure 404 {object} dto.APIResponse "Business not found"
// @Router /api/v1/business/{id}/approve [patch]
func (h *BusinessHandler) Approve(c fiber.Ctx) error {
	return h.review(c, h.businessFlow.Approve, "/api/v1/business/:id/approve")
}

// Deny marks a business denied
// @Summary Deny Business
// @Description Mark a business as denied
// @Tags Business
// @Produce json
// @Security BearerAuth
// @Param id path int true "Business ID"
// @Success 200 {object} dto.APIResponse{data=dto.BusinessStatusResponse} "Business denied"
// @Failure 404 {object} dto.APIResponse "Business not found"
// @Router /api/v1/business/{id}/deny [patch]
func (h *BusinessHandler) Deny(c fiber.Ctx) error {
	return h.review(c, h.businessFlow.Deny, "/api/v1/business/:id/deny")
}

func (h *BusinessHandler) review(c fiber.Ctx, decide func(ctx context.Context, businessID uint, metadata *businessflow.ClientMetadata) (*dto.BusinessStatusResponse, error), endpoint string) error {
	businessID, err := h.businessIDParam(c)
	if err != nil || businessID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid business ID", "INVALID_BUSINESS_ID", nil)
	}

	result, err := decide(createRequestContext(c, endpoint), businessID, clientMetadata(c))
	if err != nil {
		if businessflow.IsBusinessNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Business not found", dto.ErrorCodeNotFound, nil)
		}

		log.Println("Business review failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to review business", "REVIEW_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// CreateAccount provisions the dedicated login for an approved business
// @Summary Create Business Account
// @Description Create the single dedicated login account for an approved business
// @Tags Business
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Business ID"
// @Param request body dto.CreateBusinessAccountRequest true "Credentials for the new account"
// @Success 201 {object} dto.APIResponse{data=dto.CreateBusinessAccountResponse} "Account created"
// @Failure 400 {object} dto.APIResponse "Business not approved"
// @Failure 403 {object} dto.APIResponse "Not the owner"
// @Failure 409 {object} dto.APIResponse "Account already exists or username taken"
// @Router /api/v1/business/{id}/create-account [post]
func (h *BusinessHandler) CreateAccount(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorCodeUnauthorized, nil)
	}

	businessID, err := h.businessIDParam(c)
	if err != nil || businessID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid business ID", "INVALID_BUSINESS_ID", nil)
	}

	var req dto.CreateBusinessAccountRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorCodeValidation, validationErrors(err))
	}

	result, err := h.businessFlow.CreateDedicatedAccount(createRequestContext(c, "/api/v1/business/:id/create-account"), businessID, accountID, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsBusinessNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Business not found", dto.ErrorCodeNotFound, nil)
		}
		if businessflow.IsNotBusinessOwner(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only the owner can create the business account", dto.ErrorCodeForbidden, nil)
		}
		if businessflow.IsBusinessNotApproved(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Business must be approved first", dto.ErrorCodeInvalidState, nil)
		}
		if businessflow.IsAlreadyHasAccount(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Business already has a dedicated account", "ALREADY_HAS_ACCOUNT", nil)
		}
		if businessflow.IsUsernameAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Username already exists", "USERNAME_EXISTS", nil)
		}
		if businessflow.IsEmailAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Email already exists", "EMAIL_EXISTS", nil)
		}

		log.Println("Create business account failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create business account", "CREATE_BUSINESS_ACCOUNT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}
