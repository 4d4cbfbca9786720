package handlers

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/app/middleware"
	businessflow "github.com/guideapp/guide-backend/business_flow"
)

// AdminHandlerInterface defines the contract for admin handlers
type AdminHandlerInterface interface {
	ListUsers(c fiber.Ctx) error
	ExportUsers(c fiber.Ctx) error
	DeleteUser(c fiber.Ctx) error
}

// AdminHandler handles administrative HTTP requests
type AdminHandler struct {
	adminFlow businessflow.AdminFlow
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminFlow businessflow.AdminFlow) *AdminHandler {
	return &AdminHandler{
		adminFlow: adminFlow,
	}
}

func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListUsers returns a page of all accounts
// @Summary List Users
// @Description List all accounts with pagination
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size, 1-100 (default 20)"
// @Success 200 {object} dto.APIResponse{data=dto.ListUsersResponse} "Users"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 403 {object} dto.APIResponse "Admin role required"
// @Router /api/v1/appadmin/users [get]
func (h *AdminHandler) ListUsers(c fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	result, err := h.adminFlow.ListUsers(createRequestContext(c, "/api/v1/appadmin/users"), page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", dto.ErrorCodeValidation, err.Error())
		}

		log.Println("List users failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list users", "LIST_USERS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Users retrieved successfully", result)
}

// ExportUsers streams an Excel workbook of all accounts
// @Summary Export Users
// @Description Download all accounts as an Excel workbook
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary "Excel file"
// @Failure 403 {object} dto.APIResponse "Admin role required"
// @Router /api/v1/appadmin/users/export [get]
func (h *AdminHandler) ExportUsers(c fiber.Ctx) error {
	filename, content, err := h.adminFlow.ExportUsers(createRequestContext(c, "/api/v1/appadmin/users/export"))
	if err != nil {
		log.Println("Export users failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export users", "EXPORT_USERS_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(content)
}

// DeleteUser removes an account and everything attached to it
// @Summary Delete User
// @Description Delete an account along with its businesses and sessions
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteUserResponse} "User deleted"
// @Failure 403 {object} dto.APIResponse "Cannot delete own account"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/appadmin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c fiber.Ctx) error {
	requestedBy, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorCodeUnauthorized, nil)
	}

	raw := c.Params("id")
	targetID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || targetID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", "INVALID_USER_ID", nil)
	}

	result, err := h.adminFlow.DeleteUser(createRequestContext(c, "/api/v1/appadmin/users/:id"), uint(targetID), requestedBy, clientMetadata(c))
	if err != nil {
		if businessflow.IsCannotDeleteSelf(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Administrators cannot delete their own account", dto.ErrorCodeCannotDeleteSelf, nil)
		}
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", dto.ErrorCodeNotFound, nil)
		}

		log.Println("Delete user failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete user", "DELETE_USER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "User deleted successfully", result)
}

func queryInt(c fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
