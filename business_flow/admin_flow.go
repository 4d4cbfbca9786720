// Package businessflow contains the core business logic and use cases for account and business workflows
package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
)

// AdminFlow handles admin user-management business logic
type AdminFlow interface {
	ListUsers(ctx context.Context, page, pageSize int) (*dto.ListUsersResponse, error)
	ExportUsers(ctx context.Context) (filename string, content []byte, err error)
	DeleteUser(ctx context.Context, targetID, requestedBy uint, metadata *ClientMetadata) (*dto.DeleteUserResponse, error)
}

// AdminFlowImpl implements the admin user-management flow
type AdminFlowImpl struct {
	accountRepo  repository.AccountRepository
	businessRepo repository.BusinessRepository
	sessionRepo  repository.AccountSessionRepository
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

// NewAdminFlow creates a new admin flow instance
func NewAdminFlow(
	accountRepo repository.AccountRepository,
	businessRepo repository.BusinessRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) AdminFlow {
	return &AdminFlowImpl{
		accountRepo:  accountRepo,
		businessRepo: businessRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

// ListUsers returns all accounts with their roles, paginated newest first.
func (s *AdminFlowImpl) ListUsers(ctx context.Context, page, pageSize int) (*dto.ListUsersResponse, error) {
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "Invalid page", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "Invalid page size", ErrInvalidPageSize)
	}

	accounts, err := s.accountRepo.ListAll(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_USERS_FAILED", "Failed to list users", err)
	}

	total, err := s.accountRepo.Count(ctx, models.AccountFilter{})
	if err != nil {
		return nil, NewBusinessError("LIST_USERS_FAILED", "Failed to list users", err)
	}

	users := make([]dto.AdminUserDTO, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, ToAdminUserDTO(*account))
	}

	return &dto.ListUsersResponse{
		Users:      users,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// ExportUsers renders the full account listing as an Excel workbook.
func (s *AdminFlowImpl) ExportUsers(ctx context.Context) (string, []byte, error) {
	accounts, err := s.accountRepo.ListAll(ctx, 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_USERS_FAILED", "Failed to export users", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Users"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "uuid", "username", "email", "full_name", "phone_number", "account_type", "created_at", "last_login_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, account := range accounts {
		lastLogin := ""
		if account.LastLoginAt != nil {
			lastLogin = account.LastLoginAt.Format(time.RFC3339)
		}

		row := []string{
			strconv.FormatUint(uint64(account.ID), 10),
			account.UUID.String(),
			account.Username,
			account.Email,
			account.FullName,
			account.PhoneNumber,
			account.AccountType.TypeName,
			account.CreatedAt.Format(time.RFC3339),
			lastLogin,
		}
		_ = xl.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("users_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

// DeleteUser removes an account on behalf of an admin, with full cascade.
// Admins cannot delete themselves through this path; that guard does not
// apply to self-service deletion.
func (s *AdminFlowImpl) DeleteUser(ctx context.Context, targetID, requestedBy uint, metadata *ClientMetadata) (*dto.DeleteUserResponse, error) {
	if targetID == requestedBy {
		return nil, NewBusinessError("CANNOT_DELETE_SELF", "Admins cannot delete their own account here", ErrCannotDeleteSelf)
	}

	target, err := s.accountRepo.ByID(ctx, targetID)
	if err != nil {
		return nil, NewBusinessError("DELETE_USER_FAILED", "Failed to delete user", err)
	}
	if target == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return cascadeDeleteAccount(txCtx, target, s.accountRepo, s.businessRepo, s.sessionRepo)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Admin deletion of account %d failed: %s", targetID, err.Error())
		_ = s.createAuditLog(ctx, &models.Account{ID: requestedBy}, models.AuditActionUserDeletedByAdmin, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessErrorf("DELETE_USER_FAILED", "Failed to delete user %d", err, targetID)
	}

	_ = s.createAuditLog(ctx, &models.Account{ID: requestedBy}, models.AuditActionUserDeletedByAdmin, fmt.Sprintf("Account %d deleted by admin %d", targetID, requestedBy), true, nil, metadata)

	return &dto.DeleteUserResponse{
		Message: "User deleted successfully",
		Deleted: true,
	}, nil
}

func (s *AdminFlowImpl) createAuditLog(ctx context.Context, account *models.Account, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return createAuditLog(ctx, s.auditRepo, account, action, description, success, errorMsg, metadata)
}
