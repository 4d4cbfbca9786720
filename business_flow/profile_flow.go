// Package businessflow contains the core business logic and use cases for account and business workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gorm.io/gorm"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/app/services"
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	"github.com/guideapp/guide-backend/utils"
)

// ProfileFlow handles profile management business logic
type ProfileFlow interface {
	GetProfile(ctx context.Context, accountID uint) (*dto.ProfileView, error)
	UpdateProfile(ctx context.Context, accountID uint, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.UpdateProfileResponse, error)
	ChangePassword(ctx context.Context, accountID uint, req *dto.ChangePasswordRequest, metadata *ClientMetadata) (*dto.ChangePasswordResponse, error)
	DeleteAccount(ctx context.Context, accountID uint, token string, metadata *ClientMetadata) (*dto.DeleteAccountResponse, error)
}

// ProfileFlowImpl implements the profile business flow
type ProfileFlowImpl struct {
	accountRepo  repository.AccountRepository
	businessRepo repository.BusinessRepository
	sessionRepo  repository.AccountSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewProfileFlow creates a new profile flow instance
func NewProfileFlow(
	accountRepo repository.AccountRepository,
	businessRepo repository.BusinessRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) ProfileFlow {
	return &ProfileFlowImpl{
		accountRepo:  accountRepo,
		businessRepo: businessRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// GetProfile returns the role-shaped profile view for an account.
func (s *ProfileFlowImpl) GetProfile(ctx context.Context, accountID uint) (*dto.ProfileView, error) {
	account, err := s.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("GET_PROFILE_FAILED", "Failed to load profile", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	linked, managed, err := loadVariantBusinesses(ctx, s.businessRepo, account)
	if err != nil {
		return nil, NewBusinessError("GET_PROFILE_FAILED", "Failed to load profile", err)
	}

	view := BuildProfileView(*account, linked, managed)
	return &view, nil
}

// UpdateProfile applies a partial update: nil fields are left untouched,
// non-nil fields overwrite even when empty. Variant fields only apply when
// they match the account's role.
func (s *ProfileFlowImpl) UpdateProfile(ctx context.Context, accountID uint, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.UpdateProfileResponse, error) {
	account, err := s.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("UPDATE_PROFILE_FAILED", "Failed to update profile", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	if req.FullName != nil {
		account.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		account.PhoneNumber = *req.PhoneNumber
	}
	if req.Location != nil {
		account.Location = *req.Location
	}
	if req.Address != nil {
		account.Address = *req.Address
	}
	if req.ProfileImage != nil {
		account.ProfileImage = *req.ProfileImage
	}

	switch account.AccountType.TypeName {
	case models.AccountTypeAdmin:
		if req.DepartmentName != nil {
			account.DepartmentName = req.DepartmentName
		}
	case models.AccountTypeCityAdmin:
		if req.CityName != nil {
			account.CityName = req.CityName
		}
		if req.CityPosition != nil {
			account.CityPosition = req.CityPosition
		}
	}

	account.UpdatedAt = utils.UTCNow()
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, NewBusinessError("UPDATE_PROFILE_FAILED", "Failed to update profile", err)
	}

	_ = s.createAuditLog(ctx, account, models.AuditActionProfileUpdated, fmt.Sprintf("Profile updated: %d", account.ID), true, nil, metadata)

	linked, managed, err := loadVariantBusinesses(ctx, s.businessRepo, account)
	if err != nil {
		return nil, NewBusinessError("UPDATE_PROFILE_FAILED", "Failed to update profile", err)
	}

	return &dto.UpdateProfileResponse{
		Message: "Profile updated successfully",
		Account: BuildProfileView(*account, linked, managed),
	}, nil
}

// ChangePassword verifies the current password before replacing the hash.
// Existing sessions stay valid.
func (s *ProfileFlowImpl) ChangePassword(ctx context.Context, accountID uint, req *dto.ChangePasswordRequest, metadata *ClientMetadata) (*dto.ChangePasswordResponse, error) {
	account, err := s.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("CHANGE_PASSWORD_FAILED", "Failed to change password", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		errMsg := fmt.Sprintf("Password change rejected: current password mismatch for account %d", account.ID)
		_ = s.createAuditLog(ctx, account, models.AuditActionPasswordChanged, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("INCORRECT_PASSWORD", "Current password is incorrect", ErrIncorrectPassword)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewBusinessError("CHANGE_PASSWORD_FAILED", "Failed to change password", err)
	}

	if err := s.accountRepo.UpdatePassword(ctx, account.ID, string(hashedPassword)); err != nil {
		return nil, NewBusinessError("CHANGE_PASSWORD_FAILED", "Failed to change password", err)
	}

	changedAt := utils.UTCNow()
	_ = s.createAuditLog(ctx, account, models.AuditActionPasswordChanged, fmt.Sprintf("Password changed: %d", account.ID), true, nil, metadata)

	return &dto.ChangePasswordResponse{
		Message:           "Password changed successfully",
		PasswordChangedAt: changedAt.Format(time.RFC3339),
	}, nil
}

// DeleteAccount removes the caller's own account with full cascade and revokes
// the presenting token so it cannot outlive the account. Self-deletion is
// always allowed here, including for admins.
func (s *ProfileFlowImpl) DeleteAccount(ctx context.Context, accountID uint, token string, metadata *ClientMetadata) (*dto.DeleteAccountResponse, error) {
	account, err := s.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("DELETE_ACCOUNT_FAILED", "Failed to delete account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return cascadeDeleteAccount(txCtx, account, s.accountRepo, s.businessRepo, s.sessionRepo)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Account deletion failed: %s", err.Error())
		_ = s.createAuditLog(ctx, account, models.AuditActionAccountDeleted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("DELETE_ACCOUNT_FAILED", "Failed to delete account", err)
	}

	if err := s.tokenService.RevokeToken(ctx, token); err != nil {
		// The account is already gone; a failed revocation only leaves a
		// token that resolves to nothing.
		errMsg := fmt.Sprintf("Token revocation after deletion failed: %v", err)
		_ = s.createAuditLog(ctx, nil, models.AuditActionAccountDeleted, errMsg, false, &errMsg, metadata)
	}

	_ = s.createAuditLog(ctx, nil, models.AuditActionAccountDeleted, fmt.Sprintf("Account deleted: %d", accountID), true, nil, metadata)

	return &dto.DeleteAccountResponse{
		Message: "Account deleted successfully",
		Deleted: true,
	}, nil
}

func (s *ProfileFlowImpl) createAuditLog(ctx context.Context, account *models.Account, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return createAuditLog(ctx, s.auditRepo, account, action, description, success, errorMsg, metadata)
}
