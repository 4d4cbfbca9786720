// Package businessflow contains the core business logic and use cases for account and business workflows
package businessflow

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"gorm.io/gorm"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/app/services"
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	"github.com/guideapp/guide-backend/utils"
)

// LoginFlow handles authentication business logic
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	BusinessLogin(ctx context.Context, req *dto.BusinessLoginRequest, metadata *ClientMetadata) (*dto.BusinessLoginResponse, error)
	Logout(ctx context.Context, accountID uint, token string, metadata *ClientMetadata) (*dto.LogoutResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	accountRepo  repository.AccountRepository
	businessRepo repository.BusinessRepository
	sessionRepo  repository.AccountSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	accountRepo repository.AccountRepository,
	businessRepo repository.BusinessRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		accountRepo:  accountRepo,
		businessRepo: businessRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// Login authenticates by username with an email fallback for legacy clients.
// Lookup misses and password mismatches produce the same error, so callers
// cannot probe which usernames exist.
func (s *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	account, err := s.accountRepo.ByUsername(ctx, req.Identifier)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	if account == nil {
		account, err = s.accountRepo.ByEmail(ctx, req.Identifier)
		if err != nil {
			return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
		}
	}

	if account == nil {
		errMsg := fmt.Sprintf("Login failed: no account for identifier %q", req.Identifier)
		_ = s.createAuditLog(ctx, nil, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid credentials", ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		errMsg := fmt.Sprintf("Login failed: password mismatch for account %d", account.ID)
		_ = s.createAuditLog(ctx, account, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid credentials", ErrInvalidCredentials)
	}

	now := utils.UTCNow()
	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	account.LastLoginAt = &now

	accessToken, refreshToken, err := s.tokenService.GenerateTokens(account.ID, account.Username, account.Email, account.Roles())
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue session credentials", err)
	}

	session, err := createSession(ctx, s.sessionRepo, account.ID, accessToken, refreshToken, metadata)
	if err != nil {
		return nil, NewBusinessError("SESSION_CREATION_FAILED", "Failed to create session", err)
	}

	_ = s.createAuditLog(ctx, account, models.AuditActionLoginSuccess, fmt.Sprintf("Login successful: %d", account.ID), true, nil, metadata)

	linked, managed, err := loadVariantBusinesses(ctx, s.businessRepo, account)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	return &dto.LoginResponse{
		Message: "Login successful",
		Account: BuildProfileView(*account, linked, managed),
		Session: ToSessionDTO(*session),
	}, nil
}

// BusinessLogin authenticates a dedicated business login. The linked business
// must be approved; pending and denied businesses are told so explicitly.
func (s *LoginFlowImpl) BusinessLogin(ctx context.Context, req *dto.BusinessLoginRequest, metadata *ClientMetadata) (*dto.BusinessLoginResponse, error) {
	account, err := s.accountRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("BUSINESS_LOGIN_FAILED", "Business login failed", err)
	}

	if account == nil || !account.IsBusinessAccount() || account.BusinessID == nil {
		errMsg := fmt.Sprintf("Business login failed: no business account for username %q", req.Username)
		_ = s.createAuditLog(ctx, nil, models.AuditActionBusinessLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid credentials", ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		errMsg := fmt.Sprintf("Business login failed: password mismatch for account %d", account.ID)
		_ = s.createAuditLog(ctx, account, models.AuditActionBusinessLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid credentials", ErrInvalidCredentials)
	}

	business, err := s.businessRepo.ByID(ctx, *account.BusinessID)
	if err != nil {
		return nil, NewBusinessError("BUSINESS_LOGIN_FAILED", "Business login failed", err)
	}
	if business == nil {
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid credentials", ErrInvalidCredentials)
	}

	if !business.IsApproved() {
		errMsg := fmt.Sprintf("Business login rejected: business %d is %s", business.ID, business.Status)
		_ = s.createAuditLog(ctx, account, models.AuditActionBusinessLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("BUSINESS_NOT_APPROVED", "Business is not approved", ErrBusinessNotApproved)
	}

	now := utils.UTCNow()
	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, NewBusinessError("BUSINESS_LOGIN_FAILED", "Business login failed", err)
	}
	account.LastLoginAt = &now

	accessToken, refreshToken, err := s.tokenService.GenerateTokens(account.ID, account.Username, account.Email, account.Roles())
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue session credentials", err)
	}

	session, err := createSession(ctx, s.sessionRepo, account.ID, accessToken, refreshToken, metadata)
	if err != nil {
		return nil, NewBusinessError("SESSION_CREATION_FAILED", "Failed to create session", err)
	}

	_ = s.createAuditLog(ctx, account, models.AuditActionBusinessLoginSuccess, fmt.Sprintf("Business login successful: %d", account.ID), true, nil, metadata)

	return &dto.BusinessLoginResponse{
		Message:  "Business login successful",
		Account:  BuildProfileView(*account, business, nil),
		Business: ToBusinessSummaryDTO(*business, true),
		Session:  ToSessionDTO(*session),
	}, nil
}

// Logout revokes the presented token and deactivates its session record.
func (s *LoginFlowImpl) Logout(ctx context.Context, accountID uint, token string, metadata *ClientMetadata) (*dto.LogoutResponse, error) {
	if err := s.tokenService.RevokeToken(ctx, token); err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}

	session, err := s.sessionRepo.BySessionToken(ctx, token)
	if err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}
	if session != nil {
		session.IsActive = utils.ToPtr(false)
		session.ExpiresAt = utils.UTCNow()
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
		}
	}

	account := &models.Account{ID: accountID}
	_ = s.createAuditLog(ctx, account, models.AuditActionLogout, fmt.Sprintf("Logout: %d", accountID), true, nil, metadata)

	return &dto.LogoutResponse{
		Message:   "Logged out successfully",
		LoggedOut: true,
	}, nil
}

func (s *LoginFlowImpl) createAuditLog(ctx context.Context, account *models.Account, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return createAuditLog(ctx, s.auditRepo, account, action, description, success, errorMsg, metadata)
}

// loadVariantBusinesses fetches the business referenced by a business-variant
// or sub-manager account, when one is linked.
func loadVariantBusinesses(ctx context.Context, businessRepo repository.BusinessRepository, account *models.Account) (linked, managed *models.Business, err error) {
	if account.BusinessID != nil {
		linked, err = businessRepo.ByID(ctx, *account.BusinessID)
		if err != nil {
			return nil, nil, err
		}
	}
	if account.ManagedBusinessID != nil {
		managed, err = businessRepo.ByID(ctx, *account.ManagedBusinessID)
		if err != nil {
			return nil, nil, err
		}
	}
	return linked, managed, nil
}
