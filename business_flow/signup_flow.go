// Package businessflow contains the core business logic and use cases for account and business workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/app/services"
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	"github.com/guideapp/guide-backend/utils"
)

// SignupFlow handles the complete registration business logic
type SignupFlow interface {
	Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error)
}

// SignupFlowImpl implements the registration business flow
type SignupFlowImpl struct {
	accountRepo     repository.AccountRepository
	accountTypeRepo repository.AccountTypeRepository
	businessRepo    repository.BusinessRepository
	sessionRepo     repository.AccountSessionRepository
	auditRepo       repository.AuditLogRepository
	tokenService    services.TokenService
	db              *gorm.DB
}

// NewSignupFlow creates a new signup flow instance
func NewSignupFlow(
	accountRepo repository.AccountRepository,
	accountTypeRepo repository.AccountTypeRepository,
	businessRepo repository.BusinessRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) SignupFlow {
	return &SignupFlowImpl{
		accountRepo:     accountRepo,
		accountTypeRepo: accountTypeRepo,
		businessRepo:    businessRepo,
		sessionRepo:     sessionRepo,
		auditRepo:       auditRepo,
		tokenService:    tokenService,
		db:              db,
	}
}

// Register creates an account of the requested variant, attaches the variant
// payload, and issues session credentials. A business registration with a
// business name also files the pending business application in the same
// transaction, so a half-registered business can never be observed.
func (s *SignupFlowImpl) Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error) {
	typeName := models.NormalizeAccountType(req.AccountType)

	if err := s.validateRegisterRequest(ctx, req, typeName); err != nil {
		return nil, NewBusinessError("REGISTRATION_VALIDATION_FAILED", "Registration validation failed", err)
	}

	var account *models.Account
	var business *models.Business

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		account, err = s.createAccount(txCtx, req, typeName)
		if err != nil {
			return err
		}

		if typeName == models.AccountTypeBusiness && req.BusinessName != nil {
			business, err = s.createPendingBusiness(txCtx, account, req)
			if err != nil {
				return err
			}

			// Link the fresh business so the profile view can show it
			account.BusinessID = &business.ID
			if err := s.accountRepo.Update(txCtx, account); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Registration failed: %s", err.Error())
		_ = s.createAuditLog(ctx, account, models.AuditActionSignupFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	msg := fmt.Sprintf("Registration completed: %d", account.ID)
	_ = s.createAuditLog(ctx, account, models.AuditActionSignupCompleted, msg, true, nil, metadata)

	accessToken, refreshToken, err := s.tokenService.GenerateTokens(account.ID, account.Username, account.Email, account.Roles())
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue session credentials", err)
	}

	session, err := createSession(ctx, s.sessionRepo, account.ID, accessToken, refreshToken, metadata)
	if err != nil {
		return nil, NewBusinessError("SESSION_CREATION_FAILED", "Failed to create session", err)
	}

	return &dto.RegisterResponse{
		Message: "Registration completed successfully.",
		Account: BuildProfileView(*account, business, nil),
		Session: ToSessionDTO(*session),
	}, nil
}

func (s *SignupFlowImpl) validateRegisterRequest(ctx context.Context, req *dto.RegisterRequest, typeName string) error {
	// Uniqueness is checked before creation; the DB constraints remain the
	// backstop for races.
	existing, err := s.accountRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameAlreadyExists
	}

	existing, err = s.accountRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyExists
	}

	switch typeName {
	case models.AccountTypeAdmin:
		if req.DepartmentName == nil || strings.TrimSpace(*req.DepartmentName) == "" {
			return ErrDepartmentNameRequired
		}
	case models.AccountTypeCityAdmin:
		if req.CityName == nil || strings.TrimSpace(*req.CityName) == "" ||
			req.CityPosition == nil || strings.TrimSpace(*req.CityPosition) == "" {
			return ErrCityFieldsRequired
		}
	case models.AccountTypeBusiness:
		if req.BusinessName == nil || strings.TrimSpace(*req.BusinessName) == "" ||
			req.BusinessLicense == nil || strings.TrimSpace(*req.BusinessLicense) == "" {
			return ErrBusinessFieldsRequired
		}
	}

	return nil
}

func (s *SignupFlowImpl) createAccount(ctx context.Context, req *dto.RegisterRequest, typeName string) (*models.Account, error) {
	accountType, err := s.accountTypeRepo.ByTypeName(ctx, typeName)
	if err != nil {
		return nil, err
	}
	if accountType == nil {
		return nil, ErrAccountTypeNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		UUID:          uuid.New(),
		AccountTypeID: accountType.ID,
		Username:      strings.ToLower(strings.TrimSpace(req.Username)),
		Email:         strings.TrimSpace(req.Email),
		PasswordHash:  string(hashedPassword),
		FullName:      req.FullName,
		PhoneNumber:   req.PhoneNumber,
		Location:      req.Location,
		Address:       req.Address,
		ProfileImage:  req.ProfileImage,
	}

	switch typeName {
	case models.AccountTypeAdmin:
		account.DepartmentName = req.DepartmentName
	case models.AccountTypeCityAdmin:
		account.CityName = req.CityName
		account.CityPosition = req.CityPosition
	case models.AccountTypeRegularUser:
		account.MemberSince = utils.UTCNowPtr()
		account.IsActive = utils.ToPtr(true)
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	account.AccountType = *accountType
	return account, nil
}

func (s *SignupFlowImpl) createPendingBusiness(ctx context.Context, owner *models.Account, req *dto.RegisterRequest) (*models.Business, error) {
	business := &models.Business{
		UUID:          uuid.New(),
		Name:          strings.TrimSpace(*req.BusinessName),
		LicenseNumber: derefString(req.BusinessLicense),
		PhoneNumber:   derefString(req.BusinessPhone),
		Address:       derefString(req.BusinessAddress),
		OwnerID:       owner.ID,
		Status:        models.BusinessStatusPending,
	}

	if err := s.businessRepo.Save(ctx, business); err != nil {
		return nil, err
	}

	return business, nil
}

func (s *SignupFlowImpl) createAuditLog(ctx context.Context, account *models.Account, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return createAuditLog(ctx, s.auditRepo, account, action, description, success, errorMsg, metadata)
}
