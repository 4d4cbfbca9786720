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
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	"github.com/guideapp/guide-backend/utils"
)

// BusinessLifecycleFlow handles the business application lifecycle: creation,
// review, owner edits, deletion, and dedicated-account provisioning.
type BusinessLifecycleFlow interface {
	CreateBusiness(ctx context.Context, ownerID uint, req *dto.CreateBusinessRequest, metadata *ClientMetadata) (*dto.BusinessDTO, error)
	ListPending(ctx context.Context) ([]dto.PendingBusinessDTO, error)
	ListMine(ctx context.Context, ownerID uint) ([]dto.BusinessDTO, error)
	UpdateBusiness(ctx context.Context, businessID, ownerID uint, req *dto.UpdateBusinessRequest, metadata *ClientMetadata) (*dto.BusinessDTO, error)
	DeleteBusiness(ctx context.Context, businessID, ownerID uint, metadata *ClientMetadata) error
	Approve(ctx context.Context, businessID uint, metadata *ClientMetadata) (*dto.BusinessStatusResponse, error)
	Deny(ctx context.Context, businessID uint, metadata *ClientMetadata) (*dto.BusinessStatusResponse, error)
	CreateDedicatedAccount(ctx context.Context, businessID, requestedBy uint, req *dto.CreateBusinessAccountRequest, metadata *ClientMetadata) (*dto.CreateBusinessAccountResponse, error)
}

// BusinessLifecycleFlowImpl implements the business lifecycle flow
type BusinessLifecycleFlowImpl struct {
	accountRepo     repository.AccountRepository
	accountTypeRepo repository.AccountTypeRepository
	businessRepo    repository.BusinessRepository
	sessionRepo     repository.AccountSessionRepository
	auditRepo       repository.AuditLogRepository
	db              *gorm.DB
}

// NewBusinessLifecycleFlow creates a new business lifecycle flow instance
func NewBusinessLifecycleFlow(
	accountRepo repository.AccountRepository,
	accountTypeRepo repository.AccountTypeRepository,
	businessRepo repository.BusinessRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) BusinessLifecycleFlow {
	return &BusinessLifecycleFlowImpl{
		accountRepo:     accountRepo,
		accountTypeRepo: accountTypeRepo,
		businessRepo:    businessRepo,
		sessionRepo:     sessionRepo,
		auditRepo:       auditRepo,
		db:              db,
	}
}

// CreateBusiness files a new business application. Status always starts
// Pending regardless of the request. When the owner is an unlinked
// business-variant account, the new business becomes its linked business.
func (s *BusinessLifecycleFlowImpl) CreateBusiness(ctx context.Context, ownerID uint, req *dto.CreateBusinessRequest, metadata *ClientMetadata) (*dto.BusinessDTO, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewBusinessError("BUSINESS_VALIDATION_FAILED", "Business validation failed", ErrBusinessNameRequired)
	}

	owner, err := s.accountRepo.ByID(ctx, ownerID)
	if err != nil {
		return nil, NewBusinessError("CREATE_BUSINESS_FAILED", "Failed to create business", err)
	}
	if owner == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	business := &models.Business{
		UUID:          uuid.New(),
		Name:          strings.TrimSpace(req.Name),
		PhoneNumber:   req.PhoneNumber,
		LicenseNumber: req.LicenseNumber,
		Address:       req.Address,
		ProfileImage:  req.ProfileImage,
		OwnerID:       ownerID,
		Status:        models.BusinessStatusPending,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.businessRepo.Save(txCtx, business); err != nil {
			return err
		}

		if owner.IsBusinessAccount() && owner.BusinessID == nil {
			owner.BusinessID = &business.ID
			if err := s.accountRepo.Update(txCtx, owner); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		errMsg := fmt.Sprintf("Business creation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, owner, models.AuditActionBusinessCreated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CREATE_BUSINESS_FAILED", "Failed to create business", err)
	}

	_ = s.createAuditLog(ctx, owner, models.AuditActionBusinessCreated, fmt.Sprintf("Business created: %d", business.ID), true, nil, metadata)

	result := ToBusinessDTO(*business)
	return &result, nil
}

// ListPending returns the review queue with applicant contact details,
// longest-waiting first.
func (s *BusinessLifecycleFlowImpl) ListPending(ctx context.Context) ([]dto.PendingBusinessDTO, error) {
	businesses, err := s.businessRepo.ListPending(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_PENDING_FAILED", "Failed to list pending businesses", err)
	}

	result := make([]dto.PendingBusinessDTO, 0, len(businesses))
	for _, business := range businesses {
		entry := dto.PendingBusinessDTO{
			Business: ToBusinessDTO(*business),
		}
		if business.Owner != nil {
			entry.Owner = ToOwnerContactDTO(*business.Owner)
		}
		result = append(result, entry)
	}

	return result, nil
}

// ListMine returns the caller's businesses with status and account flags.
func (s *BusinessLifecycleFlowImpl) ListMine(ctx context.Context, ownerID uint) ([]dto.BusinessDTO, error) {
	businesses, err := s.businessRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, NewBusinessError("LIST_BUSINESSES_FAILED", "Failed to list businesses", err)
	}

	result := make([]dto.BusinessDTO, 0, len(businesses))
	for _, business := range businesses {
		result = append(result, ToBusinessDTO(*business))
	}

	return result, nil
}

// UpdateBusiness applies a partial edit of the descriptive fields. A business
// the caller does not own reads as not found, so ownership is never leaked.
func (s *BusinessLifecycleFlowImpl) UpdateBusiness(ctx context.Context, businessID, ownerID uint, req *dto.UpdateBusinessRequest, metadata *ClientMetadata) (*dto.BusinessDTO, error) {
	business, err := s.businessRepo.ByID(ctx, businessID)
	if err != nil {
		return nil, NewBusinessError("UPDATE_BUSINESS_FAILED", "Failed to update business", err)
	}
	if business == nil || business.OwnerID != ownerID {
		return nil, NewBusinessError("BUSINESS_NOT_FOUND", "Business not found", ErrBusinessNotFound)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, NewBusinessError("BUSINESS_VALIDATION_FAILED", "Business validation failed", ErrBusinessNameRequired)
		}
		business.Name = strings.TrimSpace(*req.Name)
	}
	if req.PhoneNumber != nil {
		business.PhoneNumber = *req.PhoneNumber
	}
	if req.LicenseNumber != nil {
		business.LicenseNumber = *req.LicenseNumber
	}
	if req.Address != nil {
		business.Address = *req.Address
	}

	business.UpdatedAt = utils.UTCNow()
	if err := s.businessRepo.Update(ctx, business); err != nil {
		return nil, NewBusinessError("UPDATE_BUSINESS_FAILED", "Failed to update business", err)
	}

	_ = s.createAuditLog(ctx, &models.Account{ID: ownerID}, models.AuditActionBusinessUpdated, fmt.Sprintf("Business updated: %d", business.ID), true, nil, metadata)

	result := ToBusinessDTO(*business)
	return &result, nil
}

// DeleteBusiness removes an owned business, taking its dedicated login
// account along and releasing its sub-manager. The owner account is untouched.
func (s *BusinessLifecycleFlowImpl) DeleteBusiness(ctx context.Context, businessID, ownerID uint, metadata *ClientMetadata) error {
	business, err := s.businessRepo.ByID(ctx, businessID)
	if err != nil {
		return NewBusinessError("DELETE_BUSINESS_FAILED", "Failed to delete business", err)
	}
	if business == nil || business.OwnerID != ownerID {
		return NewBusinessError("BUSINESS_NOT_FOUND", "Business not found", ErrBusinessNotFound)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		// The owner may be linked to this business as an unlinked
		// business-variant registration; release the reference first.
		owner, err := s.accountRepo.ByID(txCtx, ownerID)
		if err != nil {
			return err
		}
		if owner != nil && owner.BusinessID != nil && *owner.BusinessID == business.ID {
			owner.BusinessID = nil
			if err := s.accountRepo.Update(txCtx, owner); err != nil {
				return err
			}
		}

		return cascadeDeleteBusiness(txCtx, business, s.accountRepo, s.businessRepo, s.sessionRepo)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Business deletion failed: %s", err.Error())
		_ = s.createAuditLog(ctx, &models.Account{ID: ownerID}, models.AuditActionBusinessDeleted, errMsg, false, &errMsg, metadata)

		return NewBusinessError("DELETE_BUSINESS_FAILED", "Failed to delete business", err)
	}

	_ = s.createAuditLog(ctx, &models.Account{ID: ownerID}, models.AuditActionBusinessDeleted, fmt.Sprintf("Business deleted: %d", businessID), true, nil, metadata)
	return nil
}

// Approve marks a business approved. The status is overwritten as-is: the
// review decision is whatever the admin last said.
func (s *BusinessLifecycleFlowImpl) Approve(ctx context.Context, businessID uint, metadata *ClientMetadata) (*dto.BusinessStatusResponse, error) {
	return s.decide(ctx, businessID, models.BusinessStatusApproved, models.AuditActionBusinessApproved, metadata)
}

// Deny marks a business denied. Re-submission means filing a new business.
func (s *BusinessLifecycleFlowImpl) Deny(ctx context.Context, businessID uint, metadata *ClientMetadata) (*dto.BusinessStatusResponse, error) {
	return s.decide(ctx, businessID, models.BusinessStatusDenied, models.AuditActionBusinessDenied, metadata)
}

func (s *BusinessLifecycleFlowImpl) decide(ctx context.Context, businessID uint, status, auditAction string, metadata *ClientMetadata) (*dto.BusinessStatusResponse, error) {
	business, err := s.businessRepo.ByID(ctx, businessID)
	if err != nil {
		return nil, NewBusinessErrorf("REVIEW_FAILED", "Failed to review business %d", err, businessID)
	}
	if business == nil {
		return nil, NewBusinessError("BUSINESS_NOT_FOUND", "Business not found", ErrBusinessNotFound)
	}

	if err := s.businessRepo.UpdateStatus(ctx, business.ID, status); err != nil {
		return nil, NewBusinessErrorf("REVIEW_FAILED", "Failed to review business %d", err, businessID)
	}
	business.Status = status

	_ = s.createAuditLog(ctx, nil, auditAction, fmt.Sprintf("Business %d marked %s", business.ID, status), true, nil, metadata)

	return &dto.BusinessStatusResponse{
		Message:  fmt.Sprintf("Business %s", strings.ToLower(status)),
		Business: ToBusinessDTO(*business),
	}, nil
}

// CreateDedicatedAccount provisions the single business login for an approved
// business. Only the owner may provision it, only after approval, and only
// once.
func (s *BusinessLifecycleFlowImpl) CreateDedicatedAccount(ctx context.Context, businessID, requestedBy uint, req *dto.CreateBusinessAccountRequest, metadata *ClientMetadata) (*dto.CreateBusinessAccountResponse, error) {
	business, err := s.businessRepo.ByID(ctx, businessID)
	if err != nil {
		return nil, NewBusinessError("CREATE_BUSINESS_ACCOUNT_FAILED", "Failed to create business account", err)
	}
	if business == nil {
		return nil, NewBusinessError("BUSINESS_NOT_FOUND", "Business not found", ErrBusinessNotFound)
	}

	if business.OwnerID != requestedBy {
		return nil, NewBusinessError("NOT_BUSINESS_OWNER", "Only the owner can create the business account", ErrNotBusinessOwner)
	}

	if !business.IsApproved() {
		return nil, NewBusinessError("BUSINESS_NOT_APPROVED", "Business must be approved first", ErrBusinessNotApproved)
	}

	if business.HasAccount {
		return nil, NewBusinessError("ALREADY_HAS_ACCOUNT", "Business already has a dedicated account", ErrAlreadyHasAccount)
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	existing, err := s.accountRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, NewBusinessError("CREATE_BUSINESS_ACCOUNT_FAILED", "Failed to create business account", err)
	}
	if existing != nil {
		return nil, NewBusinessError("USERNAME_TAKEN", "Username already exists", ErrUsernameAlreadyExists)
	}

	// The username is also stamped on the business row, which carries its own
	// unique index; check that side too before hashing anything.
	taken, err := s.businessRepo.ByBusinessUsername(ctx, username)
	if err != nil {
		return nil, NewBusinessError("CREATE_BUSINESS_ACCOUNT_FAILED", "Failed to create business account", err)
	}
	if taken != nil {
		return nil, NewBusinessError("USERNAME_TAKEN", "Username already exists", ErrUsernameAlreadyExists)
	}

	owner, err := s.accountRepo.ByID(ctx, business.OwnerID)
	if err != nil {
		return nil, NewBusinessError("CREATE_BUSINESS_ACCOUNT_FAILED", "Failed to create business account", err)
	}
	if owner == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	accountType, err := s.accountTypeRepo.ByTypeName(ctx, models.AccountTypeBusiness)
	if err != nil {
		return nil, NewBusinessError("CREATE_BUSINESS_ACCOUNT_FAILED", "Failed to create business account", err)
	}
	if accountType == nil {
		return nil, NewBusinessError("ACCOUNT_TYPE_NOT_FOUND", "Account type not found", ErrAccountTypeNotFound)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewBusinessError("CREATE_BUSINESS_ACCOUNT_FAILED", "Failed to create business account", err)
	}

	email := req.Email
	if email == "" {
		// A dedicated login has no inbox of its own; derive a routable-looking
		// unique address from the business username.
		email = fmt.Sprintf("%s@business.local", username)
	}
	if existingEmail, err := s.accountRepo.ByEmail(ctx, email); err != nil {
		return nil, NewBusinessError("CREATE_BUSINESS_ACCOUNT_FAILED", "Failed to create business account", err)
	} else if existingEmail != nil {
		return nil, NewBusinessError("EMAIL_TAKEN", "Email already exists", ErrEmailAlreadyExists)
	}

	account := &models.Account{
		UUID:          uuid.New(),
		AccountTypeID: accountType.ID,
		Username:      username,
		Email:         email,
		PasswordHash:  string(hashedPassword),
		FullName:      business.Name,
		PhoneNumber:   business.PhoneNumber,
		Location:      owner.Location,
		Address:       business.Address,
		BusinessID:    &business.ID,
	}
	account.AccountType = *accountType

	passwordHash := string(hashedPassword)
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.accountRepo.Save(txCtx, account); err != nil {
			return err
		}

		business.HasAccount = true
		business.BusinessUsername = &username
		business.BusinessPasswordHash = &passwordHash
		business.AccountID = &account.ID
		return s.businessRepo.Update(txCtx, business)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Business account creation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, owner, models.AuditActionBusinessAccountCreated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CREATE_BUSINESS_ACCOUNT_FAILED", "Failed to create business account", err)
	}

	_ = s.createAuditLog(ctx, owner, models.AuditActionBusinessAccountCreated, fmt.Sprintf("Business account created for business %d", business.ID), true, nil, metadata)

	return &dto.CreateBusinessAccountResponse{
		Message:  "Business account created successfully",
		Business: ToBusinessDTO(*business),
		Account:  BuildProfileView(*account, business, nil),
	}, nil
}

func (s *BusinessLifecycleFlowImpl) createAuditLog(ctx context.Context, account *models.Account, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return createAuditLog(ctx, s.auditRepo, account, action, description, success, errorMsg, metadata)
}
