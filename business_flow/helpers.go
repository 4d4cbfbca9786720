package businessflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	"github.com/guideapp/guide-backend/utils"
)

// createSession persists the issued token pair as an account session record.
func createSession(ctx context.Context, sessionRepo repository.AccountSessionRepository, accountID uint, accessToken, refreshToken string, metadata *ClientMetadata) (*models.AccountSession, error) {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	session := &models.AccountSession{
		CorrelationID: uuid.New(),
		AccountID:     accountID,
		SessionToken:  accessToken,
		RefreshToken:  &refreshToken,
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
		IsActive:      utils.ToPtr(true),
		ExpiresAt:     utils.UTCNowAdd(utils.SessionTimeout),
	}

	if err := sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, account *models.Account, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	var accountID *uint
	if account != nil && account.ID != 0 {
		accountID = &account.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AccountID:    accountID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return auditRepo.Save(ctx, audit)
}

// cascadeDeleteAccount removes an account and everything hanging off it. Owned
// businesses go first, each taking its dedicated login account along and
// releasing its sub-manager. A business-variant account releases the
// dedicated-login columns on its business; a sub-manager releases the managed
// business. Runs inside the caller's transaction context.
func cascadeDeleteAccount(
	ctx context.Context,
	target *models.Account,
	accountRepo repository.AccountRepository,
	businessRepo repository.BusinessRepository,
	sessionRepo repository.AccountSessionRepository,
) error {
	owned, err := businessRepo.ListByOwner(ctx, target.ID)
	if err != nil {
		return err
	}

	for _, business := range owned {
		if err := cascadeDeleteBusiness(ctx, business, accountRepo, businessRepo, sessionRepo); err != nil {
			return err
		}
	}

	// A dedicated business login releases the linked-account columns on its
	// business so the owner can provision a new one.
	if target.BusinessID != nil {
		business, err := businessRepo.ByID(ctx, *target.BusinessID)
		if err != nil {
			return err
		}
		if business != nil && business.AccountID != nil && *business.AccountID == target.ID {
			business.HasAccount = false
			business.BusinessUsername = nil
			business.BusinessPasswordHash = nil
			business.AccountID = nil
			if err := businessRepo.Update(ctx, business); err != nil {
				return err
			}
		}
	}

	if target.ManagedBusinessID != nil {
		business, err := businessRepo.ByID(ctx, *target.ManagedBusinessID)
		if err != nil {
			return err
		}
		if business != nil && business.SubManagerID != nil && *business.SubManagerID == target.ID {
			business.SubManagerID = nil
			if err := businessRepo.Update(ctx, business); err != nil {
				return err
			}
		}
	}

	if err := sessionRepo.ExpireAllAccountSessions(ctx, target.ID); err != nil {
		return err
	}

	return accountRepo.Delete(ctx, target.ID)
}

// cascadeDeleteBusiness removes a business, deleting its dedicated login
// account if one exists and releasing its sub-manager's back-reference.
func cascadeDeleteBusiness(
	ctx context.Context,
	business *models.Business,
	accountRepo repository.AccountRepository,
	businessRepo repository.BusinessRepository,
	sessionRepo repository.AccountSessionRepository,
) error {
	if business.AccountID != nil {
		// Resolve the dedicated login from its own side of the link so a stale
		// account_id column cannot take an unrelated account down with it.
		dedicated, err := accountRepo.ByBusinessID(ctx, business.ID)
		if err != nil {
			return err
		}
		if dedicated != nil && dedicated.ID == *business.AccountID {
			if err := sessionRepo.ExpireAllAccountSessions(ctx, dedicated.ID); err != nil {
				return err
			}
			if err := accountRepo.Delete(ctx, dedicated.ID); err != nil {
				return err
			}
		}
	}

	subManager, err := accountRepo.ByManagedBusinessID(ctx, business.ID)
	if err != nil {
		return err
	}
	if subManager != nil {
		subManager.ManagedBusinessID = nil
		if err := accountRepo.Update(ctx, subManager); err != nil {
			return err
		}
	}

	return businessRepo.Delete(ctx, business.ID)
}
