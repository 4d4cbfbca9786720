// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/guideapp/guide-backend/models"
)

// AccountRepositoryImpl implements AccountRepository interface
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

// ByID retrieves an account with its account type preloaded
func (r *AccountRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Account, error) {
	db := r.getDB(ctx)

	var account models.Account
	err := db.Preload("AccountType").Last(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by ID %d: %w", id, err)
	}

	return &account, nil
}

// ByUsername retrieves an account by username. Usernames are stored lowercase,
// so the lookup lowercases the identifier for case-insensitive matching.
func (r *AccountRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.Account, error) {
	db := r.getDB(ctx)

	var account models.Account
	err := db.Preload("AccountType").
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		Last(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}

	return &account, nil
}

// ByEmail retrieves an account by email address
func (r *AccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	db := r.getDB(ctx)

	var account models.Account
	err := db.Preload("AccountType").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Last(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	return &account, nil
}

// ByBusinessID retrieves the dedicated business account linked to a business
func (r *AccountRepositoryImpl) ByBusinessID(ctx context.Context, businessID uint) (*models.Account, error) {
	db := r.getDB(ctx)

	var account models.Account
	err := db.Preload("AccountType").
		Where("business_id = ?", businessID).
		Last(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by business ID: %w", err)
	}

	return &account, nil
}

// ByManagedBusinessID retrieves the sub-manager account managing a business
func (r *AccountRepositoryImpl) ByManagedBusinessID(ctx context.Context, businessID uint) (*models.Account, error) {
	db := r.getDB(ctx)

	var account models.Account
	err := db.Preload("AccountType").
		Where("managed_business_id = ?", businessID).
		Last(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by managed business ID: %w", err)
	}

	return &account, nil
}

// ListAll retrieves accounts with pagination, newest first
func (r *AccountRepositoryImpl) ListAll(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	db := r.getDB(ctx)

	var accounts []*models.Account
	query := db.Preload("AccountType").Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	return accounts, nil
}

// UpdatePassword replaces the stored password hash
func (r *AccountRepositoryImpl) UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update password for account %d: %w", accountID, err)
	}

	return nil
}

// UpdateLastLogin records the most recent successful authentication
func (r *AccountRepositoryImpl) UpdateLastLogin(ctx context.Context, accountID uint, at time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("last_login_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login for account %d: %w", accountID, err)
	}

	return nil
}

func (r *AccountRepositoryImpl) applyFilter(db *gorm.DB, filter models.AccountFilter) *gorm.DB {
	query := db.Model(&models.Account{})

	if filter.ID != nil {
		query = query.Where("accounts.id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("accounts.uuid = ?", *filter.UUID)
	}
	if filter.AccountTypeID != nil {
		query = query.Where("accounts.account_type_id = ?", *filter.AccountTypeID)
	}
	if filter.AccountTypeName != nil {
		query = query.Joins("JOIN account_types ON accounts.account_type_id = account_types.id").
			Where("account_types.type_name = ?", *filter.AccountTypeName)
	}
	if filter.Username != nil {
		query = query.Where("accounts.username = ?", strings.ToLower(*filter.Username))
	}
	if filter.Email != nil {
		query = query.Where("LOWER(accounts.email) = ?", strings.ToLower(*filter.Email))
	}
	if filter.PhoneNumber != nil {
		query = query.Where("accounts.phone_number = ?", *filter.PhoneNumber)
	}
	if filter.BusinessID != nil {
		query = query.Where("accounts.business_id = ?", *filter.BusinessID)
	}
	if filter.ManagedBusinessID != nil {
		query = query.Where("accounts.managed_business_id = ?", *filter.ManagedBusinessID)
	}
	if filter.IsActive != nil {
		query = query.Where("accounts.is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("accounts.created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("accounts.created_at <= ?", *filter.CreatedBefore)
	}

	return query
}

// ByFilter retrieves accounts based on filter criteria
func (r *AccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	query := r.applyFilter(r.getDB(ctx), filter).Preload("AccountType")

	if orderBy == "" {
		orderBy = "accounts.id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var accounts []*models.Account
	err := query.Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find accounts by filter: %w", err)
	}

	return accounts, nil
}

// Count returns the number of accounts matching the filter
func (r *AccountRepositoryImpl) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	return count, nil
}

// Exists checks if any account matching the filter exists
func (r *AccountRepositoryImpl) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
