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

// BusinessRepositoryImpl implements BusinessRepository interface
type BusinessRepositoryImpl struct {
	*BaseRepository[models.Business, models.BusinessFilter]
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &BusinessRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Business, models.BusinessFilter](db),
	}
}

// ListByOwner retrieves all businesses owned by an account, newest first
func (r *BusinessRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Business, error) {
	db := r.getDB(ctx)

	var businesses []*models.Business
	err := db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&businesses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses by owner %d: %w", ownerID, err)
	}

	return businesses, nil
}

// ListPending retrieves all businesses awaiting review, oldest first so
// reviewers see the longest-waiting submissions at the top.
func (r *BusinessRepositoryImpl) ListPending(ctx context.Context) ([]*models.Business, error) {
	db := r.getDB(ctx)

	var businesses []*models.Business
	err := db.Preload("Owner").
		Where("status = ?", models.BusinessStatusPending).
		Order("created_at ASC").
		Find(&businesses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending businesses: %w", err)
	}

	return businesses, nil
}

// ByBusinessUsername retrieves a business by its dedicated login username
func (r *BusinessRepositoryImpl) ByBusinessUsername(ctx context.Context, username string) (*models.Business, error) {
	db := r.getDB(ctx)

	var business models.Business
	err := db.Where("business_username = ?", strings.ToLower(strings.TrimSpace(username))).
		Last(&business).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find business by username: %w", err)
	}

	return &business, nil
}

// UpdateStatus overwrites the review status of a business
func (r *BusinessRepositoryImpl) UpdateStatus(ctx context.Context, businessID uint, status string) error {
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

	err = db.Model(&models.Business{}).
		Where("id = ?", businessID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update status for business %d: %w", businessID, err)
	}

	return nil
}

func (r *BusinessRepositoryImpl) applyFilter(db *gorm.DB, filter models.BusinessFilter) *gorm.DB {
	query := db.Model(&models.Business{})

	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SubManagerID != nil {
		query = query.Where("sub_manager_id = ?", *filter.SubManagerID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.HasAccount != nil {
		query = query.Where("has_account = ?", *filter.HasAccount)
	}
	if filter.BusinessUsername != nil {
		query = query.Where("business_username = ?", strings.ToLower(*filter.BusinessUsername))
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return query
}

// ByFilter retrieves businesses based on filter criteria
func (r *BusinessRepositoryImpl) ByFilter(ctx context.Context, filter models.BusinessFilter, orderBy string, limit, offset int) ([]*models.Business, error) {
	query := r.applyFilter(r.getDB(ctx), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var businesses []*models.Business
	err := query.Find(&businesses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find businesses by filter: %w", err)
	}

	return businesses, nil
}

// Count returns the number of businesses matching the filter
func (r *BusinessRepositoryImpl) Count(ctx context.Context, filter models.BusinessFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}

	return count, nil
}

// Exists checks if any business matching the filter exists
func (r *BusinessRepositoryImpl) Exists(ctx context.Context, filter models.BusinessFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
