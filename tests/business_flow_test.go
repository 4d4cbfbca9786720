// Package tests contains integration tests for the business lifecycle flow
package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/guideapp/guide-backend/app/dto"
	businessflow "github.com/guideapp/guide-backend/business_flow"
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	testingutil "github.com/guideapp/guide-backend/testing"
	"github.com/guideapp/guide-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessLifecycleFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// Initialize repositories
		accountRepo := repository.NewAccountRepository(testDB.DB)
		accountTypeRepo := repository.NewAccountTypeRepository(testDB.DB)
		businessRepo := repository.NewBusinessRepository(testDB.DB)
		sessionRepo := repository.NewAccountSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		lifecycleFlow := businessflow.NewBusinessLifecycleFlow(
			accountRepo,
			accountTypeRepo,
			businessRepo,
			sessionRepo,
			auditRepo,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("CreateBusinessStartsPending", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			result, err := lifecycleFlow.CreateBusiness(context.Background(), owner.ID, &dto.CreateBusinessRequest{
				Name:          "  Caspian Cafe  ",
				PhoneNumber:   "+982188776655",
				LicenseNumber: "LIC-778899",
				Address:       "12 Valiasr St",
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, "Caspian Cafe", result.Name)
			assert.Equal(t, owner.ID, result.OwnerID)
			assert.Equal(t, models.BusinessStatusPending, result.Status)
			assert.False(t, result.HasAccount)
		})

		t.Run("CreateBusinessRequiresName", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			result, err := lifecycleFlow.CreateBusiness(context.Background(), owner.ID, &dto.CreateBusinessRequest{
				Name: "   ",
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsBusinessNameRequired(err))
		})

		t.Run("CreateBusinessLinksUnlinkedBusinessAccount", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeBusiness)
			require.NoError(t, err)
			require.Nil(t, owner.BusinessID)

			result, err := lifecycleFlow.CreateBusiness(context.Background(), owner.ID, &dto.CreateBusinessRequest{
				Name: "Linked Bistro",
			}, metadata)
			require.NoError(t, err)

			refreshed, err := accountRepo.ByID(context.Background(), owner.ID)
			require.NoError(t, err)
			require.NotNil(t, refreshed.BusinessID)
			assert.Equal(t, result.ID, *refreshed.BusinessID)
		})

		t.Run("ListMineReturnsOnlyOwnBusinesses", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			other, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			mine, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusPending)
			require.NoError(t, err)
			_, err = fixtures.CreateTestBusiness(other.ID, models.BusinessStatusPending)
			require.NoError(t, err)

			result, err := lifecycleFlow.ListMine(context.Background(), owner.ID)
			require.NoError(t, err)
			require.Len(t, result, 1)
			assert.Equal(t, mine.ID, result[0].ID)
		})

		t.Run("ListPendingIncludesOwnerContact", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			require.NoError(t, testDB.InsertTestAccountTypes())

			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			pending, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusPending)
			require.NoError(t, err)
			_, err = fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			result, err := lifecycleFlow.ListPending(context.Background())
			require.NoError(t, err)
			require.Len(t, result, 1)
			assert.Equal(t, pending.ID, result[0].Business.ID)
			assert.Equal(t, owner.ID, result[0].Owner.ID)
			assert.Equal(t, owner.Email, result[0].Owner.Email)
		})

		t.Run("UpdateBusinessAppliesPartialEdit", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			result, err := lifecycleFlow.UpdateBusiness(context.Background(), business.ID, owner.ID, &dto.UpdateBusinessRequest{
				Name:    utils.ToPtr("Renamed Cafe"),
				Address: utils.ToPtr("New Address 5"),
			}, metadata)
			require.NoError(t, err)

			assert.Equal(t, "Renamed Cafe", result.Name)
			assert.Equal(t, "New Address 5", result.Address)

			// Untouched fields survive
			assert.Equal(t, business.PhoneNumber, result.PhoneNumber)
			assert.Equal(t, business.Status, result.Status)
		})

		t.Run("UpdateBusinessByNonOwnerReadsAsNotFound", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			stranger, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			result, err := lifecycleFlow.UpdateBusiness(context.Background(), business.ID, stranger.ID, &dto.UpdateBusinessRequest{
				Name: utils.ToPtr("Hijack"),
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsBusinessNotFound(err))
		})

		t.Run("ApproveAndDenyOverwriteStatus", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusPending)
			require.NoError(t, err)

			approved, err := lifecycleFlow.Approve(context.Background(), business.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.BusinessStatusApproved, approved.Business.Status)

			denied, err := lifecycleFlow.Deny(context.Background(), business.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.BusinessStatusDenied, denied.Business.Status)

			refreshed, err := businessRepo.ByID(context.Background(), business.ID)
			require.NoError(t, err)
			assert.Equal(t, models.BusinessStatusDenied, refreshed.Status)
		})

		t.Run("ReviewUnknownBusinessFails", func(t *testing.T) {
			_, err := lifecycleFlow.Approve(context.Background(), 999999, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessNotFound(err))
		})

		t.Run("CreateDedicatedAccountGuards", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			stranger, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusPending)
			require.NoError(t, err)

			req := &dto.CreateBusinessAccountRequest{
				Username: fmt.Sprintf("biz.login.%d", business.ID),
				Password: "SecurePass123!",
			}

			_, err = lifecycleFlow.CreateDedicatedAccount(context.Background(), 999999, owner.ID, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessNotFound(err))

			_, err = lifecycleFlow.CreateDedicatedAccount(context.Background(), business.ID, stranger.ID, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsNotBusinessOwner(err))

			_, err = lifecycleFlow.CreateDedicatedAccount(context.Background(), business.ID, owner.ID, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessNotApproved(err))
		})

		t.Run("CreateDedicatedAccountSucceedsOnceApproved", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			username := fmt.Sprintf("Dedicated.%d", business.ID)
			result, err := lifecycleFlow.CreateDedicatedAccount(context.Background(), business.ID, owner.ID, &dto.CreateBusinessAccountRequest{
				Username: username,
				Password: "SecurePass123!",
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			// Username is normalized, email synthesized from it
			normalized := fmt.Sprintf("dedicated.%d", business.ID)
			assert.Equal(t, normalized, result.Account.Username)
			assert.Equal(t, fmt.Sprintf("%s@business.local", normalized), result.Account.Email)
			assert.Equal(t, models.AccountTypeBusiness, result.Account.AccountType)

			assert.True(t, result.Business.HasAccount)
			require.NotNil(t, result.Business.BusinessUsername)
			assert.Equal(t, normalized, *result.Business.BusinessUsername)

			// The business row records the linked account
			refreshed, err := businessRepo.ByID(context.Background(), business.ID)
			require.NoError(t, err)
			require.NotNil(t, refreshed.AccountID)
			assert.Equal(t, result.Account.ID, *refreshed.AccountID)

			// Only one dedicated login per business
			_, err = lifecycleFlow.CreateDedicatedAccount(context.Background(), business.ID, owner.ID, &dto.CreateBusinessAccountRequest{
				Username: "second.attempt",
				Password: "SecurePass123!",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsAlreadyHasAccount(err))
		})

		t.Run("CreateDedicatedAccountRejectsTakenUsername", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			_, err = lifecycleFlow.CreateDedicatedAccount(context.Background(), business.ID, owner.ID, &dto.CreateBusinessAccountRequest{
				Username: owner.Username,
				Password: "SecurePass123!",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsUsernameAlreadyExists(err))
		})

		t.Run("CreateDedicatedAccountRejectsUsernameStampedOnAnotherBusiness", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			// Another business already carries this username on its own row
			other, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)
			other.BusinessUsername = utils.ToPtr("stamped.name")
			require.NoError(t, businessRepo.Update(context.Background(), other))

			_, err = lifecycleFlow.CreateDedicatedAccount(context.Background(), business.ID, owner.ID, &dto.CreateBusinessAccountRequest{
				Username: "Stamped.Name",
				Password: "SecurePass123!",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsUsernameAlreadyExists(err))
		})

		t.Run("DeleteBusinessCascades", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeBusiness)
			require.NoError(t, err)

			created, err := lifecycleFlow.CreateBusiness(context.Background(), owner.ID, &dto.CreateBusinessRequest{
				Name: "Doomed Diner",
			}, metadata)
			require.NoError(t, err)

			_, err = lifecycleFlow.Approve(context.Background(), created.ID, metadata)
			require.NoError(t, err)

			dedicated, err := lifecycleFlow.CreateDedicatedAccount(context.Background(), created.ID, owner.ID, &dto.CreateBusinessAccountRequest{
				Username: fmt.Sprintf("doomed.%d", created.ID),
				Password: "SecurePass123!",
			}, metadata)
			require.NoError(t, err)

			require.NoError(t, lifecycleFlow.DeleteBusiness(context.Background(), created.ID, owner.ID, metadata))

			// Business row is gone
			gone, err := businessRepo.ByID(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)

			// Dedicated login is gone, the owner account survives unlinked
			deadLogin, err := accountRepo.ByID(context.Background(), dedicated.Account.ID)
			require.NoError(t, err)
			assert.Nil(t, deadLogin)

			survivor, err := accountRepo.ByID(context.Background(), owner.ID)
			require.NoError(t, err)
			require.NotNil(t, survivor)
			assert.Nil(t, survivor.BusinessID)
		})

		t.Run("DeleteBusinessReleasesSubManager", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			subManager, err := fixtures.CreateTestAccount(models.AccountTypeSubManager)
			require.NoError(t, err)
			subManager.ManagedBusinessID = &business.ID
			require.NoError(t, accountRepo.Update(context.Background(), subManager))
			business.SubManagerID = &subManager.ID
			require.NoError(t, businessRepo.Update(context.Background(), business))

			require.NoError(t, lifecycleFlow.DeleteBusiness(context.Background(), business.ID, owner.ID, metadata))

			// The sub-manager account survives, released from the business
			released, err := accountRepo.ByID(context.Background(), subManager.ID)
			require.NoError(t, err)
			require.NotNil(t, released)
			assert.Nil(t, released.ManagedBusinessID)
		})

		t.Run("DeleteBusinessByNonOwnerReadsAsNotFound", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			stranger, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			err = lifecycleFlow.DeleteBusiness(context.Background(), business.ID, stranger.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
