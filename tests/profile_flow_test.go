// Package tests contains integration tests for the profile flow
package tests

import (
	"context"
	"testing"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/app/services"
	businessflow "github.com/guideapp/guide-backend/business_flow"
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	testingutil "github.com/guideapp/guide-backend/testing"
	"github.com/guideapp/guide-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// Initialize repositories
		accountRepo := repository.NewAccountRepository(testDB.DB)
		businessRepo := repository.NewBusinessRepository(testDB.DB)
		sessionRepo := repository.NewAccountSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenService := newTestTokenService(t)

		profileFlow := businessflow.NewProfileFlow(
			accountRepo,
			businessRepo,
			sessionRepo,
			auditRepo,
			tokenService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("GetProfileShapesByRole", func(t *testing.T) {
			admin, err := fixtures.CreateTestAccount(models.AccountTypeAdmin)
			require.NoError(t, err)

			view, err := profileFlow.GetProfile(context.Background(), admin.ID)
			require.NoError(t, err)
			require.NotNil(t, view)

			assert.Equal(t, admin.ID, view.ID)
			assert.Equal(t, models.AccountTypeAdmin, view.AccountType)
			require.NotNil(t, view.Admin)
			assert.Nil(t, view.Membership)
			assert.Nil(t, view.Business)
		})

		t.Run("GetProfileIncludesLinkedBusiness", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeBusiness)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(account.ID, models.BusinessStatusApproved)
			require.NoError(t, err)
			account.BusinessID = &business.ID
			require.NoError(t, accountRepo.Update(context.Background(), account))

			view, err := profileFlow.GetProfile(context.Background(), account.ID)
			require.NoError(t, err)
			require.NotNil(t, view.Business)
			assert.Equal(t, business.ID, view.Business.ID)
			assert.Equal(t, models.BusinessStatusApproved, view.Business.Status)
		})

		t.Run("GetProfileUnknownAccountFails", func(t *testing.T) {
			view, err := profileFlow.GetProfile(context.Background(), 999999)
			require.Error(t, err)
			assert.Nil(t, view)
			assert.True(t, businessflow.IsAccountNotFound(err))
		})

		t.Run("UpdateProfilePartialEdit", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			result, err := profileFlow.UpdateProfile(context.Background(), account.ID, &dto.UpdateProfileRequest{
				FullName: utils.ToPtr("Renamed Person"),
				Location: utils.ToPtr("Isfahan"),
			}, metadata)
			require.NoError(t, err)

			assert.Equal(t, "Renamed Person", result.Account.FullName)
			assert.Equal(t, "Isfahan", result.Account.Location)

			// Untouched fields survive
			assert.Equal(t, account.PhoneNumber, result.Account.PhoneNumber)
			assert.Equal(t, account.Email, result.Account.Email)
		})

		t.Run("UpdateProfileNonNilEmptyOverwrites", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			require.NotEmpty(t, account.PhoneNumber)

			result, err := profileFlow.UpdateProfile(context.Background(), account.ID, &dto.UpdateProfileRequest{
				PhoneNumber: utils.ToPtr(""),
			}, metadata)
			require.NoError(t, err)
			assert.Empty(t, result.Account.PhoneNumber)
		})

		t.Run("UpdateProfileVariantFieldsRespectRole", func(t *testing.T) {
			admin, err := fixtures.CreateTestAccount(models.AccountTypeAdmin)
			require.NoError(t, err)

			result, err := profileFlow.UpdateProfile(context.Background(), admin.ID, &dto.UpdateProfileRequest{
				DepartmentName: utils.ToPtr("Finance"),
				CityName:       utils.ToPtr("Shiraz"),
			}, metadata)
			require.NoError(t, err)

			require.NotNil(t, result.Account.Admin)
			assert.Equal(t, "Finance", result.Account.Admin.DepartmentName)

			// A city field on an admin account is silently ignored
			refreshed, err := accountRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.Nil(t, refreshed.CityName)
		})

		t.Run("ChangePasswordVerifiesCurrent", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			_, err = profileFlow.ChangePassword(context.Background(), account.ID, &dto.ChangePasswordRequest{
				CurrentPassword: "WrongPass123!",
				NewPassword:     "BrandNewPass123!",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))

			result, err := profileFlow.ChangePassword(context.Background(), account.ID, &dto.ChangePasswordRequest{
				CurrentPassword: testingutil.DefaultTestPassword,
				NewPassword:     "BrandNewPass123!",
			}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, result.PasswordChangedAt)

			// The new password is live
			loginFlow := businessflow.NewLoginFlow(
				accountRepo,
				businessRepo,
				sessionRepo,
				auditRepo,
				tokenService,
				testDB.DB,
			)
			loginResult, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Identifier: account.Username,
				Password:   "BrandNewPass123!",
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, account.ID, loginResult.Account.ID)
		})

		t.Run("DeleteAccountCascadesAndRevokesToken", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			session, err := fixtures.CreateTestSession(account.ID)
			require.NoError(t, err)
			audit, err := fixtures.CreateTestAuditLog(&account.ID, models.AuditActionLoginSuccess, true)
			require.NoError(t, err)

			accessToken, _, err := tokenService.GenerateTokens(account.ID, account.Username, account.Email, account.Roles())
			require.NoError(t, err)

			result, err := profileFlow.DeleteAccount(context.Background(), account.ID, accessToken, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.Deleted)

			gone, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)

			deadSession, err := sessionRepo.ByID(context.Background(), session.ID)
			require.NoError(t, err)
			assert.Nil(t, deadSession)

			// Audit history outlives the account, detached from it
			keptAudit, err := auditRepo.ByID(context.Background(), audit.ID)
			require.NoError(t, err)
			require.NotNil(t, keptAudit)
			assert.Nil(t, keptAudit.AccountID)

			_, err = tokenService.ValidateToken(context.Background(), accessToken)
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrTokenRevoked)
		})

		t.Run("DeleteAccountWithLoginHistory", func(t *testing.T) {
			loginFlow := businessflow.NewLoginFlow(
				accountRepo,
				businessRepo,
				sessionRepo,
				auditRepo,
				tokenService,
				testDB.DB,
			)

			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			// A real login leaves both a session row and an audit row behind
			loginResult, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Identifier: account.Username,
				Password:   testingutil.DefaultTestPassword,
			}, metadata)
			require.NoError(t, err)

			result, err := profileFlow.DeleteAccount(context.Background(), account.ID, loginResult.Session.AccessToken, metadata)
			require.NoError(t, err)
			assert.True(t, result.Deleted)

			sessions, err := sessionRepo.ByFilter(context.Background(), models.AccountSessionFilter{
				AccountID: &account.ID,
			}, "", 0, 0)
			require.NoError(t, err)
			assert.Empty(t, sessions)
		})

		return nil
	})
	require.NoError(t, err)
}
