// Package tests contains integration tests for the login flow
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

func TestLoginFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// Initialize repositories
		accountRepo := repository.NewAccountRepository(testDB.DB)
		businessRepo := repository.NewBusinessRepository(testDB.DB)
		sessionRepo := repository.NewAccountSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenService := newTestTokenService(t)

		loginFlow := businessflow.NewLoginFlow(
			accountRepo,
			businessRepo,
			sessionRepo,
			auditRepo,
			tokenService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("SuccessfulLoginWithUsername", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Identifier: account.Username,
				Password:   testingutil.DefaultTestPassword,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, account.ID, result.Account.ID)
			assert.Equal(t, account.Email, result.Account.Email)
			assert.NotEmpty(t, result.Session.AccessToken)
			assert.NotEmpty(t, result.Session.RefreshToken)

			// Login timestamps are recorded
			refreshed, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			require.NotNil(t, refreshed)
			assert.NotNil(t, refreshed.LastLoginAt)
		})

		t.Run("SuccessfulLoginWithEmailFallback", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Identifier: account.Email,
				Password:   testingutil.DefaultTestPassword,
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, account.ID, result.Account.ID)
		})

		t.Run("WrongPasswordRejected", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Identifier: account.Username,
				Password:   "WrongPass123!",
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsInvalidCredentials(err))
		})

		t.Run("UnknownIdentifierRejectedUniformly", func(t *testing.T) {
			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Identifier: "no.such.user",
				Password:   testingutil.DefaultTestPassword,
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)

			// Unknown account and wrong password read identically
			assert.True(t, businessflow.IsInvalidCredentials(err))
		})

		t.Run("BusinessLoginRequiresApproval", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusPending)
			require.NoError(t, err)

			account, err := fixtures.CreateTestAccount(models.AccountTypeBusiness)
			require.NoError(t, err)
			account.BusinessID = &business.ID
			require.NoError(t, accountRepo.Update(context.Background(), account))

			result, err := loginFlow.BusinessLogin(context.Background(), &dto.BusinessLoginRequest{
				Username: account.Username,
				Password: testingutil.DefaultTestPassword,
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsBusinessNotApproved(err))
		})

		t.Run("BusinessLoginSucceedsWhenApproved", func(t *testing.T) {
			owner, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(owner.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			account, err := fixtures.CreateTestAccount(models.AccountTypeBusiness)
			require.NoError(t, err)
			account.BusinessID = &business.ID
			require.NoError(t, accountRepo.Update(context.Background(), account))

			result, err := loginFlow.BusinessLogin(context.Background(), &dto.BusinessLoginRequest{
				Username: account.Username,
				Password: testingutil.DefaultTestPassword,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, account.ID, result.Account.ID)
			assert.Equal(t, business.ID, result.Business.ID)
			assert.NotEmpty(t, result.Session.AccessToken)
		})

		t.Run("BusinessLoginRejectsNonBusinessAccount", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			result, err := loginFlow.BusinessLogin(context.Background(), &dto.BusinessLoginRequest{
				Username: account.Username,
				Password: testingutil.DefaultTestPassword,
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsInvalidCredentials(err))
		})

		t.Run("LogoutRevokesTokenAndSession", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			loginResult, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Identifier: account.Username,
				Password:   testingutil.DefaultTestPassword,
			}, metadata)
			require.NoError(t, err)

			accessToken := loginResult.Session.AccessToken
			_, err = tokenService.ValidateToken(context.Background(), accessToken)
			require.NoError(t, err)

			logoutResult, err := loginFlow.Logout(context.Background(), account.ID, accessToken, metadata)
			require.NoError(t, err)
			require.NotNil(t, logoutResult)
			assert.True(t, logoutResult.LoggedOut)

			// The token is dead immediately
			_, err = tokenService.ValidateToken(context.Background(), accessToken)
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrTokenRevoked)

			// The backing session is deactivated
			session, err := sessionRepo.BySessionToken(context.Background(), accessToken)
			require.NoError(t, err)
			require.NotNil(t, session)
			assert.False(t, utils.IsTrue(session.IsActive))
		})

		return nil
	})
	require.NoError(t, err)
}
