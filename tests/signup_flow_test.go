// Package tests contains integration tests for the registration flow
package tests

import (
	"context"
	"testing"
	"time"

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

const testJWTSecret = "integration-test-secret-key-32-chars!"

func newTestTokenService(t *testing.T) services.TokenService {
	t.Helper()

	tokenService, err := services.NewTokenService(
		1*time.Hour,
		24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		testJWTSecret,
		services.NewMemoryRevocationStore(),
	)
	require.NoError(t, err)

	return tokenService
}

func TestSignupFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		// Initialize repositories
		accountRepo := repository.NewAccountRepository(testDB.DB)
		accountTypeRepo := repository.NewAccountTypeRepository(testDB.DB)
		businessRepo := repository.NewBusinessRepository(testDB.DB)
		sessionRepo := repository.NewAccountSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenService := newTestTokenService(t)

		signupFlow := businessflow.NewSignupFlow(
			accountRepo,
			accountTypeRepo,
			businessRepo,
			sessionRepo,
			auditRepo,
			tokenService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("SuccessfulRegularUserRegistration", func(t *testing.T) {
			req := &dto.RegisterRequest{
				Username:    "Regular.User",
				Email:       "regular.user@example.com",
				Password:    "SecurePass123!",
				FullName:    "Regular User",
				PhoneNumber: "+989121110001",
			}

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			// Username is normalized to lowercase
			assert.Equal(t, "regular.user", result.Account.Username)
			assert.Equal(t, req.Email, result.Account.Email)
			assert.Equal(t, models.AccountTypeRegularUser, result.Account.AccountType)
			assert.Contains(t, result.Account.Roles, models.AccountTypeRegularUser)

			// Regular users carry only the membership variant
			require.NotNil(t, result.Account.Membership)
			assert.Nil(t, result.Account.Admin)
			assert.Nil(t, result.Account.CityAdmin)
			assert.Nil(t, result.Account.Business)

			// Session credentials are issued immediately
			assert.NotEmpty(t, result.Session.AccessToken)
			assert.NotEmpty(t, result.Session.RefreshToken)
			assert.Equal(t, "Bearer", result.Session.TokenType)

			claims, err := tokenService.ValidateToken(context.Background(), result.Session.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, result.Account.ID, claims.AccountID)

			// A persisted active session backs the issued tokens
			sessions, err := sessionRepo.ByFilter(context.Background(), models.AccountSessionFilter{
				AccountID: &result.Account.ID,
				IsActive:  utils.ToPtr(true),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, sessions, 1)
			assert.Equal(t, result.Session.AccessToken, sessions[0].SessionToken)

			// Registration is audited
			action := models.AuditActionSignupCompleted
			audits, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				AccountID: &result.Account.ID,
				Action:    &action,
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, audits, 1)
			assert.True(t, utils.IsTrue(audits[0].Success))
		})

		t.Run("SuccessfulAdminRegistration", func(t *testing.T) {
			req := &dto.RegisterRequest{
				AccountType:    models.AccountTypeAdmin,
				Username:       "ops.admin",
				Email:          "ops.admin@example.com",
				Password:       "SecurePass123!",
				FullName:       "Ops Admin",
				DepartmentName: utils.ToPtr("Operations"),
			}

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, models.AccountTypeAdmin, result.Account.AccountType)
			require.NotNil(t, result.Account.Admin)
			assert.Equal(t, "Operations", result.Account.Admin.DepartmentName)
			assert.Nil(t, result.Account.Membership)
		})

		t.Run("SuccessfulCityAdminRegistration", func(t *testing.T) {
			req := &dto.RegisterRequest{
				AccountType:  models.AccountTypeCityAdmin,
				Username:     "city.admin",
				Email:        "city.admin@example.com",
				Password:     "SecurePass123!",
				FullName:     "City Admin",
				CityName:     utils.ToPtr("Tehran"),
				CityPosition: utils.ToPtr("City Planner"),
			}

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)

			assert.Equal(t, models.AccountTypeCityAdmin, result.Account.AccountType)
			require.NotNil(t, result.Account.CityAdmin)
			assert.Equal(t, "Tehran", result.Account.CityAdmin.CityName)
			assert.Equal(t, "City Planner", result.Account.CityAdmin.CityPosition)
		})

		t.Run("SuccessfulBusinessRegistrationCreatesPendingBusiness", func(t *testing.T) {
			req := &dto.RegisterRequest{
				AccountType:     models.AccountTypeBusiness,
				Username:        "caspian.cafe",
				Email:           "owner@caspian.example.com",
				Password:        "SecurePass123!",
				FullName:        "Sara Moradi",
				BusinessName:    utils.ToPtr("Caspian Cafe"),
				BusinessLicense: utils.ToPtr("LIC-445566"),
				BusinessPhone:   utils.ToPtr("+982188776655"),
			}

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)

			assert.Equal(t, models.AccountTypeBusiness, result.Account.AccountType)
			require.NotNil(t, result.Account.Business)
			assert.Equal(t, "Caspian Cafe", result.Account.Business.Name)
			assert.Equal(t, models.BusinessStatusPending, result.Account.Business.Status)

			// The application row exists and the account links to it
			account, err := accountRepo.ByID(context.Background(), result.Account.ID)
			require.NoError(t, err)
			require.NotNil(t, account)
			require.NotNil(t, account.BusinessID)

			business, err := businessRepo.ByID(context.Background(), *account.BusinessID)
			require.NoError(t, err)
			require.NotNil(t, business)
			assert.Equal(t, models.BusinessStatusPending, business.Status)
			assert.Equal(t, account.ID, business.OwnerID)
			assert.Equal(t, "LIC-445566", business.LicenseNumber)
			assert.False(t, business.HasAccount)
		})

		t.Run("UnknownAccountTypeFallsBackToRegularUser", func(t *testing.T) {
			req := &dto.RegisterRequest{
				AccountType: "superuser",
				Username:    "fallback.user",
				Email:       "fallback.user@example.com",
				Password:    "SecurePass123!",
				FullName:    "Fallback User",
			}

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.AccountTypeRegularUser, result.Account.AccountType)
			require.NotNil(t, result.Account.Membership)
		})

		t.Run("DuplicateUsernameRejected", func(t *testing.T) {
			fixtures := testingutil.NewTestFixtures(testDB)
			existing, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			req := &dto.RegisterRequest{
				Username: existing.Username,
				Email:    "other.email@example.com",
				Password: "SecurePass123!",
				FullName: "Other User",
			}

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsUsernameAlreadyExists(err))
		})

		t.Run("DuplicateEmailRejected", func(t *testing.T) {
			fixtures := testingutil.NewTestFixtures(testDB)
			existing, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			req := &dto.RegisterRequest{
				Username: "unique.username",
				Email:    existing.Email,
				Password: "SecurePass123!",
				FullName: "Other User",
			}

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("AdminRequiresDepartmentName", func(t *testing.T) {
			req := &dto.RegisterRequest{
				AccountType: models.AccountTypeAdmin,
				Username:    "admin.nodept",
				Email:       "admin.nodept@example.com",
				Password:    "SecurePass123!",
				FullName:    "Admin NoDept",
			}

			_, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsDepartmentNameRequired(err))
		})

		t.Run("CityAdminRequiresCityFields", func(t *testing.T) {
			req := &dto.RegisterRequest{
				AccountType: models.AccountTypeCityAdmin,
				Username:    "city.nofields",
				Email:       "city.nofields@example.com",
				Password:    "SecurePass123!",
				FullName:    "City NoFields",
				CityName:    utils.ToPtr("Tehran"),
			}

			_, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCityFieldsRequired(err))
		})

		t.Run("BusinessRequiresNameAndLicense", func(t *testing.T) {
			req := &dto.RegisterRequest{
				AccountType:  models.AccountTypeBusiness,
				Username:     "biz.nofields",
				Email:        "biz.nofields@example.com",
				Password:     "SecurePass123!",
				FullName:     "Biz NoFields",
				BusinessName: utils.ToPtr("Half Filled"),
			}

			_, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsBusinessFieldsRequired(err))
		})

		t.Run("RegisteredAccountCanLogin", func(t *testing.T) {
			loginFlow := businessflow.NewLoginFlow(
				accountRepo,
				businessRepo,
				sessionRepo,
				auditRepo,
				tokenService,
				testDB.DB,
			)

			req := &dto.RegisterRequest{
				Username: "roundtrip.user",
				Email:    "roundtrip.user@example.com",
				Password: "SecurePass123!",
				FullName: "Roundtrip User",
			}

			registered, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)

			loginResult, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Identifier: "roundtrip.user",
				Password:   "SecurePass123!",
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, loginResult)
			assert.Equal(t, registered.Account.ID, loginResult.Account.ID)
		})

		return nil
	})
	require.NoError(t, err)
}
