// Package tests contains integration tests for the admin user-management flow
package tests

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	businessflow "github.com/guideapp/guide-backend/business_flow"
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	testingutil "github.com/guideapp/guide-backend/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// Initialize repositories
		accountRepo := repository.NewAccountRepository(testDB.DB)
		businessRepo := repository.NewBusinessRepository(testDB.DB)
		sessionRepo := repository.NewAccountSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		adminFlow := businessflow.NewAdminFlow(
			accountRepo,
			businessRepo,
			sessionRepo,
			auditRepo,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("ListUsersPaginates", func(t *testing.T) {
			accounts, err := fixtures.CreateAccountsOfAllTypes()
			require.NoError(t, err)
			require.NotEmpty(t, accounts)

			page1, err := adminFlow.ListUsers(context.Background(), 1, 3)
			require.NoError(t, err)
			require.NotNil(t, page1)

			assert.Len(t, page1.Users, 3)
			assert.Equal(t, 1, page1.Page)
			assert.Equal(t, 3, page1.PageSize)
			assert.GreaterOrEqual(t, page1.TotalCount, int64(len(accounts)))

			// Every row carries its role
			for _, user := range page1.Users {
				assert.NotEmpty(t, user.AccountType)
			}

			page2, err := adminFlow.ListUsers(context.Background(), 2, 3)
			require.NoError(t, err)
			require.NotEmpty(t, page2.Users)
			assert.NotEqual(t, page1.Users[0].ID, page2.Users[0].ID)
		})

		t.Run("ListUsersRejectsBadPagination", func(t *testing.T) {
			_, err := adminFlow.ListUsers(context.Background(), 0, 20)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPage(err))

			_, err = adminFlow.ListUsers(context.Background(), 1, 0)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPageSize(err))

			_, err = adminFlow.ListUsers(context.Background(), 1, 101)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPageSize(err))
		})

		t.Run("ExportUsersProducesWorkbook", func(t *testing.T) {
			_, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			filename, content, err := adminFlow.ExportUsers(context.Background())
			require.NoError(t, err)

			expected := fmt.Sprintf("users_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
			assert.Equal(t, expected, filename)
			require.NotEmpty(t, content)

			// xlsx files are zip archives
			assert.True(t, bytes.HasPrefix(content, []byte("PK")))
		})

		t.Run("DeleteUserRejectsSelf", func(t *testing.T) {
			admin, err := fixtures.CreateTestAccount(models.AccountTypeAdmin)
			require.NoError(t, err)

			result, err := adminFlow.DeleteUser(context.Background(), admin.ID, admin.ID, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsCannotDeleteSelf(err))
		})

		t.Run("DeleteUserRejectsUnknownTarget", func(t *testing.T) {
			admin, err := fixtures.CreateTestAccount(models.AccountTypeAdmin)
			require.NoError(t, err)

			result, err := adminFlow.DeleteUser(context.Background(), 999999, admin.ID, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsAccountNotFound(err))
		})

		t.Run("DeleteUserCascadesSessionsAndBusinesses", func(t *testing.T) {
			admin, err := fixtures.CreateTestAccount(models.AccountTypeAdmin)
			require.NoError(t, err)
			target, err := fixtures.CreateTestAccount(models.AccountTypeRegularUser)
			require.NoError(t, err)

			_, err = fixtures.CreateTestSession(target.ID)
			require.NoError(t, err)
			business, err := fixtures.CreateTestBusiness(target.ID, models.BusinessStatusApproved)
			require.NoError(t, err)

			result, err := adminFlow.DeleteUser(context.Background(), target.ID, admin.ID, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.Deleted)

			gone, err := accountRepo.ByID(context.Background(), target.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)

			deadBusiness, err := businessRepo.ByID(context.Background(), business.ID)
			require.NoError(t, err)
			assert.Nil(t, deadBusiness)

			sessions, err := sessionRepo.ByFilter(context.Background(), models.AccountSessionFilter{
				AccountID: &target.ID,
			}, "", 0, 0)
			require.NoError(t, err)
			assert.Empty(t, sessions)

			// The deletion is attributed to the acting admin
			action := models.AuditActionUserDeletedByAdmin
			audits, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				AccountID: &admin.ID,
				Action:    &action,
			}, "", 0, 0)
			require.NoError(t, err)
			require.NotEmpty(t, audits)
		})

		return nil
	})
	require.NoError(t, err)
}
