package businessflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/utils"
)

func accountOfType(typeName string) models.Account {
	return models.Account{
		ID:          10,
		UUID:        uuid.New(),
		AccountType: models.AccountType{ID: 1, TypeName: typeName},
		Username:    "someone",
		Email:       "someone@example.com",
		FullName:    "Someone",
		PhoneNumber: "+989123456789",
		Location:    "Tehran",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestBuildProfileViewRegularUser(t *testing.T) {
	account := accountOfType(models.AccountTypeRegularUser)
	account.MemberSince = utils.UTCNowPtr()
	account.IsActive = utils.ToPtr(true)

	view := BuildProfileView(account, nil, nil)

	assert.Equal(t, account.ID, view.ID)
	assert.Equal(t, account.UUID.String(), view.UUID)
	assert.Equal(t, "someone", view.Username)
	assert.Equal(t, models.AccountTypeRegularUser, view.AccountType)
	assert.Equal(t, []string{models.AccountTypeRegularUser}, view.Roles)

	require.NotNil(t, view.Membership)
	assert.Equal(t, account.MemberSince, view.Membership.MemberSince)
	assert.Nil(t, view.Admin)
	assert.Nil(t, view.CityAdmin)
	assert.Nil(t, view.Business)
	assert.Nil(t, view.ManagedBusiness)
}

func TestBuildProfileViewAdmin(t *testing.T) {
	account := accountOfType(models.AccountTypeAdmin)
	account.DepartmentName = utils.ToPtr("Operations")

	view := BuildProfileView(account, nil, nil)

	require.NotNil(t, view.Admin)
	assert.Equal(t, "Operations", view.Admin.DepartmentName)
	assert.Nil(t, view.Membership)
	assert.Nil(t, view.CityAdmin)
	assert.Nil(t, view.Business)
	assert.Nil(t, view.ManagedBusiness)
}

func TestBuildProfileViewCityAdmin(t *testing.T) {
	account := accountOfType(models.AccountTypeCityAdmin)
	account.CityName = utils.ToPtr("Tehran")
	account.CityPosition = utils.ToPtr("City Planner")

	view := BuildProfileView(account, nil, nil)

	require.NotNil(t, view.CityAdmin)
	assert.Equal(t, "Tehran", view.CityAdmin.CityName)
	assert.Equal(t, "City Planner", view.CityAdmin.CityPosition)
	assert.Nil(t, view.Admin)
	assert.Nil(t, view.Membership)
}

func TestBuildProfileViewBusiness(t *testing.T) {
	account := accountOfType(models.AccountTypeBusiness)
	linked := &models.Business{
		ID:           3,
		UUID:         uuid.New(),
		Name:         "Caspian Cafe",
		Status:       models.BusinessStatusApproved,
		HasAccount:   true,
		ProfileImage: []byte{0x89, 0x50},
	}

	view := BuildProfileView(account, linked, nil)

	require.NotNil(t, view.Business)
	assert.Equal(t, linked.ID, view.Business.ID)
	assert.Equal(t, "Caspian Cafe", view.Business.Name)
	assert.Equal(t, models.BusinessStatusApproved, view.Business.Status)
	assert.True(t, view.Business.HasAccount)
	assert.Equal(t, linked.ProfileImage, view.Business.ProfileImage)
	assert.Nil(t, view.ManagedBusiness)
}

func TestBuildProfileViewBusinessWithoutLinkedBusiness(t *testing.T) {
	account := accountOfType(models.AccountTypeBusiness)

	view := BuildProfileView(account, nil, nil)

	assert.Nil(t, view.Business)
}

func TestBuildProfileViewSubManagerOmitsImage(t *testing.T) {
	account := accountOfType(models.AccountTypeSubManager)
	managed := &models.Business{
		ID:           4,
		UUID:         uuid.New(),
		Name:         "Managed Shop",
		Status:       models.BusinessStatusApproved,
		ProfileImage: []byte{0x89, 0x50, 0x4e},
	}

	view := BuildProfileView(account, nil, managed)

	require.NotNil(t, view.ManagedBusiness)
	assert.Equal(t, "Managed Shop", view.ManagedBusiness.Name)
	assert.Nil(t, view.ManagedBusiness.ProfileImage)
	assert.Nil(t, view.Business)
}
