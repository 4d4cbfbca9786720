// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/guideapp/guide-backend/app/dto"
	"github.com/guideapp/guide-backend/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// BuildProfileView assembles the role-shaped profile representation: common
// identity fields plus exactly one variant object selected by the account's
// role. linked is the business a dedicated Business account operates; managed
// is the business a SubManager account manages. Either may be nil when absent
// or when the role does not use it.
func BuildProfileView(account models.Account, linked, managed *models.Business) dto.ProfileView {
	view := dto.ProfileView{
		ID:           account.ID,
		UUID:         account.UUID.String(),
		Username:     account.Username,
		Email:        account.Email,
		FullName:     account.FullName,
		PhoneNumber:  account.PhoneNumber,
		Location:     account.Location,
		Address:      account.Address,
		AccountType:  account.AccountType.TypeName,
		ProfileImage: account.ProfileImage,
		Roles:        account.Roles(),
		CreatedAt:    account.CreatedAt,
		LastLoginAt:  account.LastLoginAt,
	}

	switch account.AccountType.TypeName {
	case models.AccountTypeAdmin:
		view.Admin = &dto.AdminDetails{
			DepartmentName: derefString(account.DepartmentName),
		}
	case models.AccountTypeCityAdmin:
		view.CityAdmin = &dto.CityAdminDetails{
			CityName:     derefString(account.CityName),
			CityPosition: derefString(account.CityPosition),
		}
	case models.AccountTypeBusiness:
		if linked != nil {
			summary := ToBusinessSummaryDTO(*linked, true)
			view.Business = &summary
		}
	case models.AccountTypeSubManager:
		if managed != nil {
			// Managed summaries omit the profile image
			summary := ToBusinessSummaryDTO(*managed, false)
			view.ManagedBusiness = &summary
		}
	case models.AccountTypeRegularUser:
		view.Membership = &dto.MembershipDetails{
			MemberSince: account.MemberSince,
			IsActive:    account.IsActive,
		}
	}

	return view
}

// ToBusinessDTO converts a business model to its full API representation
func ToBusinessDTO(business models.Business) dto.BusinessDTO {
	return dto.BusinessDTO{
		ID:               business.ID,
		UUID:             business.UUID.String(),
		Name:             business.Name,
		PhoneNumber:      business.PhoneNumber,
		LicenseNumber:    business.LicenseNumber,
		Address:          business.Address,
		ProfileImage:     business.ProfileImage,
		OwnerID:          business.OwnerID,
		Status:           business.Status,
		HasAccount:       business.HasAccount,
		BusinessUsername: business.BusinessUsername,
		SubManagerID:     business.SubManagerID,
		CreatedAt:        business.CreatedAt,
		UpdatedAt:        business.UpdatedAt,
	}
}

// ToBusinessSummaryDTO converts a business model to the summary nested in
// profile views
func ToBusinessSummaryDTO(business models.Business, withImage bool) dto.BusinessSummaryDTO {
	summary := dto.BusinessSummaryDTO{
		ID:            business.ID,
		UUID:          business.UUID.String(),
		Name:          business.Name,
		PhoneNumber:   business.PhoneNumber,
		LicenseNumber: business.LicenseNumber,
		Address:       business.Address,
		Status:        business.Status,
		HasAccount:    business.HasAccount,
	}
	if withImage {
		summary.ProfileImage = business.ProfileImage
	}
	return summary
}

// ToOwnerContactDTO summarizes the applicant behind a business
func ToOwnerContactDTO(owner models.Account) dto.OwnerContactDTO {
	return dto.OwnerContactDTO{
		ID:          owner.ID,
		Username:    owner.Username,
		Email:       owner.Email,
		FullName:    owner.FullName,
		PhoneNumber: owner.PhoneNumber,
	}
}

// ToAdminUserDTO converts an account to its admin-listing row
func ToAdminUserDTO(account models.Account) dto.AdminUserDTO {
	return dto.AdminUserDTO{
		ID:          account.ID,
		UUID:        account.UUID.String(),
		Username:    account.Username,
		Email:       account.Email,
		FullName:    account.FullName,
		PhoneNumber: account.PhoneNumber,
		AccountType: account.AccountType.TypeName,
		Roles:       account.Roles(),
		CreatedAt:   account.CreatedAt,
		LastLoginAt: account.LastLoginAt,
	}
}

// ToSessionDTO converts a session model to its API representation
func ToSessionDTO(session models.AccountSession) dto.SessionDTO {
	return dto.SessionDTO{
		AccessToken:  session.SessionToken,
		RefreshToken: derefString(session.RefreshToken),
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(session.ExpiresAt).Seconds()),
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
