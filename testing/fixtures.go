// Package testing provides test utilities and database setup for testing the guide backend
package testing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTestPassword is the plaintext behind every fixture password hash.
const DefaultTestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates a test account with the specified account type
func (tf *TestFixtures) CreateTestAccount(accountTypeName string) (*models.Account, error) {
	// Get account type
	var accountType models.AccountType
	err := tf.DB.DB.Where("type_name = ?", accountTypeName).Last(&accountType).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find account type %s: %w", accountTypeName, err)
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(DefaultTestPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", mrand.Intn(900000000)+100000000)

	account := &models.Account{
		UUID:          uuid.New(),
		AccountTypeID: accountType.ID,
		AccountType:   accountType,
		Username:      fmt.Sprintf("user_%d_%s", accountType.ID, randomDigits),
		Email:         fmt.Sprintf("user.%d.%s@example.com", accountType.ID, randomDigits),
		PasswordHash:  string(hashedPassword),
		FullName:      "John Doe",
		PhoneNumber:   fmt.Sprintf("+989%s", randomDigits),
		Location:      "Tehran",
		IsActive:      utils.ToPtr(true),
	}

	// Set variant-specific fields
	switch accountTypeName {
	case models.AccountTypeAdmin:
		account.DepartmentName = utils.ToPtr("Operations")
	case models.AccountTypeCityAdmin:
		account.CityName = utils.ToPtr("Tehran")
		account.CityPosition = utils.ToPtr("City Planner")
	case models.AccountTypeRegularUser:
		account.MemberSince = utils.UTCNowPtr()
	}

	err = tf.DB.DB.Create(account).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	return account, nil
}

// CreateTestBusiness creates a test business owned by the given account
func (tf *TestFixtures) CreateTestBusiness(ownerID uint, status string) (*models.Business, error) {
	randomDigits := fmt.Sprintf("%06d", mrand.Intn(900000)+100000)

	business := &models.Business{
		UUID:          uuid.New(),
		Name:          fmt.Sprintf("Test Business %s", randomDigits),
		PhoneNumber:   "02112345678",
		LicenseNumber: fmt.Sprintf("LIC-%s", randomDigits),
		Address:       "123 Test Street, Tehran",
		OwnerID:       ownerID,
		Status:        status,
	}

	err := tf.DB.DB.Create(business).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test business: %w", err)
	}

	return business, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates a test account session
func (tf *TestFixtures) CreateTestSession(accountID uint) (*models.AccountSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.AccountSession{
		CorrelationID: uuid.New(),
		AccountID:     accountID,
		SessionToken:  sessionToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	err = tf.DB.DB.Create(session).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(accountID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		AccountID:   accountID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	err := tf.DB.DB.Create(audit).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// CreateAccountsOfAllTypes creates one account per account type
func (tf *TestFixtures) CreateAccountsOfAllTypes() ([]*models.Account, error) {
	var accounts []*models.Account
	for i, accountType := range models.AllAccountTypes {
		account, err := tf.CreateTestAccount(accountType)
		if err != nil {
			return nil, fmt.Errorf("failed to create account %d: %w", i, err)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}
