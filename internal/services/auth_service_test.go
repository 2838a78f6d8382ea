// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/models"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

type AuthServiceSuite struct {
	suite.Suite
	db   *gorm.DB
	auth *AuthService
}

func (s *AuthServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	cfg := newTestConfig()
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	s.auth = NewAuthService(s.db, cfg)
}

func (s *AuthServiceSuite) register(userType models.UserType) *RegisterRequest {
	req := &RegisterRequest{
		Username: "site_manager",
		Email:    "manager@example.com",
		Password: "TestPass123!",
		UserType: userType,
	}
	if userType == models.UserTypeSeller {
		req.CompanyName = "Gulf Equipment Rentals"
	}
	return req
}

func (s *AuthServiceSuite) TestRegisterCustomer() {
	resp, err := s.auth.Register(s.register(models.UserTypeCustomer))
	s.Require().NoError(err)

	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.Equal("Bearer", resp.TokenType)
	s.Equal(3600, resp.ExpiresIn)
	s.Equal(models.UserTypeCustomer, resp.User.UserType)
	s.Equal(models.UserStatusActive, resp.User.Status)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID.String(), claims.UserID)
	s.Equal("customer", claims.UserType)
}

func (s *AuthServiceSuite) TestRegisterDuplicateEmail() {
	_, err := s.auth.Register(s.register(models.UserTypeCustomer))
	s.Require().NoError(err)

	dup := s.register(models.UserTypeCustomer)
	dup.Username = "someone_else"
	_, err = s.auth.Register(dup)
	s.ErrorIs(err, ErrValidation)
}

func (s *AuthServiceSuite) TestSellerRequiresCompanyName() {
	req := s.register(models.UserTypeSeller)
	req.CompanyName = ""

	_, err := s.auth.Register(req)
	s.ErrorIs(err, ErrValidation)
}

func (s *AuthServiceSuite) TestAdminRegistrationRejected() {
	_, err := s.auth.Register(s.register(models.UserTypeAdmin))
	s.ErrorIs(err, ErrValidation)
}

func (s *AuthServiceSuite) TestWeakPasswordRejected() {
	req := s.register(models.UserTypeCustomer)
	req.Password = "password"

	_, err := s.auth.Register(req)
	s.ErrorIs(err, ErrValidation)
}

func (s *AuthServiceSuite) TestLogin() {
	_, err := s.auth.Register(s.register(models.UserTypeCustomer))
	s.Require().NoError(err)

	resp, err := s.auth.Login(&LoginRequest{
		Email:    "manager@example.com",
		Password: "TestPass123!",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.NotNil(resp.User.LastLoginAt)
}

func (s *AuthServiceSuite) TestLoginWrongPassword() {
	_, err := s.auth.Register(s.register(models.UserTypeCustomer))
	s.Require().NoError(err)

	_, err = s.auth.Login(&LoginRequest{
		Email:    "manager@example.com",
		Password: "WrongPass123!",
	})
	s.EqualError(err, "invalid email or password")
}

func (s *AuthServiceSuite) TestLoginSuspendedAccount() {
	resp, err := s.auth.Register(s.register(models.UserTypeCustomer))
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(resp.User).Update("status", models.UserStatusSuspended).Error)

	_, err = s.auth.Login(&LoginRequest{
		Email:    "manager@example.com",
		Password: "TestPass123!",
	})
	s.EqualError(err, "account is suspended")
}

func (s *AuthServiceSuite) TestRefreshToken() {
	resp, err := s.auth.Register(s.register(models.UserTypeCustomer))
	s.Require().NoError(err)

	refreshed, err := s.auth.RefreshToken(resp.RefreshToken)
	s.Require().NoError(err)
	s.NotEmpty(refreshed.AccessToken)
	s.Equal(resp.User.ID, refreshed.User.ID)
}

func (s *AuthServiceSuite) TestRefreshRejectsGarbage() {
	_, err := s.auth.RefreshToken("not-a-token")
	s.Error(err)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}
