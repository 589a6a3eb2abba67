package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/pkg/config"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test_secret", Expiration: time.Hour, Issuer: "submission-restrict-api"}
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           42,
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		FullName:     "Site Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	users := &userStoreStub{user: activeUser(t)}
	audits := &auditStub{}
	svc := NewAuthService(users, audits, jwtConfig(), zap.NewNop())

	resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: "admin@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Equal(t, []int64{42}, users.lastLogins)

	require.Len(t, audits.logs, 1)
	assert.Equal(t, "LOGIN", audits.logs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(&userStoreStub{user: activeUser(t)}, &auditStub{}, jwtConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "admin@example.com", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(&userStoreStub{}, &auditStub{}, jwtConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "ghost@example.com", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := activeUser(t)
	user.Active = false
	svc := NewAuthService(&userStoreStub{user: user}, &auditStub{}, jwtConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "admin@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	svc := NewAuthService(&userStoreStub{user: activeUser(t)}, &auditStub{}, jwtConfig(), zap.NewNop())
	other := NewAuthService(&userStoreStub{}, &auditStub{}, config.JWTConfig{Secret: "other", Expiration: time.Hour, Issuer: "submission-restrict-api"}, zap.NewNop())

	resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: "admin@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}
