package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/repositorytest"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

func newTestService(t *testing.T) (*Service, *repositorytest.AccountRepo) {
	t.Helper()
	accounts := repositorytest.NewAccountRepo()
	tokenSvc := auth.NewJWTService("test-secret", time.Hour)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	return NewService(accounts, tokenSvc, hasher), accounts
}

func seedAccount(t *testing.T, accounts *repositorytest.AccountRepo, username, password string, role model.Role) *model.Account {
	t.Helper()
	hash, err := security.NewBcryptHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	account := &model.Account{Username: username, PasswordHash: hash, Role: role}
	require.NoError(t, accounts.Create(context.Background(), account))
	return account
}

func TestLogin(t *testing.T) {
	svc, accounts := newTestService(t)
	account := seedAccount(t, accounts, "admin", "admin", model.RoleAdmin)

	resp, err := svc.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, account.ID, resp.User.ID)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
}

func TestLoginCaseInsensitiveUsername(t *testing.T) {
	svc, accounts := newTestService(t)
	seedAccount(t, accounts, "admin", "admin", model.RoleAdmin)

	resp, err := svc.Login(context.Background(), "ADMIN", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.User.Username)
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	svc, accounts := newTestService(t)
	seedAccount(t, accounts, "admin", "admin", model.RoleAdmin)

	_, unknownErr := svc.Login(context.Background(), "nobody", "admin")
	_, wrongPassErr := svc.Login(context.Background(), "admin", "wrong")

	require.Error(t, unknownErr)
	require.Error(t, wrongPassErr)

	// an unknown username and a wrong password must look identical
	unknownApp, ok := apperrors.AsAppError(unknownErr)
	require.True(t, ok)
	wrongApp, ok := apperrors.AsAppError(wrongPassErr)
	require.True(t, ok)
	assert.Equal(t, unknownApp.Code, wrongApp.Code)
	assert.Equal(t, unknownApp.Message, wrongApp.Message)
	assert.Equal(t, apperrors.ErrInvalidCredentials, unknownApp.Code)
}

func TestLoginResponseHidesPasswordHash(t *testing.T) {
	svc, accounts := newTestService(t)
	seedAccount(t, accounts, "admin", "admin", model.RoleAdmin)

	resp, err := svc.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "$2a$")
}

func TestValidateToken(t *testing.T) {
	svc, accounts := newTestService(t)
	account := seedAccount(t, accounts, "dr.house", "admin", model.RolePhysician)

	resp, err := svc.Login(context.Background(), "dr.house", "admin")
	require.NoError(t, err)

	identity, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, identity.AccountID)
	assert.Equal(t, model.RolePhysician, identity.Role)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthenticated))
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	accounts := repositorytest.NewAccountRepo()
	tokenSvc := auth.NewJWTService("test-secret", time.Hour)
	svc := NewService(accounts, tokenSvc, security.NewBcryptHasher(bcrypt.MinCost))

	// a token whose role claim is not one of the three known roles
	account := seedAccount(t, accounts, "ghost", "admin", model.RoleAdmin)
	token, err := tokenSvc.Generate(account.ID, "SUPERUSER")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthenticated))
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	accounts := repositorytest.NewAccountRepo()
	tokenSvc := auth.NewJWTService("test-secret", -time.Minute)
	svc := NewService(accounts, tokenSvc, security.NewBcryptHasher(bcrypt.MinCost))

	account := seedAccount(t, accounts, "admin", "admin", model.RoleAdmin)
	token, err := tokenSvc.Generate(account.ID, string(model.RoleAdmin))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthenticated))
	assert.Contains(t, err.Error(), "expired")
}
