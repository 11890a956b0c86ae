package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

// Service authenticates staff credentials and issues tokens. Login is
// stateless: there is no session table, the token is the only artifact.
type Service struct {
	accountRepo repository.AccountRepository
	tokenSvc    auth.TokenService
	hasher      security.PasswordHasher
}

func NewService(accountRepo repository.AccountRepository, tokenSvc auth.TokenService, hasher security.PasswordHasher) *Service {
	return &Service{
		accountRepo: accountRepo,
		tokenSvc:    tokenSvc,
		hasher:      hasher,
	}
}

// Login verifies the username (case-insensitive) and password. An unknown
// username and a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	account, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return nil, apperrors.InvalidCredentials()
	}

	token, err := s.tokenSvc.Generate(account.ID, string(account.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.LoginResponse{
		Token: token,
		User:  account,
	}, nil
}

// ValidateToken verifies a presented token and reconstructs the caller's
// identity from its claims. No account lookup happens here; the role is
// trusted for the token's lifetime.
func (s *Service) ValidateToken(tokenString string) (*model.Identity, error) {
	claims, err := s.tokenSvc.Validate(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.Unauthenticated("token expired", err)
		}
		return nil, apperrors.Unauthenticated("invalid token", err)
	}

	role := model.Role(claims.Role)
	if !role.Valid() {
		return nil, apperrors.Unauthenticated("invalid token", nil)
	}

	return &model.Identity{
		AccountID: claims.AccountID,
		Role:      role,
	}, nil
}
