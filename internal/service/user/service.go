package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

const (
	physiciansCacheKey = "physicians"
	physiciansCacheTTL = 5 * time.Minute
)

// Service manages staff accounts. All operations here are admin-facing
// except the physician directory, which the reception desk reads when
// scheduling.
type Service struct {
	repo     repository.AccountRepository
	hasher   security.PasswordHasher
	events   *event.Recorder
	dirCache *cache.Cache
}

func NewService(repo repository.AccountRepository, hasher security.PasswordHasher, events *event.Recorder) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		events:   events,
		dirCache: cache.New(physiciansCacheTTL, 10*time.Minute),
	}
}

// CreateAccount stores a new staff account. Username uniqueness is
// case-insensitive: "Admin" collides with "admin".
func (s *Service) CreateAccount(ctx context.Context, req *model.CreateAccountRequest) (*model.Account, error) {
	existing, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("username already in use")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	account := &model.Account{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.dirCache.Delete(physiciansCacheKey)
	s.recordEvent(ctx, model.EventAccountCreated, account)

	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return accounts, nil
}

// ListPhysicians returns the physician directory, cached briefly since the
// reception desk polls it on every scheduling form.
func (s *Service) ListPhysicians(ctx context.Context) ([]*model.Account, error) {
	if cached, ok := s.dirCache.Get(physiciansCacheKey); ok {
		return cached.([]*model.Account), nil
	}

	physicians, err := s.repo.ListByRole(ctx, model.RolePhysician)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.dirCache.Set(physiciansCacheKey, physicians, cache.DefaultExpiration)
	return physicians, nil
}

// UpdateAccount applies only the fields present in the request. A rename is
// applied as-is; the new username is not re-checked against existing ones.
func (s *Service) UpdateAccount(ctx context.Context, id uuid.UUID, req *model.UpdateAccountRequest) (*model.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("account", err)
		}
		return nil, apperrors.Internal(err)
	}

	if req.Username != nil {
		account.Username = *req.Username
	}
	if req.Role != nil {
		account.Role = *req.Role
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.dirCache.Delete(physiciansCacheKey)
	s.recordEvent(ctx, model.EventAccountUpdated, account)

	return account, nil
}

func (s *Service) recordEvent(ctx context.Context, eventType string, account *model.Account) {
	if s.events == nil {
		return
	}
	// Outbox failures are swallowed: the write that matters already happened.
	_ = s.events.Record(ctx, eventType, map[string]interface{}{
		"account_id": account.ID,
		"username":   account.Username,
		"role":       account.Role,
	})
}
