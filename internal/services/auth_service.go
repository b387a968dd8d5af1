package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/journeymate/backend/internal/models"
	"github.com/journeymate/backend/internal/repositories"
	"go.uber.org/zap"
)

// tier binds a content subtree to the role granted to records found under it
type tier struct {
	root string
	role models.Role
}

// loginTiers are searched in order, the first verified record wins
var loginTiers = []tier{
	{root: models.UserRoot, role: models.RoleUser},
	{root: models.AdminRoot, role: models.RoleAdmin},
}

// authService implements AuthService
type authService struct {
	store  repositories.ResourceStore
	logger *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(store repositories.ResourceStore, logger *zap.Logger) *authService {
	return &authService{
		store:  store,
		logger: logger,
	}
}

// Login verifies the credentials against the user subtree first and the admin subtree second.
//
// A missing record and a wrong password both return models.ErrInvalidCredentials,
// so callers cannot tell whether the identifier exists.
func (s *authService) Login(ctx context.Context, userID, password string) (*models.LoginResponse, error) {
	if userID == "" || password == "" {
		return nil, models.ErrMissingFields
	}
	if !models.IsValidName(userID) {
		s.burnHash(password)
		return nil, models.ErrInvalidCredentials
	}

	session, err := s.store.Acquire(ctx, models.ScopeRead)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire store session: %w", err)
	}
	defer session.Close()

	found := false
	for _, t := range loginTiers {
		resource, err := session.GetResource(ctx, models.ChildPath(t.root, userID))
		if errors.Is(err, models.ErrResourceNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		found = true

		ok, err := VerifyPassword(resource.Get(models.PropPasswordHash), password)
		if err != nil {
			s.logger.Warn("stored password hash is not usable", zap.String("path", resource.Path), zap.Error(err))
			continue
		}
		if ok {
			return &models.LoginResponse{
				UserType:  t.role.Type,
				UserLevel: t.role.Level,
				UserID:    userID,
			}, nil
		}
	}

	if !found {
		s.burnHash(password)
	}

	return nil, models.ErrInvalidCredentials
}

// burnHash verifies password against a throwaway hash so unknown identifiers cost as much as known ones
func (s *authService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		hash, err := HashPassword("journeymate-dummy-password")
		if err != nil {
			s.logger.Warn("failed to prepare dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = VerifyPassword(s.dummyHash, password)
	}
}
