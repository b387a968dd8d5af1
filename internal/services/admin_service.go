package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/journeymate/backend/internal/models"
	"github.com/journeymate/backend/internal/repositories"
	"go.uber.org/zap"
)

// adminBootstrapService provisions the administrator record configured at start-up
type adminBootstrapService struct {
	store  repositories.ResourceStore
	logger *zap.Logger
}

// NewAdminBootstrapService creates a new admin bootstrap service
func NewAdminBootstrapService(store repositories.ResourceStore, logger *zap.Logger) *adminBootstrapService {
	return &adminBootstrapService{
		store:  store,
		logger: logger,
	}
}

// EnsureAdmin creates /content/admin/<username> if it does not exist yet.
// An existing record is never modified.
func (s *adminBootstrapService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return models.ErrMissingFields
	}
	if !models.IsValidName(username) {
		return models.ErrInvalidUsername
	}

	session, err := s.store.Acquire(ctx, models.ScopeWrite)
	if err != nil {
		return fmt.Errorf("failed to acquire store session: %w", err)
	}
	defer session.Close()

	if _, err := session.GetResource(ctx, models.AdminRoot); err != nil {
		if errors.Is(err, models.ErrResourceNotFound) {
			return fmt.Errorf("admin storage location does not exist: %w", models.ErrStorageMisconfigured)
		}
		return fmt.Errorf("failed to get admin root: %w", err)
	}

	path := models.ChildPath(models.AdminRoot, username)
	_, err = session.GetResource(ctx, path)
	if err == nil {
		s.logger.Info("admin already provisioned", zap.String("username", username))
		return nil
	}
	if !errors.Is(err, models.ErrResourceNotFound) {
		return fmt.Errorf("failed to get admin: %w", err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	properties := map[string]string{
		models.PropUsername:     username,
		models.PropPasswordHash: passwordHash,
	}
	if _, err := session.CreateResource(ctx, models.AdminRoot, username, properties); err != nil {
		if errors.Is(err, models.ErrResourceExists) {
			return nil
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	if err := session.Commit(ctx); err != nil {
		if errors.Is(err, models.ErrResourceExists) {
			return nil
		}
		return fmt.Errorf("failed to commit admin: %w", err)
	}

	s.logger.Info("admin provisioned", zap.String("username", username))
	return nil
}
