package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/journeymate/backend/internal/models"
	"github.com/journeymate/backend/internal/repositories"
	"go.uber.org/zap"
)

// RegistrationNotifier is the interface that wraps the notification sent after a successful registration.
type RegistrationNotifier interface {
	// Method UserRegistered schedules the welcome notification of a new user.
	//
	// Failures do not undo the registration, they are only logged.
	UserRegistered(ctx context.Context, payload models.WelcomeEmailPayload) error
}

// registrationService implements RegistrationService
type registrationService struct {
	store    repositories.ResourceStore
	notifier RegistrationNotifier
	logger   *zap.Logger
}

// NewRegistrationService creates a new registration service. A nil notifier disables welcome notifications.
func NewRegistrationService(store repositories.ResourceStore, notifier RegistrationNotifier, logger *zap.Logger) *registrationService {
	return &registrationService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Register creates a user record under the user subtree.
//
// Username, email and password are required. The username must be a single path segment
// and the email at most models.MaxEmailLength bytes.
// If the username is taken or another user already has the email, models.ErrUserExists is returned
// and nothing is written.
func (s *registrationService) Register(ctx context.Context, req *models.RegisterRequest) error {
	if req == nil || req.Username == nil || req.Email == nil || req.Password == nil {
		return models.ErrMissingFields
	}
	username := *req.Username
	if !models.IsValidName(username) {
		return models.ErrInvalidUsername
	}
	if len(*req.Email) > models.MaxEmailLength {
		return models.ErrInvalidEmail
	}

	// Hash before acquiring the session to keep the transaction short
	passwordHash, err := HashPassword(*req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	session, err := s.store.Acquire(ctx, models.ScopeWrite)
	if err != nil {
		return fmt.Errorf("failed to acquire store session: %w", err)
	}
	defer session.Close()

	if _, err := session.GetResource(ctx, models.UserRoot); err != nil {
		if errors.Is(err, models.ErrResourceNotFound) {
			return models.ErrStorageMisconfigured
		}
		return fmt.Errorf("failed to get user root: %w", err)
	}

	exists, err := s.userExists(ctx, session, username, *req.Email)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrUserExists
	}

	properties := map[string]string{
		models.PropUsername:     username,
		models.PropEmail:        *req.Email,
		models.PropPasswordHash: passwordHash,
	}
	setOptional(properties, models.PropFirstName, req.FirstName)
	setOptional(properties, models.PropLastName, req.LastName)
	setOptional(properties, models.PropMobile, req.Mobile)

	if _, err := session.CreateResource(ctx, models.UserRoot, username, properties); err != nil {
		if errors.Is(err, models.ErrResourceExists) {
			return models.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := session.Commit(ctx); err != nil {
		if errors.Is(err, models.ErrResourceExists) {
			return models.ErrUserExists
		}
		return fmt.Errorf("failed to commit user: %w", err)
	}

	s.logger.Info("user registered", zap.String("username", username))

	if s.notifier != nil {
		payload := models.WelcomeEmailPayload{Username: username, Email: *req.Email}
		if req.FirstName != nil {
			payload.FirstName = *req.FirstName
		}
		if err := s.notifier.UserRegistered(ctx, payload); err != nil {
			s.logger.Warn("failed to schedule welcome notification", zap.String("username", username), zap.Error(err))
		}
	}

	return nil
}

// userExists checks the username path and the email lookup
func (s *registrationService) userExists(ctx context.Context, session repositories.ResourceSession, username, email string) (bool, error) {
	_, err := session.GetResource(ctx, models.ChildPath(models.UserRoot, username))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, models.ErrResourceNotFound) {
		return false, fmt.Errorf("failed to check username: %w", err)
	}

	_, err = session.FindChildByProperty(ctx, models.UserRoot, models.PropEmail, email)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, models.ErrResourceNotFound) {
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return false, nil
}

func setOptional(properties map[string]string, key string, value *string) {
	if value != nil {
		properties[key] = *value
	}
}
