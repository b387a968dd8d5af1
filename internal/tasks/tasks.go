// Package tasks defines the background tasks exchanged between the API and the notification worker
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/journeymate/backend/internal/models"
)

// TypeWelcomeEmail is the asynq task type of welcome emails
const TypeWelcomeEmail = "user:welcome_email"

const (
	welcomeEmailMaxRetry = 5
	welcomeEmailTimeout  = 30 * time.Second
)

// NewWelcomeEmailTask builds a welcome email task for a newly registered user
func NewWelcomeEmailTask(payload models.WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode welcome email payload: %w", err)
	}
	return asynq.NewTask(TypeWelcomeEmail, data,
		asynq.MaxRetry(welcomeEmailMaxRetry),
		asynq.Timeout(welcomeEmailTimeout),
	), nil
}

// ParseWelcomeEmailTask decodes the payload of a welcome email task
func ParseWelcomeEmailTask(t *asynq.Task) (*models.WelcomeEmailPayload, error) {
	if t.Type() != TypeWelcomeEmail {
		return nil, fmt.Errorf("unexpected task type %q", t.Type())
	}
	var payload models.WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode welcome email payload: %w", err)
	}
	return &payload, nil
}
