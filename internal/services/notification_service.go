package services

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/journeymate/backend/internal/metrics"
	"github.com/journeymate/backend/internal/models"
	"github.com/journeymate/backend/internal/tasks"
	"go.uber.org/zap"
)

// TaskEnqueuer is the interface that wraps the asynq client method used to queue tasks.
type TaskEnqueuer interface {
	// Method EnqueueContext puts "task" on a queue. *asynq.Client implements it.
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// notificationService queues notification tasks for the worker
type notificationService struct {
	enqueuer TaskEnqueuer
	queue    string
	logger   *zap.Logger
}

// NewNotificationService creates a new notification service that enqueues to "queue"
func NewNotificationService(enqueuer TaskEnqueuer, queue string, logger *zap.Logger) *notificationService {
	return &notificationService{
		enqueuer: enqueuer,
		queue:    queue,
		logger:   logger,
	}
}

// UserRegistered queues a welcome email for the new user
func (s *notificationService) UserRegistered(ctx context.Context, payload models.WelcomeEmailPayload) error {
	task, err := tasks.NewWelcomeEmailTask(payload)
	if err != nil {
		return err
	}

	info, err := s.enqueuer.EnqueueContext(ctx, task, asynq.Queue(s.queue))
	if err != nil {
		metrics.Notifications.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("failed to enqueue welcome email: %w", err)
	}

	metrics.Notifications.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Debug("welcome email enqueued", zap.String("username", payload.Username), zap.String("task_id", info.ID))
	return nil
}
