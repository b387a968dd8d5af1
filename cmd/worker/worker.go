package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/journeymate/backend/internal/models"
	"github.com/journeymate/backend/internal/tasks"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

const welcomeSubject = "Welcome to JourneyMate"

// MailSender defines the interface for delivering email messages
type MailSender interface {
	// DialAndSend opens a connection to the mail server and sends the given messages.
	//
	// *mail.Dialer implements it.
	DialAndSend(m ...*mail.Message) error
}

// Worker handles notification tasks
type Worker struct {
	logger *zap.Logger
	sender MailSender
	from   string
}

// NewWorker creates a new worker instance
func NewWorker(logger *zap.Logger, sender MailSender, from string) *Worker {
	return &Worker{
		logger: logger,
		sender: sender,
		from:   from,
	}
}

// HandleWelcomeEmail sends the welcome email of a newly registered user
func (w *Worker) HandleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseWelcomeEmailTask(t)
	if err != nil {
		// A payload that cannot be decoded will never succeed
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" {
		return fmt.Errorf("recipient email is required: %w", asynq.SkipRetry)
	}

	if err := w.sendEmail(payload.Email, welcomeSubject, welcomeBody(payload)); err != nil {
		w.logger.Warn("failed to send welcome email", zap.String("username", payload.Username), zap.Error(err))
		return err
	}

	taskID, _ := asynq.GetTaskID(ctx)
	w.logger.Info("welcome email sent", zap.String("username", payload.Username), zap.String("task_id", taskID))
	return nil
}

func (w *Worker) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", w.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := w.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func welcomeBody(p *models.WelcomeEmailPayload) string {
	name := p.FirstName
	if strings.TrimSpace(name) == "" {
		name = p.Username
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "your JourneyMate account %q has been created.\n", p.Username)
	b.WriteString("You can now sign in with your username and password.\n")
	return b.String()
}
