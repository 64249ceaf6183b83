package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NotificationDispatcher fans out security-critical events to downstream notifiers.
type NotificationDispatcher interface {
	SendPasswordReset(ctx context.Context, payload PasswordResetNotification) error
}

// PasswordResetNotification captures data needed to deliver recovery credentials.
type PasswordResetNotification struct {
	Contact  string
	DevToken string
	Expires  time.Time
}

type noopDispatcher struct{}

func (noopDispatcher) SendPasswordReset(ctx context.Context, payload PasswordResetNotification) error {
	return nil
}

// LoggingNotificationDispatcher records credential dispatch events for observability without delivering them.
type LoggingNotificationDispatcher struct {
	logger *zap.Logger
}

// NewLoggingNotificationDispatcher constructs a notification dispatcher backed by structured logging.
func NewLoggingNotificationDispatcher(logger *zap.Logger) NotificationDispatcher {
	if logger == nil {
		return noopDispatcher{}
	}
	return &LoggingNotificationDispatcher{logger: logger}
}

func (d *LoggingNotificationDispatcher) SendPasswordReset(ctx context.Context, payload PasswordResetNotification) error {
	if d == nil || d.logger == nil {
		return nil
	}

	fields := []zap.Field{
		zap.String("contact", payload.Contact),
		zap.Time("expires_at", payload.Expires),
	}

	if payload.DevToken != "" {
		fields = append(fields, zap.String("dev_token", payload.DevToken))
	}

	d.logger.Info("dispatch password reset", fields...)
	return nil
}
