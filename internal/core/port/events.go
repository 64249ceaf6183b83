package port

import (
	"context"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

// EventPublisher publishes identity lifecycle events for downstream
// consumers (notification delivery, audit, analytics).
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
}
