package port

import (
	"context"
	"time"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

// UserRepository exposes persistence behavior for users. The reset-token
// operations are single-row updates; concurrent writers race with
// last-write-wins semantics at the storage layer, which the reset flow
// relies on (only the most recently issued token validates).
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetResetToken(ctx context.Context, id int64, token string) error
	UpdatePasswordAndClearResetToken(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
}
