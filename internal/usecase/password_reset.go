package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mercato/storefront-identity/internal/core/domain"
	"github.com/mercato/storefront-identity/internal/core/port"
	"github.com/mercato/storefront-identity/internal/infra/config"
	"github.com/mercato/storefront-identity/internal/infra/logger"
	"github.com/mercato/storefront-identity/internal/infra/security"
	"github.com/mercato/storefront-identity/internal/repository"
)

const passwordResetRateLimitScope = "password_reset"

var (
	// ErrResetTokenInvalid indicates the supplied recovery token is
	// malformed, unknown, or superseded by a newer one.
	ErrResetTokenInvalid = errors.New("password reset token invalid")
	// ErrResetTokenExpired indicates the token decoded cleanly but its
	// validity window has elapsed.
	ErrResetTokenExpired = errors.New("password reset token expired")
)

// RateLimitExceededError reports that an operation was throttled.
type RateLimitExceededError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitExceededError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Scope, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Scope)
}

// PasswordResetService coordinates recovery token issuance and consumption.
// A user has at most one active token: issuing a new one overwrites the
// previous, and consuming one clears it.
type PasswordResetService struct {
	cfg        *config.AppConfig
	users      port.UserRepository
	rateLimits port.RateLimitStore
	events     port.EventPublisher
	hasher     *security.PasswordHasher
	logger     *zap.Logger
	now        func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(cfg *config.AppConfig, users port.UserRepository, rateLimits port.RateLimitStore, events port.EventPublisher, hasher *security.PasswordHasher, log *zap.Logger) *PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}

	return &PasswordResetService{
		cfg:        cfg,
		users:      users,
		rateLimits: rateLimits,
		events:     events,
		hasher:     hasher,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// ResetRequestInput captures the context of a recovery request.
type ResetRequestInput struct {
	Email string
	IP    string
}

// ResetRequestResult describes the issued recovery artifact.
type ResetRequestResult struct {
	UserID    int64
	RequestID string
	Token     string
	ExpiresAt time.Time
}

// RequestPasswordReset issues a recovery token for the account behind the
// email. Any previously issued token for the account stops validating.
func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, input ResetRequestInput) (*ResetRequestResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	now := s.now().UTC()

	if err := s.enforceRateLimit(ctx, email, now); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	token := security.EncodeResetToken(user.Email, now)
	if err := s.users.SetResetToken(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	result := &ResetRequestResult{
		UserID:    user.ID,
		RequestID: uuid.NewString(),
		Token:     token,
		ExpiresAt: now.Add(security.ResetTokenTTL),
	}

	s.publishResetRequested(ctx, user, result, input.IP, now)

	return result, nil
}

// ResetConfirmInput carries the payload to finalize a recovery.
type ResetConfirmInput struct {
	Token       string
	NewPassword string
}

// ConfirmPasswordReset validates the token and replaces the account
// password. The stored token is cleared so it cannot be replayed.
func (s *PasswordResetService) ConfirmPasswordReset(ctx context.Context, input ResetConfirmInput) error {
	if strings.TrimSpace(input.NewPassword) == "" {
		return fmt.Errorf("new password is required")
	}

	email, issuedAt, err := security.DecodeResetToken(input.Token)
	if err != nil {
		return ErrResetTokenInvalid
	}

	now := s.now().UTC()
	if !security.ResetTokenFresh(issuedAt, now) {
		return ErrResetTokenExpired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	// Only the most recently issued token matches the stored value;
	// superseded or already consumed tokens fail here.
	if user.ResetToken == nil || *user.ResetToken != strings.TrimSpace(input.Token) {
		return ErrResetTokenInvalid
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePasswordAndClearResetToken(ctx, user.ID, hash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.publishPasswordChanged(ctx, user.ID, now)

	return nil
}

func (s *PasswordResetService) enforceRateLimit(ctx context.Context, email string, now time.Time) error {
	if s.rateLimits == nil || s.cfg == nil {
		return nil
	}

	limit := s.cfg.RateLimit.PasswordResetMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := s.cfg.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Hour
	}

	storageKey := fmt.Sprintf("%s:%s", passwordResetRateLimitScope, email)

	if err := s.rateLimits.TrimWindow(ctx, storageKey, window, now); err != nil {
		s.logger.Warn("password reset rate limit trim failed", zap.Error(err))
		return nil
	}

	count, err := s.rateLimits.CountAttempts(ctx, storageKey, window, now)
	if err != nil {
		s.logger.Warn("password reset rate limit count failed", zap.Error(err))
		return nil
	}

	if count >= limit {
		retryAfter := time.Duration(0)
		if oldest, ok, err := s.rateLimits.OldestAttempt(ctx, storageKey, window, now); err == nil && ok {
			reset := oldest.Add(window)
			if reset.After(now) {
				retryAfter = reset.Sub(now)
			}
		} else if err != nil {
			s.logger.Warn("password reset rate limit oldest lookup failed", zap.Error(err))
		}
		return &RateLimitExceededError{Scope: passwordResetRateLimitScope, RetryAfter: retryAfter}
	}

	if err := s.rateLimits.RecordAttempt(ctx, storageKey, now); err != nil {
		s.logger.Warn("password reset rate limit record failed", zap.Error(err))
	}

	return nil
}

func (s *PasswordResetService) publishResetRequested(ctx context.Context, user *domain.User, result *ResetRequestResult, ip string, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.PasswordResetRequestedEvent{
		EventID:           uuid.NewString(),
		UserID:            user.ID,
		RequestID:         result.RequestID,
		RequestedAt:       at,
		Destination:       user.Email,
		MaskedDestination: logger.MaskEmail(user.Email),
		ExpiresAt:         result.ExpiresAt,
	}

	if trimmed := strings.TrimSpace(ip); trimmed != "" {
		event.IPAddress = &trimmed
	}

	if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
		s.logger.Warn("publish password reset requested failed",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}
}

func (s *PasswordResetService) publishPasswordChanged(ctx context.Context, userID int64, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		ChangedAt: at,
	}

	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed event failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}
