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
	"github.com/mercato/storefront-identity/internal/infra/logger"
	"github.com/mercato/storefront-identity/internal/infra/security"
	"github.com/mercato/storefront-identity/internal/repository"
)

var (
	// ErrEmailTaken indicates the registration email is already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown accounts and wrong
	// passwords; callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// AuthService coordinates registration, login, and identity resolution.
type AuthService struct {
	users    port.UserRepository
	hasher   *security.PasswordHasher
	tokens   *security.TokenService
	sessions *security.SessionCodec
	resolver *security.CredentialResolver
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(users port.UserRepository, hasher *security.PasswordHasher, tokens *security.TokenService, sessions *security.SessionCodec, resolver *security.CredentialResolver, events port.EventPublisher, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		resolver: resolver,
		events:   events,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// RegisterInput carries the payload for account creation.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Bio      string
}

// LoginInput carries the payload for credential verification.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult bundles the authenticated user with freshly issued
// credential material.
type AuthResult struct {
	User        domain.User
	Token       string
	SessionBlob string
}

// Register creates a new customer account and issues its first credentials.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		Email:        email,
		Name:         name,
		Role:         domain.RoleCustomer,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if bio := strings.TrimSpace(input.Bio); bio != "" {
		user.Bio = &bio
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id

	s.publishUserRegistered(ctx, user, now)

	return s.issueCredentials(user)
}

// Login verifies the supplied credentials and issues fresh credential
// material. Unknown accounts and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueCredentials(*user)
}

// ResolveIdentity turns raw credential material into a trusted identity.
func (s *AuthService) ResolveIdentity(tokenMaterial, sessionMaterial string) (*domain.Identity, error) {
	return s.resolver.Resolve(tokenMaterial, sessionMaterial)
}

// ProfileResult pairs the stored account with its decoded preferences.
type ProfileResult struct {
	User        domain.User
	Preferences map[string]any
}

// Profile loads the account backing an identity, with preferences decoded
// leniently: any malformed stored value yields an empty map.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*ProfileResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return &ProfileResult{
		User:        *user,
		Preferences: domain.DecodePreferences(user.Preferences),
	}, nil
}

// SessionTTL reports how long issued credentials remain valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issueCredentials(user domain.User) (*AuthResult, error) {
	payload := user.CredentialPayload()
	if user.Preferences != nil {
		payload.Preferences = *user.Preferences
	}

	token, err := s.tokens.Issue(payload)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	blob, err := s.sessions.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	return &AuthResult{User: user, Token: token, SessionBlob: blob}, nil
}

func (s *AuthService) publishUserRegistered(ctx context.Context, user domain.User, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		RegisteredAt: at,
	}

	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered event failed",
			zap.Int64("user_id", user.ID),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}
}
