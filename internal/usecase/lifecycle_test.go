package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mercato/storefront-identity/internal/infra/config"
	"github.com/mercato/storefront-identity/internal/infra/security"
)

// Walks one account through its whole credential lifecycle: registration,
// login, identity resolution over both credential kinds, password
// recovery, and login with the rotated password.
func TestCredentialLifecycle(t *testing.T) {
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	repo := newMemoryUserRepo()
	events := &recordingPublisher{}

	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	tokens, err := security.NewTokenService(security.TokenServiceOptions{Secret: "lifecycle-secret", Clock: clock})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	sessions := security.NewSessionCodec()
	resolver := security.NewCredentialResolver(tokens, sessions)

	auth := NewAuthService(repo, hasher, tokens, sessions, resolver, events, nil)
	auth.WithClock(clock)

	cfg := &config.AppConfig{
		RateLimit: config.RateLimitSettings{
			WindowDuration:           time.Hour,
			PasswordResetMaxAttempts: 3,
		},
	}
	resets := NewPasswordResetService(cfg, repo, newMemoryRateLimitStore(), events, hasher, nil)
	resets.WithClock(clock)

	ctx := context.Background()

	registered, err := auth.Register(ctx, RegisterInput{
		Email:    "shopper@example.com",
		Name:     "Shopper",
		Password: "first password",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Both credential kinds resolve to the registered account.
	for _, material := range []struct {
		name           string
		token, session string
	}{
		{name: "token", token: registered.Token},
		{name: "session", session: registered.SessionBlob},
	} {
		identity, err := auth.ResolveIdentity(material.token, material.session)
		if err != nil {
			t.Fatalf("ResolveIdentity via %s: %v", material.name, err)
		}
		if identity.UserID != registered.User.ID {
			t.Fatalf("%s resolved user %d, want %d", material.name, identity.UserID, registered.User.ID)
		}
	}

	if _, err := auth.Login(ctx, LoginInput{Email: "shopper@example.com", Password: "first password"}); err != nil {
		t.Fatalf("Login with original password: %v", err)
	}

	current = current.Add(time.Hour)

	reset, err := resets.RequestPasswordReset(ctx, ResetRequestInput{Email: "shopper@example.com"})
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	current = current.Add(time.Hour)

	if err := resets.ConfirmPasswordReset(ctx, ResetConfirmInput{
		Token:       reset.Token,
		NewPassword: "second password",
	}); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}

	if _, err := auth.Login(ctx, LoginInput{Email: "shopper@example.com", Password: "first password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password after reset: got %v, want ErrInvalidCredentials", err)
	}

	relogged, err := auth.Login(ctx, LoginInput{Email: "shopper@example.com", Password: "second password"})
	if err != nil {
		t.Fatalf("Login with rotated password: %v", err)
	}

	identity, err := auth.ResolveIdentity(relogged.Token, "")
	if err != nil {
		t.Fatalf("ResolveIdentity after rotation: %v", err)
	}
	if identity.UserID != registered.User.ID {
		t.Fatalf("rotated credentials resolved user %d, want %d", identity.UserID, registered.User.ID)
	}

	// The consumed token is gone from storage and cannot be replayed.
	stored, err := repo.GetByID(ctx, registered.User.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ResetToken != nil {
		t.Error("reset token should be cleared after confirmation")
	}
	if err := resets.ConfirmPasswordReset(ctx, ResetConfirmInput{
		Token:       reset.Token,
		NewPassword: "third password",
	}); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("replayed token: got %v, want ErrResetTokenInvalid", err)
	}

	if len(events.registered) != 1 || len(events.resetRequested) != 1 || len(events.passwordChanged) != 1 {
		t.Errorf("event counts = %d/%d/%d, want 1/1/1",
			len(events.registered), len(events.resetRequested), len(events.passwordChanged))
	}
}
