package security

import (
	"errors"
	"testing"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

func newTestResolver(t *testing.T) (*CredentialResolver, *TokenService, *SessionCodec) {
	t.Helper()
	tokens := newTestTokenService(t, TokenServiceOptions{})
	sessions := NewSessionCodec()
	return NewCredentialResolver(tokens, sessions), tokens, sessions
}

func TestResolvePrefersValidToken(t *testing.T) {
	resolver, tokens, sessions := newTestResolver(t)

	tokenPayload := domain.CredentialPayload{UserID: 1, Email: "token@example.com", Role: domain.RoleAdmin, Name: "Token"}
	sessionPayload := domain.CredentialPayload{UserID: 2, Email: "session@example.com", Role: domain.RoleCustomer, Name: "Session"}

	token, err := tokens.Issue(tokenPayload)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	blob, err := sessions.Encode(sessionPayload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	identity, err := resolver.Resolve(token, blob)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity.UserID != tokenPayload.UserID {
		t.Fatalf("token must win when both credentials are present: got user %d", identity.UserID)
	}
}

func TestResolveFallsBackToSession(t *testing.T) {
	resolver, _, sessions := newTestResolver(t)

	sessionPayload := domain.CredentialPayload{UserID: 9, Email: "fallback@example.com", Role: domain.RoleCustomer, Name: "Fallback"}
	blob, err := sessions.Encode(sessionPayload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{name: "token absent", token: ""},
		{name: "token invalid", token: "garbage.token.value"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := resolver.Resolve(tc.token, blob)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if identity.UserID != sessionPayload.UserID {
				t.Fatalf("expected session identity, got user %d", identity.UserID)
			}
		})
	}
}

func TestResolveUnauthenticated(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	cases := []struct {
		name    string
		token   string
		session string
	}{
		{name: "both absent"},
		{name: "both invalid", token: "nope", session: "nope"},
		{name: "only invalid session", session: "%%%"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := resolver.Resolve(tc.token, tc.session); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}
