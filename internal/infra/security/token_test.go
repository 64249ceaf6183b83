package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

func testPayload() domain.CredentialPayload {
	return domain.CredentialPayload{
		UserID: 42,
		Email:  "alice@example.com",
		Role:   domain.RoleCustomer,
		Name:   "Alice",
	}
}

func newTestTokenService(t *testing.T, opts TokenServiceOptions) *TokenService {
	t.Helper()
	if opts.Secret == "" {
		opts.Secret = "test-signing-secret"
	}
	svc, err := NewTokenService(opts)
	if err != nil {
		t.Fatalf("init token service: %v", err)
	}
	return svc
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(TokenServiceOptions{}); !errors.Is(err, ErrSigningSecretRequired) {
		t.Fatalf("expected ErrSigningSecretRequired, got %v", err)
	}
}

func TestIssueValidateRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, TokenServiceOptions{})

	payload := testPayload()
	token, err := svc.Issue(payload)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if *got != payload {
		t.Fatalf("payload mismatch: got %+v want %+v", *got, payload)
	}
}

func TestValidateAfterExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, TokenServiceOptions{
		Clock: func() time.Time { return current },
	})

	token, err := svc.Issue(testPayload())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	current = current.Add(7*24*time.Hour - time.Minute)
	if _, err := svc.Validate(token); err != nil {
		t.Fatalf("token should still validate just inside the window: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := svc.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateRejectsTampering(t *testing.T) {
	svc := newTestTokenService(t, TokenServiceOptions{})

	token, err := svc.Issue(testPayload())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.Validate(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered token, got %v", err)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuer := newTestTokenService(t, TokenServiceOptions{Secret: "issuer-secret"})
	verifier := newTestTokenService(t, TokenServiceOptions{Secret: "verifier-secret"})

	token, err := issuer.Issue(testPayload())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.Validate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}
}

func TestValidateMalformedInput(t *testing.T) {
	svc := newTestTokenService(t, TokenServiceOptions{})

	cases := []string{"", "not-a-token", "a.b", "a.b.c.d"}
	for _, input := range cases {
		if _, err := svc.Validate(input); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid for %q, got %v", input, err)
		}
	}
}

func unsignedToken(t *testing.T, payload domain.CredentialPayload, expires time.Time) string {
	t.Helper()
	claims := CredentialClaims{
		UserID: payload.UserID,
		Email:  payload.Email,
		Role:   payload.Role,
		Name:   payload.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build unsigned token: %v", err)
	}
	return token
}

func TestUnsignedTokensRejectedByDefault(t *testing.T) {
	svc := newTestTokenService(t, TokenServiceOptions{})

	token := unsignedToken(t, testPayload(), time.Now().Add(time.Hour))
	if _, err := svc.Validate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for unsigned token, got %v", err)
	}
}

func TestUnsignedTokensAcceptedWhenOptedIn(t *testing.T) {
	svc := newTestTokenService(t, TokenServiceOptions{AllowUnsigned: true})

	payload := testPayload()
	token := unsignedToken(t, payload, time.Now().Add(time.Hour))
	got, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate unsigned token with opt-in: %v", err)
	}
	if got.UserID != payload.UserID {
		t.Fatalf("user id mismatch: got %d want %d", got.UserID, payload.UserID)
	}
}

func TestValidateRejectsNonPositiveUserID(t *testing.T) {
	svc := newTestTokenService(t, TokenServiceOptions{AllowUnsigned: true})

	payload := testPayload()
	payload.UserID = 0
	token := unsignedToken(t, payload, time.Now().Add(time.Hour))
	if _, err := svc.Validate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for non-positive uid, got %v", err)
	}
}

func TestUnknownRoleIsCarriedThrough(t *testing.T) {
	svc := newTestTokenService(t, TokenServiceOptions{})

	payload := testPayload()
	payload.Role = domain.Role("superuser")
	token, err := svc.Issue(payload)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Role != domain.Role("superuser") {
		t.Fatalf("role mismatch: got %q", got.Role)
	}
	if got.Role.Known() {
		t.Fatal("unexpected known role")
	}
}
