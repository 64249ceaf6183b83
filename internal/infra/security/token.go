package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

var (
	// ErrTokenInvalid indicates the token failed structural, algorithm, or
	// signature checks.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates the token parsed and verified but its
	// validity window has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrSigningSecretRequired indicates the service was constructed without
	// a signing secret.
	ErrSigningSecretRequired = errors.New("token signing secret is required")
)

const defaultTokenTTL = 7 * 24 * time.Hour

// defaultAllowedAlgorithms are the HMAC algorithms honored during
// validation when no explicit allow-list is configured. The unsigned "none"
// algorithm is never part of the default set.
var defaultAllowedAlgorithms = []string{"HS256", "HS384", "HS512"}

// TokenServiceOptions configures construction of a TokenService.
type TokenServiceOptions struct {
	// Secret is the server-held HMAC signing secret. Required.
	Secret string
	// TTL bounds token validity from issuance. Defaults to 7 days.
	TTL time.Duration
	// AllowedAlgorithms restricts which declared algorithms are honored
	// during validation. Defaults to HS256/HS384/HS512.
	AllowedAlgorithms []string
	// AllowUnsigned additionally accepts tokens declaring the "none"
	// algorithm, skipping signature verification for them. This exists only
	// as a legacy compatibility path and is unsafe: any caller can mint an
	// accepted token. Operators must opt in explicitly.
	AllowUnsigned bool
	// Clock overrides time.Now for issuance and validation.
	Clock func() time.Time
}

// TokenService mints and validates signed, self-contained credentials.
type TokenService struct {
	secret        []byte
	ttl           time.Duration
	validMethods  []string
	allowUnsigned bool
	now           func() time.Time
}

// NewTokenService constructs a TokenService, failing fast when no signing
// secret is supplied rather than falling back to a shared default.
func NewTokenService(opts TokenServiceOptions) (*TokenService, error) {
	secret := strings.TrimSpace(opts.Secret)
	if secret == "" {
		return nil, ErrSigningSecretRequired
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	allowed := opts.AllowedAlgorithms
	if len(allowed) == 0 {
		allowed = defaultAllowedAlgorithms
	}

	valid := make([]string, 0, len(allowed)+1)
	for _, alg := range allowed {
		alg = strings.TrimSpace(alg)
		if alg == "" {
			continue
		}
		if alg == jwt.SigningMethodNone.Alg() && !opts.AllowUnsigned {
			continue
		}
		if jwt.GetSigningMethod(alg) == nil {
			return nil, fmt.Errorf("unknown signing algorithm %q", alg)
		}
		valid = append(valid, alg)
	}
	if opts.AllowUnsigned && !contains(valid, jwt.SigningMethodNone.Alg()) {
		valid = append(valid, jwt.SigningMethodNone.Alg())
	}
	if len(valid) == 0 {
		return nil, errors.New("algorithm allow-list is empty")
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &TokenService{
		secret:        []byte(secret),
		ttl:           ttl,
		validMethods:  valid,
		allowUnsigned: opts.AllowUnsigned,
		now:           now,
	}, nil
}

// UnsignedAllowed reports whether the unsafe "none" compatibility path is
// enabled; callers use it to surface a startup warning.
func (s *TokenService) UnsignedAllowed() bool {
	return s.allowUnsigned
}

// TTL returns the configured validity window.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// CredentialClaims embeds the credential payload in JWT claims.
type CredentialClaims struct {
	UserID      int64       `json:"uid"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Name        string      `json:"name"`
	Preferences string      `json:"prefs,omitempty"`
	jwt.RegisteredClaims
}

func (c *CredentialClaims) payload() domain.CredentialPayload {
	return domain.CredentialPayload{
		UserID:      c.UserID,
		Email:       c.Email,
		Role:        c.Role,
		Name:        c.Name,
		Preferences: c.Preferences,
	}
}

// Issue signs a credential for the supplied payload, expiring after the
// configured TTL.
func (s *TokenService) Issue(payload domain.CredentialPayload) (string, error) {
	if payload.UserID <= 0 {
		return "", fmt.Errorf("user id must be positive")
	}

	now := s.now().UTC()
	claims := CredentialClaims{
		UserID:      payload.UserID,
		Email:       payload.Email,
		Role:        payload.Role,
		Name:        payload.Name,
		Preferences: payload.Preferences,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies the token, returning the embedded payload.
// Any failure — malformed structure, disallowed algorithm, signature
// mismatch, elapsed expiry — surfaces as a typed error, never a panic.
func (s *TokenService) Validate(tokenString string) (*domain.CredentialPayload, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(s.validMethods),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	claims := &CredentialClaims{}
	parsed, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method == jwt.SigningMethodNone {
			if !s.allowUnsigned {
				return nil, fmt.Errorf("unsigned tokens are not accepted")
			}
			return jwt.UnsafeAllowNoneSignatureType, nil
		}
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}

	payload := claims.payload()
	return &payload, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
