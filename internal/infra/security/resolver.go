package security

import (
	"errors"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

// ErrUnauthenticated indicates neither credential format yielded an identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// CredentialResolver turns inbound credential material into a canonical
// Identity. Verification is an ordered chain: the signed token is
// authoritative when present and valid; the unsigned session blob is a
// secondary, best-effort path consulted only when the token is absent or
// invalid. Resolution is a pure computation over its inputs — no caching,
// no shared mutable state — so it is safe under concurrent requests.
type CredentialResolver struct {
	tokens   *TokenService
	sessions *SessionCodec
}

// NewCredentialResolver wires the resolver from its two verifiers.
func NewCredentialResolver(tokens *TokenService, sessions *SessionCodec) *CredentialResolver {
	return &CredentialResolver{tokens: tokens, sessions: sessions}
}

// Resolve attempts the token first, then the session blob. It returns
// ErrUnauthenticated when both are absent or invalid.
func (r *CredentialResolver) Resolve(tokenMaterial, sessionMaterial string) (*domain.Identity, error) {
	if tokenMaterial != "" && r.tokens != nil {
		if payload, err := r.tokens.Validate(tokenMaterial); err == nil {
			identity := payload.Identity()
			return &identity, nil
		}
	}

	if sessionMaterial != "" && r.sessions != nil {
		if payload, err := r.sessions.Decode(sessionMaterial); err == nil {
			identity := payload.Identity()
			return &identity, nil
		}
	}

	return nil, ErrUnauthenticated
}
