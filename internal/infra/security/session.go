package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

// ErrSessionInvalid indicates the session blob could not be decoded.
var ErrSessionInvalid = errors.New("session blob invalid")

// SessionCodec encodes identity claims as a reversible, unsigned blob:
// base64 over a JSON serialization. It is a fallback transport only — the
// blob carries no integrity protection and must never be treated as proof
// of authenticity. Callers rely on it solely to carry claims that were
// established by a prior authenticated step.
type SessionCodec struct{}

// NewSessionCodec constructs the codec.
func NewSessionCodec() *SessionCodec {
	return &SessionCodec{}
}

// Encode serializes the payload into the session blob format.
func (c *SessionCodec) Encode(payload domain.CredentialPayload) (string, error) {
	if payload.UserID <= 0 {
		return "", fmt.Errorf("user id must be positive")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal session payload: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode recovers the payload from a session blob. Any decode failure,
// including a non-positive user id, yields ErrSessionInvalid.
func (c *SessionCodec) Decode(blob string) (*domain.CredentialPayload, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return nil, ErrSessionInvalid
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	var payload domain.CredentialPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, ErrSessionInvalid
	}
	if payload.UserID <= 0 {
		return nil, ErrSessionInvalid
	}

	return &payload, nil
}
