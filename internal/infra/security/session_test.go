package security

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

func TestSessionRoundTrip(t *testing.T) {
	codec := NewSessionCodec()

	payload := domain.CredentialPayload{
		UserID:      7,
		Email:       "bob@example.com",
		Role:        domain.RoleAdmin,
		Name:        "Bob",
		Preferences: `{"theme":"dark"}`,
	}

	blob, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := codec.Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got != payload {
		t.Fatalf("round-trip mismatch: got %+v want %+v", *got, payload)
	}
}

func TestSessionEncodeRejectsNonPositiveUserID(t *testing.T) {
	codec := NewSessionCodec()
	if _, err := codec.Encode(domain.CredentialPayload{UserID: 0}); err == nil {
		t.Fatal("expected error for non-positive user id")
	}
}

func TestSessionDecodeFailures(t *testing.T) {
	codec := NewSessionCodec()

	cases := []struct {
		name string
		blob string
	}{
		{name: "empty", blob: ""},
		{name: "not base64", blob: "%%%"},
		{name: "not json", blob: base64.StdEncoding.EncodeToString([]byte("plain text"))},
		{name: "zero user id", blob: base64.StdEncoding.EncodeToString([]byte(`{"userId":0,"email":"x"}`))},
		{name: "negative user id", blob: base64.StdEncoding.EncodeToString([]byte(`{"userId":-3}`))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.Decode(tc.blob); !errors.Is(err, ErrSessionInvalid) {
				t.Fatalf("expected ErrSessionInvalid, got %v", err)
			}
		})
	}
}
