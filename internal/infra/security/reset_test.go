package security

import (
	"errors"
	"testing"
	"time"
)

func TestResetTokenRoundTrip(t *testing.T) {
	issued := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	token := EncodeResetToken("carol@example.com", issued)

	email, got, err := DecodeResetToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if email != "carol@example.com" {
		t.Fatalf("email mismatch: got %q", email)
	}
	if !got.Equal(issued) {
		t.Fatalf("issuance mismatch: got %v want %v", got, issued)
	}
}

func TestResetTokenEmailWithColons(t *testing.T) {
	// The last separator wins so emails containing colons survive.
	issued := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	token := EncodeResetToken("weird:local@example.com", issued)

	email, _, err := DecodeResetToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if email != "weird:local@example.com" {
		t.Fatalf("email mismatch: got %q", email)
	}
}

func TestDecodeResetTokenFailures(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not base64", token: "%%%"},
		{name: "no separator", token: "bm9zZXBhcmF0b3I"},
		{name: "non-numeric timestamp", token: "ZW1haWw6bm90YW51bWJlcg=="},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := DecodeResetToken(tc.token); !errors.Is(err, ErrResetTokenMalformed) {
				t.Fatalf("expected ErrResetTokenMalformed, got %v", err)
			}
		})
	}
}

func TestResetTokenFreshness(t *testing.T) {
	issued := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "just issued", now: issued, want: true},
		{name: "23h59m", now: issued.Add(24*time.Hour - time.Minute), want: true},
		{name: "exactly 24h", now: issued.Add(24 * time.Hour), want: false},
		{name: "25h", now: issued.Add(25 * time.Hour), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResetTokenFresh(issued, tc.now); got != tc.want {
				t.Fatalf("fresh=%v, want %v", got, tc.want)
			}
		})
	}
}
