package security

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ResetTokenTTL bounds how long a recovery token validates after issuance.
// Expired tokens stay stored on the user record until overwritten or
// consumed; they simply stop validating.
const ResetTokenTTL = 24 * time.Hour

// ErrResetTokenMalformed indicates the token could not be decoded at all.
var ErrResetTokenMalformed = errors.New("reset token malformed")

// EncodeResetToken binds an email and issuance instant into an opaque,
// reversible token. The encoding is not cryptographically signed; the
// stored-token match during consumption is what ties it to a user.
func EncodeResetToken(email string, issuedAt time.Time) string {
	data := email + ":" + strconv.FormatInt(issuedAt.UnixMilli(), 10)
	return base64.StdEncoding.EncodeToString([]byte(data))
}

// DecodeResetToken recovers the email and issuance instant from a token.
func DecodeResetToken(token string) (string, time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", time.Time{}, ErrResetTokenMalformed
	}

	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", time.Time{}, ErrResetTokenMalformed
	}

	idx := strings.LastIndex(string(data), ":")
	if idx <= 0 || idx == len(data)-1 {
		return "", time.Time{}, ErrResetTokenMalformed
	}

	email := string(data[:idx])
	millis, err := strconv.ParseInt(string(data[idx+1:]), 10, 64)
	if err != nil {
		return "", time.Time{}, ErrResetTokenMalformed
	}

	return email, time.UnixMilli(millis).UTC(), nil
}

// ResetTokenFresh reports whether a token issued at the given instant is
// still inside its validity window at the reference time.
func ResetTokenFresh(issuedAt, now time.Time) bool {
	return now.Sub(issuedAt) < ResetTokenTTL
}
