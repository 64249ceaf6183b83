package domain

import "time"

// UserRegisteredEvent announces a newly created account.
type UserRegisteredEvent struct {
	EventID      string
	UserID       int64
	Email        string
	Name         string
	Role         Role
	RegisteredAt time.Time
	Metadata     map[string]any
}

// PasswordResetRequestedEvent records that a recovery token was issued.
// Destination always carries the account email; MaskedDestination is the
// log-safe rendering.
type PasswordResetRequestedEvent struct {
	EventID           string
	UserID            int64
	RequestID         string
	RequestedAt       time.Time
	Destination       string
	MaskedDestination string
	ExpiresAt         time.Time
	IPAddress         *string
	Metadata          map[string]any
}

// PasswordChangedEvent records a completed password change via the reset flow.
type PasswordChangedEvent struct {
	EventID   string
	UserID    int64
	ChangedAt time.Time
	Metadata  map[string]any
}
