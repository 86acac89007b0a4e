package domain

import "time"

// User represents a registered account. The refresh and reset token fields
// are nil when no token of that kind is outstanding; a non-nil token always
// carries a non-nil expiry, and the expiry must be checked, not just presence.
type User struct {
	ID                    string
	Email                 string
	PasswordHash          string
	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time
	ResetToken            *string
	ResetTokenExpiresAt   *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
