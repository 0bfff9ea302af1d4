package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey"`
	FullName     string `gorm:"size:100;not null"`
	Email        string `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	// Bumped on logout and password change; tokens carrying an older
	// version are rejected.
	TokenVersion int `gorm:"not null;default:0"`

	// Password reset: bcrypt hash of the token and its expiry
	ResetTokenHash string     `gorm:"size:255"`
	ResetExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
