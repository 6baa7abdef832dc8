package model

import "time"

// User is an account identity. It owns every other row through UserID.
type User struct {
	ID                string `gorm:"primaryKey;type:text"`
	Email             string `gorm:"uniqueIndex;not null"`
	PasswordHash      string `gorm:"not null"`
	FullName          string
	VerificationToken *string `gorm:"uniqueIndex"`
	VerifiedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Verified reports whether the email address was confirmed.
func (u User) Verified() bool {
	return u.VerifiedAt != nil
}

// Profile stores account settings shown on the settings screen.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	FullName  *string   `json:"full_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is an issued sign-in token.
type Session struct {
	ID        string    `gorm:"primaryKey;type:text"`
	UserID    string    `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
