package model

import "time"

// ChatLink remembers which session token a Telegram chat is signed in with,
// so sessions survive a bot restart.
type ChatLink struct {
	ChatID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Token     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
