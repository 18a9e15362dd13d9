package models

import "time"

// SessionToken is the server side record of an issued JWT. Logging out
// deletes it, which revokes the token before it expires.
type SessionToken struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}
