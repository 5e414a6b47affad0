package session

import "time"

type Session struct {
	SessionID    string     `json:"session_id" bson:"session_id"`
	UserID       string     `json:"user_id" bson:"user_id"`
	IsActive     bool       `json:"is_active" bson:"is_active"`
	ExpiresAt    time.Time  `json:"expires_at" bson:"expires_at"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	LogoutAt     *time.Time `json:"logout_at,omitempty" bson:"logout_at,omitempty"`
	LastActiveAt time.Time  `json:"last_active_at" bson:"last_active_at"`
}
