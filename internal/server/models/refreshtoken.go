package models

import "time"

// Session is a server-stored refresh token. The access token is a stateless JWT.
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
