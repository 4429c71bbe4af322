package models

import "time"

type User struct {
	ID           int64
	UserName     string
	FirstName    string
	LastName     string
	Country      string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
