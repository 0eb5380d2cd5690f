package domain

import "time"

// User is the domain entity for a player account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	BestScore    int64
	CreatedAt    time.Time
}
