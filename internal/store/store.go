package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	SessionID    string // guest session tracking
	CreatedAt    time.Time
}

// UserStore persists users for token issuance and identity resolution.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	Close() error
}
