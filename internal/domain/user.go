package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a lookup matches no row.
// Callers distinguish it from connectivity or query failures with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when registration collides with an existing
// username (compared case-insensitively).
var ErrDuplicateUser = errors.New("user with that username already exists")

// User represents an account used to authenticate mutations
type User struct {
	ID           int64
	Username     string // Unique, case-insensitive
	PasswordHash string // Argon2id encoded hash (never the plaintext)
	CreatedAt    time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByUsername matches the username ignoring case.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
