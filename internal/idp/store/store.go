package store

import (
	"context"
	"errors"
	"time"

	"github.com/kaszm/imagegallery/internal/idp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by UpdateUser when the stored concurrency
	// stamp no longer matches the one the caller read.
	ErrConflict = errors.New("store: concurrency stamp mismatch")
)

// Store is the root data access interface. Sub-repositories are reached
// through it so that a Tx exposes exactly the same surface.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	MFASessions() MFASessions

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a Store bound to one transaction. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts the user row together with its claims and logins.
	// A second active user with the same email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns the user regardless of IsActive.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	GetActiveUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetActiveUserByLogin(ctx context.Context, provider, providerKey string) (domain.User, error)

	// UpdateUser replaces the stored record, claims and logins when the
	// stored stamp equals expectedStamp. u.ConcurrencyStamp and u.UpdatedAt
	// must already hold the new values.
	UpdateUser(ctx context.Context, u domain.User, expectedStamp string) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, hash string) error
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type MFASessions interface {
	CreateMFASession(ctx context.Context, s domain.MFASession) error

	// GetMFASession returns the session only while now is before its expiry.
	GetMFASession(ctx context.Context, id string, now time.Time) (domain.MFASession, error)

	// IncrementMFASessionAttempts records a failed code and returns the
	// updated session.
	IncrementMFASessionAttempts(ctx context.Context, id string) (domain.MFASession, error)

	DeleteMFASession(ctx context.Context, id string) error
	DeleteExpiredMFASessions(ctx context.Context, now time.Time) (int64, error)
}
