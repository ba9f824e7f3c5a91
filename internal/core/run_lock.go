// Package core provides the ports and shared business primitives of the citation freshness checker.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultRunLockKey is the Redis key guarding freshness runs across replicas.
const DefaultRunLockKey = "citewatch:freshness:run-lock"

// LockRepository defines the interface for distributed lock operations.
// This follows the hexagonal architecture pattern where the core defines interfaces
// and the data layer provides implementations.
type LockRepository interface {
	// SetIfNotExists atomically sets a key only if it doesn't already exist.
	// Returns true if the key was set, false if it already existed.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// DeleteIfValue removes the key only while it still holds value.
	// Returns true if the key was deleted.
	DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes a key regardless of its value.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the health of the lock store connection.
	Health(ctx context.Context) error
}

// RunLockOptions bundles dependencies for NewRunLock.
type RunLockOptions struct {
	Repo LockRepository
	Key  string
	TTL  time.Duration
}

// RunLock prevents overlapping freshness runs. The TTL bounds how long a crashed
// holder can block later runs.
type RunLock struct {
	repo LockRepository
	key  string
	ttl  time.Duration
}

// NewRunLock creates a RunLock. A zero key falls back to DefaultRunLockKey.
func NewRunLock(opts RunLockOptions) (*RunLock, error) {
	if opts.Repo == nil {
		return nil, errors.New("lock repository is required")
	}
	if opts.TTL <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	key := opts.Key
	if key == "" {
		key = DefaultRunLockKey
	}
	return &RunLock{repo: opts.Repo, key: key, ttl: opts.TTL}, nil
}

// Key returns the lock key.
func (l *RunLock) Key() string {
	return l.key
}

// Acquire attempts to take the lock. It returns the holder token when acquired and
// ok=false when another holder owns the lock.
func (l *RunLock) Acquire(ctx context.Context) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = l.repo.SetIfNotExists(ctx, l.key, []byte(token), l.ttl)
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Release drops the lock if token still owns it.
func (l *RunLock) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := l.repo.DeleteIfValue(ctx, l.key, []byte(token))
	return err
}

// ForceRelease drops the lock regardless of holder. Used by operators after a crash.
func (l *RunLock) ForceRelease(ctx context.Context) (bool, error) {
	return l.repo.Delete(ctx, l.key)
}
