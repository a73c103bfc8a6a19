package db

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound signals a missing key.
var ErrKeyNotFound = errors.New("db: key not found")

// KV is the key-value contract backing the embedding cache. Consumers
// use the narrow sub-interfaces.
type KV interface {
	Getter
	Setter
	Pinger
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Getter reads a value by key.
type Getter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Setter writes values, optionally with a TTL.
type Setter interface {
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Error wraps an underlying error with the command name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
