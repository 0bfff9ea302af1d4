// Package storage persists workspaces as whole JSON documents keyed by user.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when the key has never been written.
var ErrNotFound = errors.New("storage: document not found")

// Store is a keyed blob store. Set overwrites; the last writer wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}
