// Package kvstore defines the string key-value substrate the local sheet
// repository and device preferences persist into, mirroring the get/set/remove
// contract of a mobile platform's local storage.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has no stored value.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Store is a persistent mapping from string key to string value. Writes may
// fail (I/O, quota); reads distinguish absence from failure via
// ErrKeyNotFound.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
