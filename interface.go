package fragmentcache

import (
	"context"
)

// RenderFunc produces the content of a fragment.
// It is invoked when the fragment is missing from the store or has been expired.
type RenderFunc func(context.Context) ([]byte, error)

// ActionFunc is a side-effecting hook run by ExpiryController.RunIfExpired.
// Its result is not cached; it exists to recompute expensive state out of band.
type ActionFunc func(context.Context) error

// FragmentStore is an interface for a byte-oriented fragment store backend.
// Implementations must be thread-safe.
type FragmentStore interface {
	// Read retrieves the fragment stored under the given key.
	// If the key is not found, it must return (nil, nil); absence is not an error.
	// The returned bytes must not alias the store's internal buffers.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores a fragment under the given key.
	// If the key already exists, it must overwrite the existing fragment.
	// It must copy the input bytes before storing them.
	Write(ctx context.Context, key string, data []byte) error

	// Delete removes the fragment stored under the given key.
	// Deleting a key that does not exist is not an error.
	Delete(ctx context.Context, key string) error
}

// CacheFiller is the cache-or-fill primitive: return the fragment stored under
// the key if present, otherwise render it, store the result, and return it.
// The filler has no notion of freshness; expiry decisions are made before it runs.
// Implementations must be thread-safe.
type CacheFiller interface {
	// Fill returns the cached fragment under key, rendering and storing it when missing.
	Fill(ctx context.Context, key string, render RenderFunc) ([]byte, error)
}
