package store

import (
	"context"

	fragmentcache "github.com/fragcache/fragment-cache"
)

var _ fragmentcache.FragmentStore = (*SilentErrorStore)(nil)

// SilentErrorStore is a decorator for a fragmentcache.FragmentStore that silently handles
// errors during operations. Instead of propagating the error, it calls the provided OnError function.
//
// Note that an ExpiryController propagates store errors unchanged; wrap its store in a
// SilentErrorStore only when a missing cache is preferable to a failing request.
type SilentErrorStore struct {
	// Store is the underlying store that this decorator wraps.
	Store fragmentcache.FragmentStore

	// OnError is a function that is called when an error occurs during an operation.
	// The error is passed to the function as an argument.
	OnError func(error)
}

// Read retrieves the fragment stored under the given key from the underlying store.
// If an error occurs during the read and an OnError handler is set, the error will be
// passed to the OnError handler. If an error occurs, the method returns nil bytes and nil error,
// which reads as a cache miss.
func (s *SilentErrorStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.Store.Read(ctx, key)
	if err != nil {
		if s.OnError != nil {
			s.OnError(err)
		}
		return nil, nil
	}
	return data, nil
}

// Write stores the given fragment in the underlying store.
// If an error occurs during the write and an OnError handler is set, the error
// will be passed to the OnError handler. The method itself always returns nil.
func (s *SilentErrorStore) Write(ctx context.Context, key string, data []byte) error {
	if err := s.Store.Write(ctx, key, data); err != nil && s.OnError != nil {
		s.OnError(err)
	}
	return nil
}

// Delete removes the fragment stored under the given key from the underlying store.
// If an error occurs during the delete and an OnError handler is set, the error
// will be passed to the OnError handler. The method itself always returns nil.
func (s *SilentErrorStore) Delete(ctx context.Context, key string) error {
	if err := s.Store.Delete(ctx, key); err != nil && s.OnError != nil {
		s.OnError(err)
	}
	return nil
}

var _ fragmentcache.FragmentStore = (*FunctionsStore)(nil)

// FunctionsStore is a fragmentcache.FragmentStore implementation that uses functions to perform the store operations.
type FunctionsStore struct {
	// ReadFunc retrieves the fragment stored under the given key.
	// If the key is not found, it should return (nil, nil).
	ReadFunc func(context.Context, string) ([]byte, error)

	// WriteFunc stores a fragment under the given key.
	// If the key already exists, it should overwrite the existing fragment.
	WriteFunc func(context.Context, string, []byte) error

	// DeleteFunc removes the fragment stored under the given key.
	// Deleting a key that does not exist should not be an error.
	DeleteFunc func(context.Context, string) error
}

// Read calls the ReadFunc function to retrieve the fragment stored under the given key.
func (s *FunctionsStore) Read(ctx context.Context, key string) ([]byte, error) {
	return s.ReadFunc(ctx, key)
}

// Write calls the WriteFunc function to store the given fragment.
func (s *FunctionsStore) Write(ctx context.Context, key string, data []byte) error {
	return s.WriteFunc(ctx, key, data)
}

// Delete calls the DeleteFunc function to remove the fragment stored under the given key.
func (s *FunctionsStore) Delete(ctx context.Context, key string) error {
	return s.DeleteFunc(ctx, key)
}
