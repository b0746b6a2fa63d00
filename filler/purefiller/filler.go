package purefiller

import (
	"context"

	fragmentcache "github.com/fragcache/fragment-cache"
)

// PureFiller is a simple CacheFiller for sequential fills.
// It reads a fragment from the store and renders it on a miss.
type PureFiller struct {
	store fragmentcache.FragmentStore
}

var _ fragmentcache.CacheFiller = (*PureFiller)(nil)

// NewPureFiller creates a new PureFiller with the given store.
func NewPureFiller(store fragmentcache.FragmentStore) *PureFiller {
	return &PureFiller{store: store}
}

// Fill returns the fragment stored under the key if present.
// Otherwise it invokes render, stores the result under the key, and returns
// the fresh bytes. Errors from the store or the render callback are returned
// unchanged.
func (f *PureFiller) Fill(ctx context.Context, key string, render fragmentcache.RenderFunc) ([]byte, error) {
	if data, err := f.store.Read(ctx, key); err != nil {
		return nil, err
	} else if data != nil {
		return data, nil
	}

	data, err := render(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.store.Write(ctx, key, data); err != nil {
		return nil, err
	}
	return data, nil
}
