package singleflightfiller

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"sync"

	fragmentcache "github.com/fragcache/fragment-cache"
	"github.com/fragcache/fragment-cache/internal/panicutil"
)

var errGoexit = errors.New("runtime.Goexit is called")

// SingleFlightFiller is a CacheFiller implementation that uses a single flight
// mechanism to fill fragments: concurrent Fill calls for the same key share the
// first caller's render, so an expired popular fragment is re-rendered once
// instead of once per racing request.
type SingleFlightFiller struct {
	store   fragmentcache.FragmentStore
	context func() context.Context

	mu        sync.Mutex
	waitlists map[string][]chan either[error, []byte]
}

var _ fragmentcache.CacheFiller = (*SingleFlightFiller)(nil)

// NewSingleFlightFiller creates a new SingleFlightFiller instance.
func NewSingleFlightFiller(store fragmentcache.FragmentStore, opts ...Option) *SingleFlightFiller {
	filler := &SingleFlightFiller{
		store:     store,
		context:   context.Background,
		waitlists: map[string][]chan either[error, []byte]{},
	}
	for _, o := range opts {
		o.apply(filler)
	}
	return filler
}

type either[L any, R any] struct {
	L L
	R R
}

// Fill returns the fragment stored under the key, rendering and storing it when missing.
// The render callback of the first caller for a key is the one that runs; the fill
// itself proceeds on a detached context so a canceled waiter does not abort the render
// other callers are waiting on.
func (f *SingleFlightFiller) Fill(ctx context.Context, key string, render fragmentcache.RenderFunc) ([]byte, error) {
	ch := f.registerKey(key, render)
	select {
	case e := <-ch:
		if e.L != nil {
			if e.L == errGoexit {
				runtime.Goexit()
			}
			return nil, e.L
		}
		return e.R, nil
	case <-ctx.Done():
		go func() {
			<-ch
		}()
		return nil, ctx.Err()
	}
}

// registerKey registers a waiter for the key and returns a channel to receive the result.
// The first waiter for a key starts the fill goroutine with its render callback.
func (f *SingleFlightFiller) registerKey(key string, render fragmentcache.RenderFunc) chan either[error, []byte] {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan either[error, []byte], 1)
	f.waitlists[key] = append(f.waitlists[key], ch)
	if len(f.waitlists[key]) == 1 {
		go f.fillKey(f.context(), key, render)
	}
	return ch
}

// fillKey reads the fragment from the store, rendering and storing it on a miss.
func (f *SingleFlightFiller) fillKey(ctx context.Context, key string, render fragmentcache.RenderFunc) {
	dds := panicutil.DoubleDeferSandwich{
		OnGoexit: func() {
			f.throwError(key, errGoexit)
		},
	}

	var data []byte
	if err := dds.Invoke(func() (err error) {
		data, err = f.store.Read(ctx, key)
		if err != nil || data != nil {
			return
		}
		data, err = render(ctx)
		if err != nil {
			return
		}
		err = f.store.Write(ctx, key, data)
		return
	}); err != nil {
		f.throwError(key, err)
		return
	}

	f.sendData(key, data)
}

// sendData sends the fragment to the waiting channels.
func (f *SingleFlightFiller) sendData(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, wl := range f.waitlists[key] {
		if i != 0 {
			// note: we clone the bytes only if it is not the first receiver
			// to avoid unnecessary cloning when there are multiple receivers.
			wl <- either[error, []byte]{R: bytes.Clone(data)}
		} else {
			wl <- either[error, []byte]{R: data}
		}
		close(wl)
	}
	f.waitlists[key] = f.waitlists[key][:0]
}

// throwError sends an error to the waiting channels.
func (f *SingleFlightFiller) throwError(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, wl := range f.waitlists[key] {
		wl <- either[error, []byte]{L: err}
		close(wl)
	}
	f.waitlists[key] = f.waitlists[key][:0]
}
