package memstore

import (
	"bytes"
	"context"
	"hash"
	"hash/fnv"
	"sync"

	fragmentcache "github.com/fragcache/fragment-cache"
)

type bucket struct {
	m  map[string][]byte
	mu sync.RWMutex
}

type distributedStore struct {
	buckets []*bucket
	options options
}

// NewInMemoryStore creates a new in-memory fragment store.
// The store can be distributed across multiple buckets for improved performance and scalability.
// The store uses a hash function to distribute the keys across the buckets.
func NewInMemoryStore(opts ...Option) fragmentcache.FragmentStore {
	options := defaultOptions()
	for _, opt := range opts {
		opt.apply(&options)
	}

	if options.bucketsSize == 1 {
		return &singleStore{
			bucket: bucket{m: map[string][]byte{}},
		}
	}

	buckets := make([]*bucket, options.bucketsSize)
	for i := range buckets {
		buckets[i] = &bucket{m: map[string][]byte{}}
	}

	return &distributedStore{
		buckets: buckets,
		options: options,
	}
}

var _ fragmentcache.FragmentStore = (*distributedStore)(nil)

// resolveBucket returns the bucket that corresponds to the given key.
func (s *distributedStore) resolveBucket(key string) *bucket {
	index := s.options.hashKey(key) % len(s.buckets)
	if index < 0 {
		index *= -1
	}
	return s.buckets[index]
}

func (s *distributedStore) Read(_ context.Context, key string) ([]byte, error) {
	bucket := s.resolveBucket(key)
	bucket.mu.RLock()
	defer bucket.mu.RUnlock()

	if data, ok := bucket.m[key]; ok {
		return bytes.Clone(data), nil
	}
	return nil, nil
}

func (s *distributedStore) Write(_ context.Context, key string, data []byte) error {
	bucket := s.resolveBucket(key)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.m[key] = bytes.Clone(data)
	return nil
}

func (s *distributedStore) Delete(_ context.Context, key string) error {
	bucket := s.resolveBucket(key)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	delete(bucket.m, key)
	return nil
}

type singleStore struct {
	bucket
}

var _ fragmentcache.FragmentStore = (*singleStore)(nil)

func (s *singleStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if data, ok := s.m[key]; ok {
		return bytes.Clone(data), nil
	}
	return nil, nil
}

func (s *singleStore) Write(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = bytes.Clone(data)
	return nil
}

func (s *singleStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, key)
	return nil
}

// hashPool is a pool of 64-bit FNV-1a hash objects used by the default key hash.
var hashPool = sync.Pool{
	New: func() any {
		return fnv.New64a()
	},
}

// defaultKeyHash computes a 64-bit FNV-1a hash of the given key.
func defaultKeyHash(key string) int {
	h := hashPool.Get().(hash.Hash64)
	defer func() {
		h.Reset()
		hashPool.Put(h)
	}()
	_, _ = h.Write([]byte(key))
	return int(h.Sum64())
}
