// Package memstore provides an in-memory implementation of the fragmentcache.FragmentStore interface.
//
// The in-memory store can be distributed across multiple buckets for improved performance and
// concurrency. It supports configuration options like custom key hashing and bucket sizing.
//
// The store keeps opaque bytes only: freshness decisions belong to the expiry
// controller, so no TTL logic lives here.
package memstore
