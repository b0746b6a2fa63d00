// Package filestore provides a file-backed implementation of the fragmentcache.FragmentStore interface.
//
// Each fragment is stored in its own file named after the SHA-256 of its key, so
// arbitrary key strings never reach the filesystem. Writes go through a temporary
// file and a rename, so readers only ever observe complete fragments. Writers are
// serialized through a context-aware lock.
package filestore
