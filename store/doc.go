// Package store provides fragment store adapters and utilities for the fragment-cache library.
//
// This package contains adapters such as SilentErrorStore, which wraps any FragmentStore
// implementation to silently handle errors, and FunctionsStore, which allows building
// custom store implementations using function callbacks.
//
// This package also defines common error types for store operations:
// ErrRead, ErrWrite, and ErrDelete.
package store
