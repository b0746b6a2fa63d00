package store

import "errors"

var (
	ErrRead   = errors.New("unable to read fragment from store")
	ErrWrite  = errors.New("unable to write fragment to store")
	ErrDelete = errors.New("unable to delete fragment from store")
)
