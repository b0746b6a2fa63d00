package singleflightfiller

import (
	"context"
)

// Option is the interface for the options of the SingleFlightFiller.
type Option interface {
	apply(*SingleFlightFiller)
}

type optionFunc func(*SingleFlightFiller)

func (f optionFunc) apply(filler *SingleFlightFiller) {
	f(filler)
}

// WithBackgroundContextProvider sets the context provider to the filler.
// The provider must return a new context for each call.
// The default context provider is context.Background.
func WithBackgroundContextProvider(provider func() context.Context) Option {
	return optionFunc(func(filler *SingleFlightFiller) {
		filler.context = provider
	})
}
