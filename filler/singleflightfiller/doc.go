// Package singleflightfiller provides a cache filler implementation that prevents
// duplicate renders of the same fragment.
//
// This package implements a cache-or-fill primitive that uses a single flight mechanism
// to avoid "thundering herd" problems when multiple goroutines request the same fragment
// simultaneously. When multiple concurrent requests for one key are made, only the first
// caller's render callback runs, and the resulting fragment is shared among all requesters.
//
// The SingleFlightFiller can be configured with options:
//   - WithBackgroundContextProvider: Sets a custom context provider for detached fill operations
package singleflightfiller
