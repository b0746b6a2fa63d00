package expiration

import (
	"math/rand/v2"
	"time"
)

// ExpirationPolicy is the interface for the expiry time checker.
// Implementations determine when cached fragments should be considered expired.
type ExpirationPolicy interface {
	// IsExpired returns true if the fragment is expired.
	// The now parameter represents the current time, and expiresAt is the fragment's expiry time.
	IsExpired(now, expiresAt time.Time) bool
}

// GeneralExpirationPolicy is a policy that expires a fragment at a specific time.
// A fragment is expired when its expiry time is strictly earlier than the current
// time; a fragment whose expiry time equals now is still fresh.
type GeneralExpirationPolicy struct{}

var _ ExpirationPolicy = GeneralExpirationPolicy{}

// IsExpired returns true if the expiry time is strictly before the current time.
func (GeneralExpirationPolicy) IsExpired(now, expiresAt time.Time) bool {
	return expiresAt.Before(now)
}

// NeverExpirationPolicy is a policy that never expires a fragment.
// This is useful for pinning fragments that should only be invalidated explicitly.
type NeverExpirationPolicy struct{}

var _ ExpirationPolicy = NeverExpirationPolicy{}

// IsExpired always returns false, indicating that fragments never expire.
// This policy ignores the expiry time completely.
func (NeverExpirationPolicy) IsExpired(now, expiresAt time.Time) bool {
	return false
}

// EarlyExpirationPolicy is a policy that can expire a fragment before its actual expiry time.
// This policy is useful for preventing cache stampedes by introducing randomness in the
// expiry process, causing different requests to re-render their fragments at different times.
type EarlyExpirationPolicy struct {
	// Duration is how much earlier the fragment can expire.
	// For example, if set to 30 seconds, the fragment might expire up to 30 seconds
	// before its actual expiry time, depending on the Percentage.
	Duration time.Duration

	// Percentage is the chance (between 0 and 1) that the fragment will expire early.
	// A value of 0 means never expire early, while 1 means always expire early.
	// For example, 0.5 means there's a 50% chance of early expiry.
	Percentage float64

	// Random is the random number generator to decide early expiry.
	// If not set, the default system random generator is used.
	// This can be set to a specific random generator for deterministic behavior in tests.
	Random *rand.Rand
}

var _ ExpirationPolicy = (*EarlyExpirationPolicy)(nil)

// IsExpired checks if the fragment is expired.
// This method has two behaviors:
// 1. With probability (1-Percentage): behaves like GeneralExpirationPolicy
// 2. With probability Percentage: compares against (now + Duration), causing early expiry
//
// By using this policy, different requests will likely re-render their fragments at
// different times, preventing multiple simultaneous renders of the same fragment.
func (p *EarlyExpirationPolicy) IsExpired(now, expiresAt time.Time) bool {
	if p.randFloat64() > p.Percentage {
		return expiresAt.Before(now)
	}
	return expiresAt.Before(now.Add(p.Duration))
}

func (p *EarlyExpirationPolicy) randFloat64() float64 {
	if p.Random == nil {
		return rand.Float64()
	}
	return p.Random.Float64()
}
