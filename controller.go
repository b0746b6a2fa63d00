package fragmentcache

import (
	"context"
	"time"

	"github.com/fragcache/fragment-cache/expiration"
)

// ExpiryController layers time-based expiry over a fragment store and its
// cache-or-fill primitive. It keeps a meta record next to each fragment and
// consults it before every expiry-aware read; the base filler never sees a
// stale fragment because expired entries are deleted before it runs.
//
// The zero time.Time value means "no expiry supplied" throughout the API.
//
// Concurrent calls racing on the same name can both observe an expired
// fragment and both re-render it; the last writer wins for the fragment and
// its meta record. Use a deduplicating CacheFiller such as
// singleflightfiller to share a single render between racing callers.
type ExpiryController struct {
	// Store is the underlying fragment store.
	// Meta records are kept in the same store under the MetaSuffix-derived key.
	Store FragmentStore

	// Filler is the pre-existing cache-or-fill primitive the controller
	// delegates to after the expiry decision has been made.
	Filler CacheFiller

	// Clock provides the current time for staleness decisions.
	// If nil, SystemClock is used.
	Clock Clock

	// Policy decides staleness from the current time and the recorded expiry.
	// If nil, expiration.GeneralExpirationPolicy is used.
	Policy expiration.ExpirationPolicy

	// Disabled puts the controller in pass-through mode: render callbacks run
	// directly and the store is never touched.
	Disabled bool
}

func (c *ExpiryController) clock() Clock {
	if c.Clock == nil {
		return SystemClock
	}
	return c.Clock
}

func (c *ExpiryController) policy() expiration.ExpirationPolicy {
	if c.Policy == nil {
		return expiration.GeneralExpirationPolicy{}
	}
	return c.Policy
}

// IsExpired reports whether the fragment for the given name is stale.
// It is true when no meta record exists, when the stored meta record does not
// decode, or when the policy considers the recorded expiry stale. A meta
// record with a future expiry is fresh. It has no side effects; store read
// errors are returned unchanged.
func (c *ExpiryController) IsExpired(ctx context.Context, name any) (bool, error) {
	data, err := c.Store.Read(ctx, FragmentKey(name)+MetaSuffix)
	if err != nil {
		return false, err
	}

	record, ok := DecodeMeta(data)
	if !ok {
		// Absent or foreign bytes under the meta key: fail open toward
		// recomputation, never toward serving unknown-age content.
		return true, nil
	}
	return c.policy().IsExpired(c.clock().Now(), record.ExpiresAt), nil
}

// ExpireAndRecord deletes the fragment for the given name unconditionally and,
// when expiresAt is non-zero, writes a fresh meta record with that timestamp.
// With a zero expiresAt no meta record is written and the entry behaves as a
// plain non-expiring cache until a later call supplies an expiry again.
func (c *ExpiryController) ExpireAndRecord(ctx context.Context, name any, expiresAt time.Time) error {
	key := FragmentKey(name)
	if err := c.Store.Delete(ctx, key); err != nil {
		return err
	}
	if expiresAt.IsZero() {
		return nil
	}
	return c.Store.Write(ctx, key+MetaSuffix, EncodeMeta(MetaRecord{ExpiresAt: expiresAt}))
}

// CacheWithExpiry returns the fragment for the given name, re-rendering it
// when the recorded expiry has passed.
//
// In pass-through mode the render callback runs directly with no store
// interaction. A zero expiresAt skips the expiry branch entirely: the meta
// record is neither read nor written and the call defers to the filler's
// native behavior. Otherwise a stale fragment is deleted and the new expiry
// recorded before delegating, so the filler sees a genuine miss and re-renders
// exactly when the controller decided staleness.
func (c *ExpiryController) CacheWithExpiry(ctx context.Context, name any, expiresAt time.Time, render RenderFunc) ([]byte, error) {
	if c.Disabled {
		return render(ctx)
	}

	if !expiresAt.IsZero() {
		expired, err := c.IsExpired(ctx, name)
		if err != nil {
			return nil, err
		}
		if expired {
			if err := c.ExpireAndRecord(ctx, name, expiresAt); err != nil {
				return nil, err
			}
		}
	}
	return c.Filler.Fill(ctx, FragmentKey(name), render)
}

// RunIfExpired invokes the action only when the fragment for the given name is
// stale, then deletes the fragment and records the new expiry. The fragment
// deletion is unconditional once staleness is observed, even though the action
// does not produce the fragment content itself: deleting forces the next
// declarative render to recompute, which is how a caller signals "the
// expensive thing was just recomputed, reset the clock". When the fragment is
// fresh the action is not invoked and nothing is mutated.
func (c *ExpiryController) RunIfExpired(ctx context.Context, name any, expiresAt time.Time, action ActionFunc) error {
	expired, err := c.IsExpired(ctx, name)
	if err != nil {
		return err
	}
	if !expired {
		return nil
	}

	if err := action(ctx); err != nil {
		return err
	}
	return c.ExpireAndRecord(ctx, name, expiresAt)
}
