package fragmentcache

import (
	"context"
	"time"
)

// Helper is the view-facing entry point for expiry-aware fragment caching.
// It is a thin per-request adapter around an explicit ExpiryController
// reference and carries no state of its own; construct one wherever template
// code needs the declarative syntax.
type Helper struct {
	Controller *ExpiryController
}

// NewHelper creates a new Helper bound to the given controller.
func NewHelper(controller *ExpiryController) *Helper {
	return &Helper{Controller: controller}
}

// Cache wraps a render block with expiry-aware caching.
// A zero expiresAt defers entirely to the underlying cache's native behavior.
func (h *Helper) Cache(ctx context.Context, name any, expiresAt time.Time, render RenderFunc) ([]byte, error) {
	return h.Controller.CacheWithExpiry(ctx, name, expiresAt, render)
}

// WhenExpired runs the action only when the named fragment is stale, then
// invalidates the fragment and records the new expiry.
func (h *Helper) WhenExpired(ctx context.Context, name any, expiresAt time.Time, action ActionFunc) error {
	return h.Controller.RunIfExpired(ctx, name, expiresAt, action)
}
