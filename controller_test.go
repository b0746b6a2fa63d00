package fragmentcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	fragmentcache "github.com/fragcache/fragment-cache"
	"github.com/fragcache/fragment-cache/filler/purefiller"
	"github.com/fragcache/fragment-cache/store"
	"github.com/fragcache/fragment-cache/store/memstore"
	"github.com/google/go-cmp/cmp"
)

// recordingStore wraps a FragmentStore and records every key each operation touches.
type recordingStore struct {
	fragmentcache.FragmentStore

	reads   []string
	writes  []string
	deletes []string
}

func (s *recordingStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.reads = append(s.reads, key)
	return s.FragmentStore.Read(ctx, key)
}

func (s *recordingStore) Write(ctx context.Context, key string, data []byte) error {
	s.writes = append(s.writes, key)
	return s.FragmentStore.Write(ctx, key, data)
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return s.FragmentStore.Delete(ctx, key)
}

func newTestController(clock fragmentcache.Clock) (*fragmentcache.ExpiryController, *recordingStore) {
	recording := &recordingStore{
		FragmentStore: memstore.NewInMemoryStore(memstore.WithBucketsSize(1)),
	}
	return &fragmentcache.ExpiryController{
		Store:  recording,
		Filler: purefiller.NewPureFiller(recording),
		Clock:  clock,
	}, recording
}

func TestExpiryController_IsExpired(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := fragmentcache.ClockFunc(func() time.Time { return base })

	t.Run("no meta record", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(clock)
		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if !expired {
			t.Error("a name with no meta record should be expired")
		}
	})

	t.Run("future timestamp", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(clock)
		if err := controller.ExpireAndRecord(t.Context(), "page1", base.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}

		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if expired {
			t.Error("a future expiry should not be expired")
		}
	})

	t.Run("past timestamp", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(clock)
		if err := controller.ExpireAndRecord(t.Context(), "page1", base.Add(-time.Minute)); err != nil {
			t.Fatal(err)
		}

		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if !expired {
			t.Error("a past expiry should be expired")
		}
	})

	t.Run("timestamp exactly now", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(clock)
		if err := controller.ExpireAndRecord(t.Context(), "page1", base); err != nil {
			t.Fatal(err)
		}

		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if expired {
			t.Error("an expiry exactly at the current time should not be expired yet")
		}
	})

	t.Run("unparseable meta record", func(t *testing.T) {
		t.Parallel()

		controller, recording := newTestController(clock)
		key := fragmentcache.FragmentKey("page1") + fragmentcache.MetaSuffix
		if err := recording.Write(t.Context(), key, []byte("not a timestamp")); err != nil {
			t.Fatal(err)
		}

		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if !expired {
			t.Error("foreign bytes under the meta key should read as expired")
		}
	})

	t.Run("idempotent without intervening writes", func(t *testing.T) {
		t.Parallel()

		controller, recording := newTestController(clock)
		if err := controller.ExpireAndRecord(t.Context(), "page1", base.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}

		writes := len(recording.writes)
		deletes := len(recording.deletes)
		for i := 0; i < 10; i++ {
			expired, err := controller.IsExpired(t.Context(), "page1")
			if err != nil {
				t.Fatal(err)
			}
			if expired {
				t.Fatalf("call %d: expected not expired", i)
			}
		}
		if len(recording.writes) != writes || len(recording.deletes) != deletes {
			t.Error("IsExpired must not mutate the store")
		}
	})

	t.Run("store read error propagates", func(t *testing.T) {
		t.Parallel()

		readErr := errors.New("store down")
		controller := &fragmentcache.ExpiryController{
			Store: &store.FunctionsStore{
				ReadFunc: func(context.Context, string) ([]byte, error) {
					return nil, readErr
				},
			},
			Clock: clock,
		}
		if _, err := controller.IsExpired(t.Context(), "page1"); !errors.Is(err, readErr) {
			t.Fatalf("expected store error, got %v", err)
		}
	})
}

func TestExpiryController_ExpireAndRecord(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := fragmentcache.ClockFunc(func() time.Time { return base })

	t.Run("deletes fragment and stamps new expiry", func(t *testing.T) {
		t.Parallel()

		controller, recording := newTestController(clock)
		key := fragmentcache.FragmentKey("page1")
		if err := recording.FragmentStore.Write(t.Context(), key, []byte("stale body")); err != nil {
			t.Fatal(err)
		}

		if err := controller.ExpireAndRecord(t.Context(), "page1", base.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}

		data, err := recording.FragmentStore.Read(t.Context(), key)
		if err != nil {
			t.Fatal(err)
		}
		if data != nil {
			t.Errorf("fragment should be deleted, got %q", data)
		}

		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if expired {
			t.Error("future expiry just recorded should not be expired")
		}
	})

	t.Run("past timestamp stays expired", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(clock)
		if err := controller.ExpireAndRecord(t.Context(), "page1", base.Add(-time.Second)); err != nil {
			t.Fatal(err)
		}

		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if !expired {
			t.Error("past expiry just recorded should be expired")
		}
	})

	t.Run("zero timestamp writes no meta record", func(t *testing.T) {
		t.Parallel()

		controller, recording := newTestController(clock)
		if err := controller.ExpireAndRecord(t.Context(), "page1", time.Time{}); err != nil {
			t.Fatal(err)
		}

		if len(recording.writes) != 0 {
			t.Errorf("no meta record should be written, wrote %v", recording.writes)
		}

		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if !expired {
			t.Error("a name without meta should read as expired")
		}
	})
}

func TestExpiryController_CacheWithExpiry(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no meta renders then serves from cache", func(t *testing.T) {
		t.Parallel()

		now := base
		clock := fragmentcache.ClockFunc(func() time.Time { return now })
		controller, recording := newTestController(clock)

		renders := 0
		render := func(context.Context) ([]byte, error) {
			renders++
			return []byte("rendered body"), nil
		}

		data, err := controller.CacheWithExpiry(t.Context(), "page1", now.Add(10*time.Minute), render)
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff("rendered body", string(data)); df != "" {
			t.Errorf("fragment diff=%s", df)
		}
		if renders != 1 {
			t.Fatalf("render should run once on first fill, ran %d times", renders)
		}
		deletes := len(recording.deletes)

		// Within the expiry window the fragment is served from the base cache.
		now = base.Add(5 * time.Minute)
		data, err = controller.CacheWithExpiry(t.Context(), "page1", now.Add(10*time.Minute), render)
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff("rendered body", string(data)); df != "" {
			t.Errorf("fragment diff=%s", df)
		}
		if renders != 1 {
			t.Errorf("render should not run again within the window, ran %d times", renders)
		}
		if len(recording.deletes) != deletes {
			t.Errorf("fragment should not be deleted within the window, deletes %v", recording.deletes)
		}
	})

	t.Run("stale meta forces recomputation", func(t *testing.T) {
		t.Parallel()

		clock := fragmentcache.ClockFunc(func() time.Time { return base })
		controller, recording := newTestController(clock)

		key := fragmentcache.FragmentKey("page1")
		if err := recording.FragmentStore.Write(t.Context(), key, []byte("stale body")); err != nil {
			t.Fatal(err)
		}
		if err := recording.FragmentStore.Write(t.Context(), key+fragmentcache.MetaSuffix,
			fragmentcache.EncodeMeta(fragmentcache.MetaRecord{ExpiresAt: base.Add(-time.Minute)})); err != nil {
			t.Fatal(err)
		}

		renders := 0
		data, err := controller.CacheWithExpiry(t.Context(), "page1", base.Add(10*time.Minute), func(context.Context) ([]byte, error) {
			renders++
			return []byte("fresh body"), nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff("fresh body", string(data)); df != "" {
			t.Errorf("fragment diff=%s", df)
		}
		if renders != 1 {
			t.Errorf("stale fragment must force a re-render, ran %d times", renders)
		}

		// The new meta record keeps the fragment fresh.
		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if expired {
			t.Error("freshly stamped fragment should not be expired")
		}
	})

	t.Run("zero expiry never touches meta", func(t *testing.T) {
		t.Parallel()

		clock := fragmentcache.ClockFunc(func() time.Time { return base })
		controller, recording := newTestController(clock)

		metaKey := fragmentcache.FragmentKey("page1") + fragmentcache.MetaSuffix
		if _, err := controller.CacheWithExpiry(t.Context(), "page1", time.Time{}, func(context.Context) ([]byte, error) {
			return []byte("body"), nil
		}); err != nil {
			t.Fatal(err)
		}

		for _, read := range recording.reads {
			if read == metaKey {
				t.Error("zero expiry must not read the meta record")
			}
		}
		for _, write := range recording.writes {
			if write == metaKey {
				t.Error("zero expiry must not write the meta record")
			}
		}
		if len(recording.deletes) != 0 {
			t.Errorf("zero expiry must not delete anything, deleted %v", recording.deletes)
		}
	})

	t.Run("disabled mode is pure pass-through", func(t *testing.T) {
		t.Parallel()

		clock := fragmentcache.ClockFunc(func() time.Time { return base })
		controller, recording := newTestController(clock)
		controller.Disabled = true

		renders := 0
		data, err := controller.CacheWithExpiry(t.Context(), "page1", base.Add(10*time.Minute), func(context.Context) ([]byte, error) {
			renders++
			return []byte("direct body"), nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff("direct body", string(data)); df != "" {
			t.Errorf("fragment diff=%s", df)
		}
		if renders != 1 {
			t.Errorf("render should run directly, ran %d times", renders)
		}
		if len(recording.reads)+len(recording.writes)+len(recording.deletes) != 0 {
			t.Error("disabled mode must not interact with the store")
		}
	})

	t.Run("render error propagates", func(t *testing.T) {
		t.Parallel()

		clock := fragmentcache.ClockFunc(func() time.Time { return base })
		controller, _ := newTestController(clock)

		renderErr := errors.New("render failed")
		_, err := controller.CacheWithExpiry(t.Context(), "page1", base.Add(time.Minute), func(context.Context) ([]byte, error) {
			return nil, renderErr
		})
		if !errors.Is(err, renderErr) {
			t.Fatalf("expected render error, got %v", err)
		}
	})
}

func TestExpiryController_RunIfExpired(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := fragmentcache.ClockFunc(func() time.Time { return base })

	t.Run("fresh fragment does nothing", func(t *testing.T) {
		t.Parallel()

		controller, recording := newTestController(clock)
		if err := controller.ExpireAndRecord(t.Context(), "page1", base.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}
		writes := len(recording.writes)
		deletes := len(recording.deletes)

		actions := 0
		if err := controller.RunIfExpired(t.Context(), "page1", base.Add(time.Hour), func(context.Context) error {
			actions++
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		if actions != 0 {
			t.Errorf("action must not run for a fresh fragment, ran %d times", actions)
		}
		if len(recording.writes) != writes || len(recording.deletes) != deletes {
			t.Error("fresh fragment must not be mutated")
		}
	})

	t.Run("expired fragment runs action once and resets the clock", func(t *testing.T) {
		t.Parallel()

		controller, recording := newTestController(clock)
		key := fragmentcache.FragmentKey("page1")
		if err := recording.FragmentStore.Write(t.Context(), key, []byte("stale body")); err != nil {
			t.Fatal(err)
		}

		actions := 0
		if err := controller.RunIfExpired(t.Context(), "page1", base.Add(time.Hour), func(context.Context) error {
			actions++
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		if actions != 1 {
			t.Fatalf("action should run exactly once, ran %d times", actions)
		}

		// The fragment is deleted even though the action did not produce it.
		data, err := recording.FragmentStore.Read(t.Context(), key)
		if err != nil {
			t.Fatal(err)
		}
		if data != nil {
			t.Errorf("fragment should be deleted after the action, got %q", data)
		}

		expired, err := controller.IsExpired(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if expired {
			t.Error("the new expiry should keep the name fresh")
		}
	})

	t.Run("action error skips the expiry reset", func(t *testing.T) {
		t.Parallel()

		controller, recording := newTestController(clock)
		actionErr := errors.New("recompute failed")
		if err := controller.RunIfExpired(t.Context(), "page1", base.Add(time.Hour), func(context.Context) error {
			return actionErr
		}); !errors.Is(err, actionErr) {
			t.Fatalf("expected action error, got %v", err)
		}
		if len(recording.writes)+len(recording.deletes) != 0 {
			t.Error("a failed action must not mutate the store")
		}
	})
}
