// storetest package provides generic test cases for fragment store implementations.
package storetest

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"testing"

	fragmentcache "github.com/fragcache/fragment-cache"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

// BenchmarkWrite benchmarks the Write method of the fragment store.
func BenchmarkWrite(b *testing.B, store fragmentcache.FragmentStore, keys []string) {
	data := []byte("benchmark fragment body")
	ctx := b.Context()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Write(ctx, keys[i%len(keys)], data)
	}
}

// TestBasic tests the basic read/write/delete contract of the fragment store.
func TestBasic(t *testing.T, provider func() (fragmentcache.FragmentStore, func())) {
	t.Run("Basic", func(t *testing.T) {
		t.Parallel()

		store, release := provider()
		defer release()

		data, err := store.Read(t.Context(), "missing")
		if err != nil {
			t.Fatal(err)
		}
		if data != nil {
			t.Errorf("read of missing key should return nil, got %q", data)
		}

		if err := store.Write(t.Context(), "page1", []byte("first")); err != nil {
			t.Fatal(err)
		}
		data, err = store.Read(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff("first", string(data)); df != "" {
			t.Errorf("fragment diff=%s", df)
		}

		if err := store.Write(t.Context(), "page1", []byte("second")); err != nil {
			t.Fatal(err)
		}
		data, err = store.Read(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff("second", string(data)); df != "" {
			t.Errorf("fragment should be overwritten, diff=%s", df)
		}

		if err := store.Delete(t.Context(), "page1"); err != nil {
			t.Fatal(err)
		}
		data, err = store.Read(t.Context(), "page1")
		if err != nil {
			t.Fatal(err)
		}
		if data != nil {
			t.Errorf("read after delete should return nil, got %q", data)
		}

		if err := store.Delete(t.Context(), "page1"); err != nil {
			t.Errorf("deleting a missing key should not fail, got %v", err)
		}
	})
}

// TestAliasing tests that the store does not alias its internal buffers with callers.
func TestAliasing(t *testing.T, provider func() (fragmentcache.FragmentStore, func())) {
	t.Run("Aliasing", func(t *testing.T) {
		t.Parallel()

		store, release := provider()
		defer release()

		input := []byte("original")
		if err := store.Write(t.Context(), "key", input); err != nil {
			t.Fatal(err)
		}

		// Mutating the input after Write must not change the stored fragment.
		input[0] = 'X'
		data, err := store.Read(t.Context(), "key")
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff("original", string(data)); df != "" {
			t.Errorf("stored fragment must not alias the input, diff=%s", df)
		}

		// Mutating the read result must not change the stored fragment either.
		data[0] = 'Y'
		again, err := store.Read(t.Context(), "key")
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff("original", string(again)); df != "" {
			t.Errorf("read result must not alias the stored fragment, diff=%s", df)
		}
	})
}

// TestConsistency tests the read-your-writes behavior of the fragment store under concurrency.
func TestConsistency(t *testing.T, provider func() (fragmentcache.FragmentStore, func())) {
	t.Run("Consistency", func(t *testing.T) {
		t.Parallel()

		store, release := provider()
		defer release()

		type pair struct {
			key  string
			data string
		}
		patterns := make([]pair, 64)
		for i := range patterns {
			patterns[i] = pair{
				key:  "fragment/" + strconv.Itoa(i),
				data: "body-" + strconv.Itoa(i),
			}
		}
		rand.Shuffle(len(patterns), func(i, j int) {
			patterns[i], patterns[j] = patterns[j], patterns[i]
		})

		var eg errgroup.Group
		for _, pattern := range patterns {
			pattern := pattern
			eg.Go(func() error {
				data, err := store.Read(t.Context(), pattern.key)
				if err != nil {
					return err
				} else if data != nil {
					return fmt.Errorf("unexpected exists fragment for key %s", pattern.key)
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		eg = errgroup.Group{}
		for _, pattern := range patterns {
			pattern := pattern
			eg.Go(func() error {
				return store.Write(t.Context(), pattern.key, []byte(pattern.data))
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		eg = errgroup.Group{}
		results := make([][]byte, len(patterns))
		for i, pattern := range patterns {
			i := i
			pattern := pattern
			eg.Go(func() error {
				data, err := store.Read(t.Context(), pattern.key)
				if err != nil {
					return err
				}
				results[i] = data
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		for i, pattern := range patterns {
			if df := cmp.Diff(pattern.data, string(results[i])); df != "" {
				t.Errorf("pattern[%d] key=%s fragment diff=%s", i, pattern.key, df)
			}
		}
	})
}
