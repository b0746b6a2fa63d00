package fragmentcache

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/goccy/go-reflect"
)

// FragmentKey derives the store key for a possibly-structured fragment name.
//
// Strings pass through unchanged. Integers and fmt.Stringer values format
// naturally. Slice elements are keyed recursively and joined with "/".
// Maps emit sorted "k=v" pairs joined with "&" so that equal maps always
// derive equal keys. Structs emit exported fields in declaration order as
// "field=value" pairs joined with "&".
func FragmentKey(name any) string {
	switch v := name.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case []string:
		b := keyBufferPool.Get()
		defer keyBufferPool.Put(b)
		for i, s := range v {
			if i != 0 {
				_ = b.WriteByte('/')
			}
			_, _ = b.WriteString(s)
		}
		return b.String()
	case []any:
		b := keyBufferPool.Get()
		defer keyBufferPool.Put(b)
		for i, e := range v {
			if i != 0 {
				_ = b.WriteByte('/')
			}
			_, _ = b.WriteString(FragmentKey(e))
		}
		return b.String()
	default:
		return reflectFragmentKey(reflect.ValueOf(name))
	}
}

// reflectFragmentKey derives a key for types without a dedicated case in FragmentKey.
func reflectFragmentKey(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return FragmentKey(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		b := keyBufferPool.Get()
		defer keyBufferPool.Put(b)
		for i := 0; i != rv.Len(); i++ {
			if i != 0 {
				_ = b.WriteByte('/')
			}
			_, _ = b.WriteString(FragmentKey(rv.Index(i).Interface()))
		}
		return b.String()
	case reflect.Map:
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, FragmentKey(iter.Key().Interface())+"="+FragmentKey(iter.Value().Interface()))
		}
		sort.Strings(pairs)

		b := keyBufferPool.Get()
		defer keyBufferPool.Put(b)
		for i, pair := range pairs {
			if i != 0 {
				_ = b.WriteByte('&')
			}
			_, _ = b.WriteString(pair)
		}
		return b.String()
	case reflect.Struct:
		rt := rv.Type()
		b := keyBufferPool.Get()
		defer keyBufferPool.Put(b)
		for i, n := 0, rt.NumField(); i != n; i++ {
			field := rt.Field(i)
			if field.PkgPath != "" {
				continue
			}
			if b.Len() != 0 {
				_ = b.WriteByte('&')
			}
			_, _ = b.WriteString(field.Name)
			_ = b.WriteByte('=')
			_, _ = b.WriteString(FragmentKey(rv.Field(i).Interface()))
		}
		return b.String()
	default:
		return fmt.Sprint(rv.Interface())
	}
}

// keyBufferPool is a pool for bytes.Buffer objects used to join key parts.
var keyBufferPool = &resettablePool[*bytes.Buffer]{
	pool: sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 256))
		},
	},
}

// resetter is an interface that defines a Reset method.
// Types that implement this interface can be used with resettablePool.
type resetter interface {
	Reset()
}

// resettablePool is a generic pool for objects that implement the resetter interface.
// It uses a sync.Pool to manage the objects and ensures that they are reset before being reused.
type resettablePool[H resetter] struct {
	pool sync.Pool
}

// Put adds an object to the pool after resetting it.
func (p *resettablePool[H]) Put(h H) {
	h.Reset()
	p.pool.Put(h)
}

// Get retrieves an object from the pool.
func (p *resettablePool[H]) Get() H {
	return p.pool.Get().(H)
}
