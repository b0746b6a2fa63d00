package fragmentcache

import (
	"time"
)

// MetaSuffix is appended to a fragment key to form the key of its meta record.
const MetaSuffix = "_meta"

// MetaRecord is the expiry companion record of a fragment.
// It is stored under the fragment key plus MetaSuffix and holds nothing but
// the point in time after which the fragment is considered stale.
// A meta record may exist without its fragment and vice versa.
type MetaRecord struct {
	// ExpiresAt is the expiration time of the fragment.
	ExpiresAt time.Time
}

// metaLayout is the wire format of a meta record.
// RFC 3339 text round-trips a point in time and stays readable in any store.
const metaLayout = time.RFC3339Nano

// EncodeMeta encodes a meta record into the bytes stored under the meta key.
func EncodeMeta(record MetaRecord) []byte {
	return []byte(record.ExpiresAt.UTC().Format(metaLayout))
}

// DecodeMeta decodes the bytes stored under a meta key.
// It reports ok=false for nil, empty, or unparseable input instead of returning
// an error: foreign bytes under a meta key must read as "no meta record", never
// as a failure the caller has to handle.
func DecodeMeta(data []byte) (MetaRecord, bool) {
	if len(data) == 0 {
		return MetaRecord{}, false
	}
	expiresAt, err := time.Parse(metaLayout, string(data))
	if err != nil {
		return MetaRecord{}, false
	}
	return MetaRecord{ExpiresAt: expiresAt}, true
}
