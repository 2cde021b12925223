// Package record holds the shape-agnostic document type moved between the
// remote store, the cache and the views.
package record

import (
	"fmt"
	"strconv"
	"time"
)

// IDField is the field that carries the store-assigned document id.
const IDField = "id"

// Record is one remote document: its fields plus IDField.
// Records in a single fetched list have unique ids.
type Record map[string]any

type serverTimestamp struct{}

// ServerTimestamp is a field value placeholder. Stores replace it with their
// own clock on create and update.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp placeholder.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// ID returns the record id or "" if none is set.
func (r Record) ID() string {
	return r.String(IDField)
}

// String returns field k as a string. Numbers and bools are formatted;
// missing fields give "".
func (r Record) String(k string) string {
	switch v := r[k].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns field k as an int. JSON numbers decode as float64, CBOR and
// msgpack as sized ints; all are accepted.
func (r Record) Int(k string) int {
	switch v := r[k].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// Bool returns field k as a bool.
func (r Record) Bool(k string) bool {
	switch v := r[k].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// WithID returns a copy of r with IDField set to id.
func (r Record) WithID(id string) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	out[IDField] = id
	return out
}

// ResolveTimestamps replaces every ServerTimestamp placeholder in r with now,
// formatted as RFC3339Nano.
func (r Record) ResolveTimestamps(now time.Time) Record {
	out := r.Clone()
	for k, v := range out {
		if IsServerTimestamp(v) {
			out[k] = now.UTC().Format(time.RFC3339Nano)
		}
	}
	return out
}

// CloneList copies the list and each record in it.
func CloneList(rs []Record) []Record {
	out := make([]Record, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}
