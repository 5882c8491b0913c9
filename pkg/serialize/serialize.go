// SPDX-License-Identifier: AGPL-3.0-or-later

// Package serialize implements the wire-serialization primitives shared by
// every hopline message type: an ordered, string-keyed Dict that marshals
// to JSON deterministically, a Diff helper used to build the minimal-diff
// ("min-to-dict") encoding, and small defensive accessors used by the
// various FromDict-style constructors spread across pkg/message.
package serialize

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Dict is an ordered, string-keyed mapping used as the structural
// representation for to-dict/min-to-dict style serialization. Values may
// be primitives, []any, or *Dict. Ordering is preserved on emission so
// that minimal-diff encodings are byte-for-byte deterministic; callers
// reading incoming data (via FromJSON) should never depend on order.
type Dict struct {
	keys   []string
	values map[string]any
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{values: make(map[string]any)}
}

// Set assigns key to val, appending key to the emission order the first
// time it is seen. Returns the receiver so calls can be chained.
func (d *Dict) Set(key string, val any) *Dict {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = val
	return d
}

// Prepend assigns key to val, inserting key at the front of the emission
// order the first time it is seen. It can put a key such as a sum type's
// "type" discriminator first regardless of what order the other fields
// were built in; the types in pkg/message set "type" first themselves
// and do not call it.
func (d *Dict) Prepend(key string, val any) *Dict {
	if _, exists := d.values[key]; !exists {
		d.keys = append([]string{key}, d.keys...)
	}
	d.values[key] = val
	return d
}

// Get returns the value stored at key, if any.
func (d *Dict) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the Dict's keys in emission order.
func (d *Dict) Keys() []string {
	return d.keys
}

// Len returns the number of keys in the Dict.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// MarshalJSON emits the Dict's keys in insertion order.
func (d *Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Diff computes full - defaults: a copy of full retaining only keys whose
// value differs from the same key in defaults, and dropping any key whose
// value is itself an empty nested Dict. This is the generic half of
// min-to-dict; each domain type supplies "full" (built by recursing with
// MinDict on its own Serializable children) and "defaults" (the ToDict of
// a zero-value instance of the same type).
func Diff(full, defaults *Dict) *Dict {
	out := NewDict()
	for _, k := range full.keys {
		v := full.values[k]
		if nested, ok := v.(*Dict); ok && nested.Len() == 0 {
			continue
		}
		if dv, exists := defaults.values[k]; exists && reflect.DeepEqual(v, dv) {
			continue
		}
		out.Set(k, v)
	}
	return out
}

// ToJSON marshals any Dict (full or minimal) as compact JSON.
func ToJSON(d *Dict) string {
	b, err := json.Marshal(d)
	if err != nil {
		// Dict only ever holds JSON-marshalable primitives, []any, and
		// *Dict, so this can only happen if a caller stuffed something
		// else into it; fail loudly rather than emit corrupt wire data.
		panic("serialize: ToJSON: " + err.Error())
	}
	return string(b)
}

// FromJSON decodes s into a generic map suitable for the FromDict-style
// constructors in pkg/message.
func FromJSON(s string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// --- defensive accessors for FromDict constructors ---
//
// Every FromDict-style constructor pulls values out of a map[string]any
// decoded from JSON or YAML. These helpers implement the "missing values
// become typed zero values, not errors" rule from the data model
// invariants.

// Str returns m[key] as a string, or def if missing or not a string.
func Str(m map[string]any, key, def string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns m[key] as a bool, or def if missing or not a bool.
func Bool(m map[string]any, key string, def bool) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns m[key] as an int, or def if missing or not numeric.
// JSON numbers decode to float64 via encoding/json's default map[string]any
// target, so this also handles that case.
func Int(m map[string]any, key string, def int) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// SubDict returns m[key] as a map[string]any, or an empty map if missing or
// not a map.
func SubDict(m map[string]any, key string) map[string]any {
	if v, ok := m[key]; ok {
		if d, ok := v.(map[string]any); ok {
			return d
		}
	}
	return map[string]any{}
}

// Slice returns m[key] as a []any, or nil if missing or not a slice.
func Slice(m map[string]any, key string) []any {
	if v, ok := m[key]; ok {
		if s, ok := v.([]any); ok {
			return s
		}
	}
	return nil
}

// StrSlice returns m[key] as a []string, tolerating non-string elements
// by skipping them, or nil if missing or not a slice.
func StrSlice(m map[string]any, key string) []string {
	raw := Slice(m, key)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
