// Package canonical models schema-less JSON documents as a tagged value
// type and produces their deterministic, key-ordered serialization.
package canonical

import (
	"sort"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one of Null, Bool, Number, String, Array or Object.
type Value interface {
	Kind() Kind
}

type Null struct{}

type Bool bool

// Number holds a JSON number literal exactly as it appeared in the source.
type Number string

type String string

type Array []Value

// Object keeps its members in the order they were inserted.
type Object []Member

type Member struct {
	Key   string
	Value Value
}

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind  { return KindArray }
func (Object) Kind() Kind { return KindObject }

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].Key == key {
			return o[i].Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key in place, or appends a new member.
// The receiver is not modified.
func (o Object) Set(key string, value Value) Object {
	out := make(Object, 0, len(o)+1)
	replaced := false
	for _, m := range o {
		if m.Key == key {
			if !replaced {
				out = append(out, Member{Key: key, Value: value})
				replaced = true
			}
			continue
		}
		out = append(out, m)
	}
	if !replaced {
		out = append(out, Member{Key: key, Value: value})
	}
	return out
}

// Without returns a shallow copy of o minus the named top-level keys.
func (o Object) Without(keys ...string) Object {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := make(Object, 0, len(o))
	for _, m := range o {
		if _, ok := drop[m.Key]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Keys lists member keys in insertion order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for _, m := range o {
		keys = append(keys, m.Key)
	}
	return keys
}

// Canonicalize returns an equivalent value whose objects are ordered by
// byte-wise key comparison at every depth. Array element order is kept.
// The input is never modified.
func Canonicalize(v Value) Value {
	switch value := v.(type) {
	case Object:
		members := make(Object, 0, len(value))
		for _, m := range dedupe(value) {
			members = append(members, Member{Key: m.Key, Value: Canonicalize(m.Value)})
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Key < members[j].Key
		})
		return members
	case Array:
		items := make(Array, len(value))
		for i, item := range value {
			items[i] = Canonicalize(item)
		}
		return items
	case nil:
		return Null{}
	default:
		return v
	}
}

// dedupe keeps the last value written for a repeated key.
func dedupe(o Object) Object {
	seen := make(map[string]int, len(o))
	out := make(Object, 0, len(o))
	for _, m := range o {
		if idx, ok := seen[m.Key]; ok {
			out[idx].Value = m.Value
			continue
		}
		seen[m.Key] = len(out)
		out = append(out, m)
	}
	return out
}

// Lookup walks nested objects along path.
func Lookup(v Value, path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		obj, ok := cur.(Object)
		if !ok {
			return nil, false
		}
		next, ok := obj.Get(key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// StringAt returns the string found at path. Missing keys and non-string
// values both report false.
func StringAt(v Value, path ...string) (string, bool) {
	found, ok := Lookup(v, path...)
	if !ok {
		return "", false
	}
	s, ok := found.(String)
	if !ok {
		return "", false
	}
	return string(s), true
}
