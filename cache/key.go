package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MaxKeyLength bounds the canonical encoding of a key.
const MaxKeyLength = 2048

// Key identifies a cache entry. Segments are strings, numbers, booleans, or
// JSON-encodable structs and maps. Two keys are equal when their segments
// have the same canonical JSON encoding, so a struct and a map with the same
// fields name the same entry.
type Key []any

// NewKey builds a key from segments.
func NewKey(segments ...any) Key {
	return Key(segments)
}

// Append returns a new key with extra segments; k is not modified.
func (k Key) Append(segments ...any) Key {
	out := make(Key, 0, len(k)+len(segments))
	out = append(out, k...)
	return append(out, segments...)
}

// String returns the canonical JSON array encoding of the key. Segments that
// cannot be encoded are rendered with %v so String never fails; use
// Canonical to detect them.
func (k Key) String() string {
	s, err := k.Canonical()
	if err != nil {
		return fmt.Sprintf("%v", []any(k))
	}
	return s
}

// Canonical returns the canonical JSON array encoding of the key.
func (k Key) Canonical() (string, error) {
	segs, err := k.segments()
	if err != nil {
		return "", err
	}
	return "[" + strings.Join(segs, ",") + "]", nil
}

// Validate rejects empty, unencodable and oversized keys.
func (k Key) Validate() error {
	if len(k) == 0 {
		return ErrInvalidKey
	}
	s, err := k.Canonical()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(s) > MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

// Equal reports whether k and other name the same entry.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// HasPrefix reports whether prefix matches the leading segments of k. The
// empty key is a prefix of every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	ks, err := k[:len(prefix)].segments()
	if err != nil {
		return false
	}
	ps, err := prefix.segments()
	if err != nil {
		return false
	}
	return hasPrefix(ks, ps)
}

func hasPrefix(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) segments() ([]string, error) {
	out := make([]string, len(k))
	for i, seg := range k {
		b, err := canonicalize(seg)
		if err != nil {
			return nil, fmt.Errorf("cache: segment %d: %w", i, err)
		}
		out[i] = string(b)
	}
	return out, nil
}

// canonicalize produces a deterministic JSON representation of v. Values
// other than plain maps, slices and scalars are first round-tripped through
// encoding/json so structs and maps with equal fields encode identically.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case string, bool, json.Number:
		return json.Marshal(val)
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	switch generic.(type) {
	case map[string]any, []any:
		return canonicalize(generic)
	default:
		return raw, nil
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}
