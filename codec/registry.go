package codec

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoSerializer is returned when no registered entry accepts a value.
	ErrNoSerializer = errors.New("codec: no serializer for value")

	// ErrUnknownTag is returned when a wire tag has no registered entry.
	ErrUnknownTag = errors.New("codec: unknown type tag")

	// ErrTypeMismatch is returned when a serializer is handed a value of
	// a type it was not registered for.
	ErrTypeMismatch = errors.New("codec: value does not match serializer type")
)

// Matcher reports whether a registry entry accepts v for encoding.
type Matcher func(v any) bool

// Match returns a Matcher accepting values assignable to T. For a concrete
// T this is an exact type match, for an interface T any value implementing it.
func Match[T any]() Matcher {
	return func(v any) bool {
		_, ok := v.(T)
		return ok
	}
}

type entry struct {
	tag   string
	match Matcher
	s     Serializer
}

// Registry maps values to serializers. Encoding walks the entries in
// registration order and uses the first one whose Matcher accepts the
// value. Decoding resolves the tag carried on the wire. A Registry is
// safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a serializer under tag. Registering an existing tag
// replaces that entry in place, keeping its position in the lookup order.
func (r *Registry) Register(tag string, match Matcher, s Serializer) {
	if tag == "" {
		panic("codec: empty tag")
	}
	if match == nil || s == nil {
		panic("codec: nil matcher or serializer")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].tag == tag {
			r.entries[i] = entry{tag: tag, match: match, s: s}
			return
		}
	}
	r.entries = append(r.entries, entry{tag: tag, match: match, s: s})
}

// Unregister removes the entry for tag and reports whether it existed.
func (r *Registry) Unregister(tag string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].tag == tag {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup returns the tag and serializer of the first entry accepting v.
func (r *Registry) Lookup(v any) (string, Serializer, error) {
	if v == nil {
		return "", nil, fmt.Errorf("%w: <nil>", ErrNoSerializer)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.match(v) {
			return e.tag, e.s, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %T", ErrNoSerializer, v)
}

// Resolve returns the serializer registered under tag.
func (r *Registry) Resolve(tag string) (Serializer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.tag == tag {
			return e.s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
}

// Encode serializes v with the first matching entry and returns its tag.
func (r *Registry) Encode(v any) (string, []byte, error) {
	tag, s, err := r.Lookup(v)
	if err != nil {
		return "", nil, err
	}
	data, err := s.Encode(v)
	if err != nil {
		return "", nil, fmt.Errorf("codec: encode %q: %w", tag, err)
	}
	return tag, data, nil
}

// Decode deserializes data with the serializer registered under tag.
func (r *Registry) Decode(tag string, data []byte) (any, error) {
	s, err := r.Resolve(tag)
	if err != nil {
		return nil, err
	}
	v, err := s.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("codec: decode %q: %w", tag, err)
	}
	return v, nil
}

// Tags returns the registered tags in lookup order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		tags = append(tags, e.tag)
	}
	return tags
}
