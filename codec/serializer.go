package codec

import (
	"bytes"
	"fmt"
	"reflect"
)

// TypeName returns the Go name of T, used as the default tag.
func TypeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// TypedSerializer is a Serializer for a single type T.
type TypedSerializer[T any] interface {
	Serialize(v T) ([]byte, error)
	Deserialize(data []byte) (T, error)
}

// Typed adapts a TypedSerializer to the Serializer interface.
func Typed[T any](s TypedSerializer[T]) Serializer {
	return typedSerializer[T]{s}
}

type typedSerializer[T any] struct {
	s TypedSerializer[T]
}

func (t typedSerializer[T]) Encode(v any) ([]byte, error) {
	tv, ok := v.(T)
	if !ok {
		return nil, mismatch[T](v)
	}
	return t.s.Serialize(tv)
}

func (t typedSerializer[T]) Decode(data []byte) (any, error) {
	return t.s.Deserialize(data)
}

// RegisterTyped registers s for values of type T and returns the tag used.
// An empty tag defaults to TypeName[T]().
func RegisterTyped[T any](r *Registry, tag string, s TypedSerializer[T]) string {
	if tag == "" {
		tag = TypeName[T]()
	}
	r.Register(tag, Match[T](), Typed(s))
	return tag
}

// CodecSerializer returns a Serializer that uses c to encode values of
// type T and decodes payloads into a fresh T.
func CodecSerializer[T any](c Codec) Serializer {
	return codecSerializer[T]{c}
}

type codecSerializer[T any] struct {
	c Codec
}

func (s codecSerializer[T]) Encode(v any) ([]byte, error) {
	if _, ok := v.(T); !ok {
		return nil, mismatch[T](v)
	}
	var buf bytes.Buffer
	if err := s.c.Encoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s codecSerializer[T]) Decode(data []byte) (any, error) {
	var v T
	if err := s.c.Decoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// RegisterType registers c as the encoding for values of type T and
// returns the tag used. An empty tag defaults to TypeName[T]().
func RegisterType[T any](r *Registry, tag string, c Codec) string {
	if tag == "" {
		tag = TypeName[T]()
	}
	r.Register(tag, Match[T](), CodecSerializer[T](c))
	return tag
}

func mismatch[T any](v any) error {
	return fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, v, TypeName[T]())
}
