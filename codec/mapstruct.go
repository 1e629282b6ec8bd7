package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/mitchellh/mapstructure"
)

var mapDecMode, _ = cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]any(nil)),
}.DecMode()

// MapSerializer encodes a struct of type T as a CBOR map of its fields and
// decodes by field name, so peers may use different struct definitions as
// long as the field names line up. Field names follow mapstructure tags.
func MapSerializer[T any]() Serializer {
	return mapSerializer[T]{}
}

type mapSerializer[T any] struct{}

func (mapSerializer[T]) Encode(v any) ([]byte, error) {
	if _, ok := v.(T); !ok {
		return nil, mismatch[T](v)
	}
	var m map[string]any
	if err := mapstructure.Decode(v, &m); err != nil {
		return nil, err
	}
	return cbor.Marshal(m)
}

func (mapSerializer[T]) Decode(data []byte) (any, error) {
	var m map[string]any
	if err := mapDecMode.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	var v T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &v,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, err
	}
	return v, nil
}

// RegisterMap registers a MapSerializer for T and returns the tag used.
// An empty tag defaults to TypeName[T]().
func RegisterMap[T any](r *Registry, tag string) string {
	if tag == "" {
		tag = TypeName[T]()
	}
	r.Register(tag, Match[T](), MapSerializer[T]())
	return tag
}
