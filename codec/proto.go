package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// ProtoSerializer encodes protobuf messages of the same message type as
// prototype using the binary wire format.
func ProtoSerializer(prototype proto.Message) Serializer {
	return protoSerializer{prototype}
}

type protoSerializer struct {
	prototype proto.Message
}

func (s protoSerializer) Encode(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want proto.Message", ErrTypeMismatch, v)
	}
	return proto.Marshal(m)
}

func (s protoSerializer) Decode(data []byte) (any, error) {
	m := s.prototype.ProtoReflect().New().Interface()
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterProto registers a ProtoSerializer matching messages with the same
// full name as prototype and returns the tag used. An empty tag defaults to
// the message full name.
func RegisterProto(r *Registry, tag string, prototype proto.Message) string {
	name := prototype.ProtoReflect().Descriptor().FullName()
	if tag == "" {
		tag = string(name)
	}
	r.Register(tag, func(v any) bool {
		m, ok := v.(proto.Message)
		return ok && m.ProtoReflect().Descriptor().FullName() == name
	}, ProtoSerializer(prototype))
	return tag
}
