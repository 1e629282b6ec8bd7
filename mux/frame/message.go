package frame

import "fmt"

const (
	msgCreateChannel byte = iota
	msgDeleteChannel
	msgChannelByteData
	msgChannelObjectData
	msgMeaningless
)

// Message is one frame on the wire.
type Message interface {
	// Channel returns the channel name the message addresses, if any.
	Channel() (string, bool)
	String() string
	Bytes() []byte
}

// Type returns the message type byte of msg.
func Type(msg Message) byte {
	switch msg.(type) {
	case CreateChannelMessage, *CreateChannelMessage:
		return msgCreateChannel
	case DeleteChannelMessage, *DeleteChannelMessage:
		return msgDeleteChannel
	case ByteDataMessage, *ByteDataMessage:
		return msgChannelByteData
	case ObjectDataMessage, *ObjectDataMessage:
		return msgChannelObjectData
	default:
		return msgMeaningless
	}
}

// TypeName returns a short label for a message type byte.
func TypeName(t byte) string {
	switch t {
	case msgCreateChannel:
		return "create"
	case msgDeleteChannel:
		return "delete"
	case msgChannelByteData:
		return "bytes"
	case msgChannelObjectData:
		return "object"
	case msgMeaningless:
		return "meaningless"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

type CreateChannelMessage struct {
	Name string
}

func (msg CreateChannelMessage) String() string {
	return fmt.Sprintf("{CreateChannelMessage Name:%q}", msg.Name)
}

func (msg CreateChannelMessage) Channel() (string, bool) {
	return msg.Name, true
}

func (msg CreateChannelMessage) Bytes() []byte {
	packet := []byte{msgCreateChannel}
	return appendString(packet, msg.Name)
}

type DeleteChannelMessage struct {
	Name string
}

func (msg DeleteChannelMessage) String() string {
	return fmt.Sprintf("{DeleteChannelMessage Name:%q}", msg.Name)
}

func (msg DeleteChannelMessage) Channel() (string, bool) {
	return msg.Name, true
}

func (msg DeleteChannelMessage) Bytes() []byte {
	packet := []byte{msgDeleteChannel}
	return appendString(packet, msg.Name)
}

type ByteDataMessage struct {
	Name string
	Data []byte
}

func (msg ByteDataMessage) String() string {
	return fmt.Sprintf("{ByteDataMessage Name:%q Length:%d Data: ... }",
		msg.Name, len(msg.Data))
}

func (msg ByteDataMessage) Channel() (string, bool) {
	return msg.Name, true
}

func (msg ByteDataMessage) Bytes() []byte {
	packet := make([]byte, 1, 1+stringSize(msg.Name)+bytesSize(msg.Data))
	packet[0] = msgChannelByteData
	packet = appendString(packet, msg.Name)
	return appendBytes(packet, msg.Data)
}

type ObjectDataMessage struct {
	Name string
	Tag  string
	Data []byte
}

func (msg ObjectDataMessage) String() string {
	return fmt.Sprintf("{ObjectDataMessage Name:%q Tag:%q Length:%d Data: ... }",
		msg.Name, msg.Tag, len(msg.Data))
}

func (msg ObjectDataMessage) Channel() (string, bool) {
	return msg.Name, true
}

func (msg ObjectDataMessage) Bytes() []byte {
	packet := make([]byte, 1, 1+stringSize(msg.Name)+stringSize(msg.Tag)+bytesSize(msg.Data))
	packet[0] = msgChannelObjectData
	packet = appendString(packet, msg.Name)
	packet = appendString(packet, msg.Tag)
	return appendBytes(packet, msg.Data)
}

// MeaninglessMessage carries no body. It keeps a connection busy or probes
// that the peer is still reading.
type MeaninglessMessage struct{}

func (msg MeaninglessMessage) String() string {
	return "{MeaninglessMessage}"
}

func (msg MeaninglessMessage) Channel() (string, bool) {
	return "", false
}

func (msg MeaninglessMessage) Bytes() []byte {
	return []byte{msgMeaningless}
}
