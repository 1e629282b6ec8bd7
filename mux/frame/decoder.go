package frame

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

var (
	// ErrUnknownMessage is returned for a message type byte outside the protocol.
	ErrUnknownMessage = errors.New("frame: unknown message type")

	// ErrFrameTooLarge is returned when a length prefix exceeds MaxPayloadLength.
	ErrFrameTooLarge = errors.New("frame: length exceeds limit")
)

// Decoder decodes messages given an io.Reader. It never reads past the
// end of the frame it is decoding. A Decoder is meant to be used by a
// single goroutine.
type Decoder struct {
	br byteReader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{br: byteReader{r: r}}
}

// Decode reads the next message. It returns io.EOF only when the reader
// ends cleanly on a frame boundary; a frame cut short yields
// io.ErrUnexpectedEOF.
func (dec *Decoder) Decode() (Message, error) {
	msgNum, err := dec.br.ReadByte()
	if err != nil {
		var syscallErr *os.SyscallError
		if errors.As(err, &syscallErr) && syscallErr.Err == syscall.ECONNRESET {
			return nil, io.EOF
		}
		return nil, err
	}

	msg, err := dec.decodeBody(msgNum)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	if Debug != nil {
		fmt.Fprintln(Debug, ">>DEC", msg)
	}

	return msg, nil
}

func (dec *Decoder) decodeBody(msgNum byte) (Message, error) {
	br := &dec.br
	switch msgNum {
	case msgCreateChannel:
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		return &CreateChannelMessage{Name: name}, nil

	case msgDeleteChannel:
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		return &DeleteChannelMessage{Name: name}, nil

	case msgChannelByteData:
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		data, err := readBytes(br)
		if err != nil {
			return nil, err
		}
		return &ByteDataMessage{Name: name, Data: data}, nil

	case msgChannelObjectData:
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		tag, err := readString(br)
		if err != nil {
			return nil, err
		}
		data, err := readBytes(br)
		if err != nil {
			return nil, err
		}
		return &ObjectDataMessage{Name: name, Tag: tag, Data: data}, nil

	case msgMeaningless:
		return &MeaninglessMessage{}, nil

	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownMessage, msgNum)
	}
}
