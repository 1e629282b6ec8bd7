package frame

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		in   Message
		name string
		ok   bool
	}{
		{
			in:   CreateChannelMessage{Name: "master"},
			name: "master",
			ok:   true,
		},
		{
			in:   DeleteChannelMessage{Name: "master"},
			name: "master",
			ok:   true,
		},
		{
			in: ByteDataMessage{
				Name: "data",
				Data: []byte("Hello"),
			},
			name: "data",
			ok:   true,
		},
		{
			in: ObjectDataMessage{
				Name: "objects",
				Tag:  "example.Payload",
				Data: []byte{0xa1, 0x61, 0x41, 0x01},
			},
			name: "objects",
			ok:   true,
		},
		{
			in:   MeaninglessMessage{},
			name: "",
			ok:   false,
		},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		enc := NewEncoder(&buf)
		if err := enc.Encode(test.in); err != nil {
			t.Fatal(err)
		}
		dec := NewDecoder(&buf)
		m, err := dec.Decode()
		if err != nil {
			t.Fatal(err)
		}
		name, ok := m.Channel()
		if name != test.name {
			t.Fatal("name not equal")
		}
		if ok != test.ok {
			t.Fatal("ok not equal")
		}
		if m.String() == "" {
			t.Fatal("empty string representation")
		}
		if !bytes.Equal(m.Bytes(), test.in.Bytes()) {
			t.Fatalf("re-encoded bytes differ for %s", test.in)
		}
		if Type(m) != Type(test.in) {
			t.Fatalf("type mismatch for %s", test.in)
		}
		if buf.Len() != 0 {
			t.Fatalf("decoder left %d bytes", buf.Len())
		}
	}
}

func TestWireLayout(t *testing.T) {
	got := ByteDataMessage{Name: "ab", Data: []byte{1, 2, 3}}.Bytes()
	want := []byte{0x02, 0x02, 'a', 'b', 0x03, 1, 2, 3}
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected layout: % x", got)
	}

	got = ObjectDataMessage{Name: "c", Tag: "T", Data: nil}.Bytes()
	want = []byte{0x03, 0x01, 'c', 0x01, 'T', 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected layout: % x", got)
	}

	if got := (MeaninglessMessage{}).Bytes(); !bytes.Equal(got, []byte{0x04}) {
		t.Fatalf("unexpected layout: % x", got)
	}

	// names longer than 127 bytes need a two byte varint
	long := strings.Repeat("x", 200)
	got = CreateChannelMessage{Name: long}.Bytes()
	if got[0] != 0x00 || got[1] != 0xc8 || got[2] != 0x01 || len(got) != 203 {
		t.Fatalf("unexpected long name prefix: % x", got[:3])
	}
}

func TestDecodeSequence(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, msg := range []Message{
		CreateChannelMessage{Name: "a"},
		ByteDataMessage{Name: "a", Data: []byte{9}},
		MeaninglessMessage{},
		DeleteChannelMessage{Name: "a"},
	} {
		if err := enc.Encode(msg); err != nil {
			t.Fatal(err)
		}
	}

	dec := NewDecoder(&buf)
	var types []string
	for {
		m, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		types = append(types, TypeName(Type(m)))
	}
	if strings.Join(types, ",") != "create,bytes,meaningless,delete" {
		t.Fatalf("unexpected sequence: %v", types)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader([]byte{0x09})).Decode()
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}

	_, err = NewDecoder(bytes.NewReader([]byte{0x02, 0x05, 'a'})).Decode()
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}

	_, err = NewDecoder(bytes.NewReader([]byte{0x00})).Decode()
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}

	old := MaxPayloadLength
	MaxPayloadLength = 4
	defer func() { MaxPayloadLength = old }()
	_, err = NewDecoder(bytes.NewReader([]byte{0x00, 0x05, 'a', 'b', 'c', 'd', 'e'})).Decode()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}
