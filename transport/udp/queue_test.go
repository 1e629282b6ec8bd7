package udp

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueReadFull(t *testing.T) {
	q := newQueue()
	got := make(chan []byte)
	go func() {
		p := make([]byte, 4)
		n, err := q.readFull(p)
		if err != nil {
			t.Error(err)
		}
		got <- p[:n]
	}()

	q.push([]byte{1, 2})
	time.Sleep(10 * time.Millisecond)
	select {
	case <-got:
		t.Fatal("read returned before the buffer was full")
	default:
	}
	q.push([]byte{3, 4, 5})
	require.Equal(t, []byte{1, 2, 3, 4}, <-got)
	require.Equal(t, 1, q.len())
}

func TestQueueClose(t *testing.T) {
	q := newQueue()
	q.push([]byte{9})
	q.close()
	require.False(t, q.push([]byte{1}))

	p := make([]byte, 2)
	n, err := q.readFull(p)
	require.Equal(t, 1, n)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	n, err = q.readFull(p)
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}
