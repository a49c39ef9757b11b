package sse

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedReader yields the stream in caller-chosen chunk sizes so tests
// can split lines and fields at arbitrary byte boundaries.
type chunkedReader struct {
	chunks []string
	idx    int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.idx >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.idx])
	r.idx++
	return n, nil
}

func collect(t *testing.T, r io.Reader) []Event {
	t.Helper()
	dec := NewDecoder(r)
	var events []Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, *ev)
	}
}

func TestDecodesEventsInOrder(t *testing.T) {
	stream := "data: one\n\ndata: two\n\ndata: three\n\n"
	events := collect(t, strings.NewReader(stream))

	require.Len(t, events, 3)
	assert.Equal(t, "one", events[0].Data)
	assert.Equal(t, "two", events[1].Data)
	assert.Equal(t, "three", events[2].Data)
}

func TestChunkBoundaryInvariance(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n"
	want := collect(t, strings.NewReader(stream))
	require.Len(t, want, 2)

	t.Run("one byte at a time", func(t *testing.T) {
		got := collect(t, iotest.OneByteReader(strings.NewReader(stream)))
		assert.Equal(t, want, got)
	})

	t.Run("split mid field name", func(t *testing.T) {
		got := collect(t, &chunkedReader{chunks: []string{
			"da", "ta: {\"choices\":[{\"delta\":{\"con",
			"tent\":\"Hi\"}}]}\n", "\nda", "ta: [D", "ONE]\n\n",
		}})
		assert.Equal(t, want, got)
	})

	t.Run("split mid line terminator", func(t *testing.T) {
		got := collect(t, &chunkedReader{chunks: []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n",
			"\n", "data: [DONE]", "\n", "\n",
		}})
		assert.Equal(t, want, got)
	})
}

func TestCRLFLineEndings(t *testing.T) {
	stream := "data: one\r\n\r\ndata: two\r\n\r\n"
	events := collect(t, strings.NewReader(stream))

	require.Len(t, events, 2)
	assert.Equal(t, "one", events[0].Data)
	assert.Equal(t, "two", events[1].Data)
}

func TestMultiLineDataJoinedWithNewline(t *testing.T) {
	stream := "data: first\ndata: second\n\n"
	events := collect(t, strings.NewReader(stream))

	require.Len(t, events, 1)
	assert.Equal(t, "first\nsecond", events[0].Data)
}

func TestEventAndIDFields(t *testing.T) {
	stream := "event: delta\nid: 42\ndata: hello\n\n"
	events := collect(t, strings.NewReader(stream))

	require.Len(t, events, 1)
	assert.Equal(t, "delta", events[0].Name)
	assert.Equal(t, "42", events[0].ID)
	assert.Equal(t, "hello", events[0].Data)
}

func TestSkipsCommentsAndMalformedLines(t *testing.T) {
	stream := ": keepalive\ngarbage without colon\ndata: ok\nretry: 1500\n\n"
	events := collect(t, strings.NewReader(stream))

	require.Len(t, events, 1)
	assert.Equal(t, "ok", events[0].Data)
}

func TestAbsorbsEventsWithoutData(t *testing.T) {
	stream := "event: ping\n\ndata: real\n\n"
	events := collect(t, strings.NewReader(stream))

	require.Len(t, events, 1)
	assert.Equal(t, "real", events[0].Data)
}

func TestValueWithoutLeadingSpace(t *testing.T) {
	stream := "data:tight\n\n"
	events := collect(t, strings.NewReader(stream))

	require.Len(t, events, 1)
	assert.Equal(t, "tight", events[0].Data)
}

func TestPartialEventAtEOFIsDelivered(t *testing.T) {
	// No blank-line terminator and no trailing newline.
	stream := "data: last"
	dec := NewDecoder(strings.NewReader(stream))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "last", ev.Data)

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestBlankPaddingBetweenEvents(t *testing.T) {
	stream := "\n\ndata: one\n\n\n\ndata: two\n\n"
	events := collect(t, strings.NewReader(stream))

	require.Len(t, events, 2)
	assert.Equal(t, "one", events[0].Data)
	assert.Equal(t, "two", events[1].Data)
}

func TestTransportErrorSurfaces(t *testing.T) {
	broken := io.MultiReader(
		strings.NewReader("data: one\n\n"),
		iotest.ErrReader(io.ErrUnexpectedEOF),
	)
	dec := NewDecoder(broken)

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", ev.Data)

	_, err = dec.Next()
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}
