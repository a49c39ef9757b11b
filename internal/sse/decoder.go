// Package sse consumes Server-Sent-Events framing from a byte stream
package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is one decoded protocol unit. Data is the joined payload of the
// event's data lines.
type Event struct {
	Name string
	ID   string
	Data string
}

// Decoder incrementally decodes SSE framing from r. It reads only as fast
// as the caller consumes events, reassembles lines split across arbitrary
// chunk boundaries, and skips malformed lines instead of aborting the
// stream. Events that carry no data field are absorbed; Next only yields
// payload-carrying events.
type Decoder struct {
	r   *bufio.Reader
	err error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next payload-carrying event in arrival order. It
// returns io.EOF once the stream is exhausted; a partial event pending at
// EOF is still delivered before the EOF surfaces. Transport errors from
// the underlying reader are returned as-is.
func (d *Decoder) Next() (*Event, error) {
	if d.err != nil {
		return nil, d.err
	}

	ev := &Event{}
	var data []string

	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			// Hold the error so the trailing partial event, if any,
			// still gets delivered on this call.
			d.err = err
			if line == "" {
				if len(data) > 0 {
					ev.Data = strings.Join(data, "\n")
					return ev, nil
				}
				return nil, err
			}
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			// Blank line terminates the event. Nothing accumulated means
			// either stream padding or a non-payload event; keep reading.
			if len(data) == 0 {
				ev = &Event{}
				continue
			}
			ev.Data = strings.Join(data, "\n")
			return ev, nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			// Malformed framing, skip the line.
			continue
		}
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			data = append(data, value)
		case "event":
			ev.Name = value
		case "id":
			ev.ID = value
		default:
			// Unknown field, ignore.
		}
	}
}
