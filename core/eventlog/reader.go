package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"dataflow-debugger/core/models"
)

// Reader deserializes scheduling events from a byte stream, one record per
// ReadNext call, until a clean end-of-stream.
//
// A clean io.EOF at a record boundary is the normal termination and is
// returned as io.EOF. Any other failure (truncation mid-record, malformed
// JSON, an invalid record) is fatal: the reader closes the stream, remembers
// the error, and returns it from every subsequent call. The underlying stream
// is closed exactly once, on the terminating transition.
type Reader struct {
	src io.ReadCloser
	dec *json.Decoder
	err error
}

// NewReader wraps an open event log stream
func NewReader(src io.ReadCloser) *Reader {
	return &Reader{src: src, dec: json.NewDecoder(src)}
}

// Open opens the event log at path for reading
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return NewReader(f), nil
}

// ReadNext deserializes the next event from the stream
func (r *Reader) ReadNext() (*models.Event, error) {
	if r.err != nil {
		return nil, r.err
	}

	var rec record
	if err := r.dec.Decode(&rec); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			// Clean end of stream, not an error.
			r.terminate(io.EOF)
		case errors.Is(err, io.ErrUnexpectedEOF):
			r.terminate(fmt.Errorf("event log truncated mid-record: %w", err))
		default:
			r.terminate(fmt.Errorf("malformed event record: %w", err))
		}
		return nil, r.err
	}

	ev, err := rec.event()
	if err != nil {
		r.terminate(fmt.Errorf("invalid event record: %w", err))
		return nil, r.err
	}
	return ev, nil
}

// Close terminates the reader early, closing the underlying stream. It is a
// no-op once the reader has reached a terminal state on its own; subsequent
// ReadNext calls fail.
func (r *Reader) Close() error {
	if r.err == nil {
		r.terminate(errors.New("event log reader closed"))
	}
	return nil
}

func (r *Reader) terminate(err error) {
	r.err = err
	if r.src != nil {
		r.src.Close()
		r.src = nil
	}
}
