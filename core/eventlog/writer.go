package eventlog

import (
	"encoding/json"
	"fmt"
	"io"

	"dataflow-debugger/core/models"
)

// Writer serializes events onto a byte stream in the format Reader consumes.
// The replay core never persists events; the writer exists for the engine
// side of the contract and for building log fixtures.
type Writer struct {
	enc *json.Encoder
}

// NewWriter wraps an output stream
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Append serializes one event onto the stream
func (w *Writer) Append(ev *models.Event) error {
	rec, err := encode(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
