package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Writer encodes records to a byte stream.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	buf    [RecordSize]byte
}

// NewWriter wraps w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create creates or truncates a trace file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	writer := NewWriter(f)
	writer.closer = f

	return writer, nil
}

// Write appends one record.
func (w *Writer) Write(item Item) error {
	item.Encode(w.buf[:])

	if _, err := w.w.Write(w.buf[:]); err != nil {
		return fmt.Errorf("failed to write trace record: %w", err)
	}

	return nil
}

// WriteAll appends every record of items.
func (w *Writer) WriteAll(items []Item) error {
	for _, item := range items {
		if err := w.Write(item); err != nil {
			return err
		}
	}

	return nil
}

// Flush writes buffered records to the underlying stream.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Close flushes and closes the underlying file if the writer was created
// by Create.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}

	if w.closer == nil {
		return nil
	}

	return w.closer.Close()
}

// WriteFile writes items to a new trace file.
func WriteFile(path string, items []Item) error {
	writer, err := Create(path)
	if err != nil {
		return err
	}

	if err := writer.WriteAll(items); err != nil {
		_ = writer.Close()
		return err
	}

	return writer.Close()
}
