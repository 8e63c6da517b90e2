package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrTruncated is returned when a trace ends in the middle of a record.
var ErrTruncated = errors.New("trace ends with a partial record")

// bufferedRecords is how many records one underlying read can fetch.
const bufferedRecords = 1 << 16

// Reader decodes records from a byte stream.
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
	buf    [RecordSize]byte
	count  uint64
}

// NewReader wraps r. The caller keeps ownership of r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r: bufio.NewReaderSize(r, bufferedRecords*RecordSize),
	}
}

// Open opens a trace file for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	reader := NewReader(f)
	reader.closer = f

	return reader, nil
}

// Next returns the next record, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (Item, error) {
	n, err := io.ReadFull(r.r, r.buf[:])
	switch {
	case err == io.EOF:
		return Item{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Item{}, fmt.Errorf("record %d has %d of %d bytes: %w",
			r.count, n, RecordSize, ErrTruncated)
	case err != nil:
		return Item{}, fmt.Errorf("failed to read record %d: %w", r.count, err)
	}

	r.count++

	return Decode(r.buf[:]), nil
}

// Count returns the number of records read so far.
func (r *Reader) Count() uint64 {
	return r.count
}

// Close closes the underlying file if the reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// ReadAll loads every record of a trace file into memory.
func ReadAll(path string) ([]Item, error) {
	reader, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	var items []Item
	for {
		item, err := reader.Next()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		items = append(items, item)
	}
}

// SliceSource replays an in-memory trace.
type SliceSource struct {
	items []Item
	pos   int
}

// NewSliceSource creates a source over items. The slice is not copied.
func NewSliceSource(items []Item) *SliceSource {
	return &SliceSource{items: items}
}

// Next returns the next record, or io.EOF at the end of the slice.
func (s *SliceSource) Next() (Item, error) {
	if s.pos >= len(s.items) {
		return Item{}, io.EOF
	}

	item := s.items[s.pos]
	s.pos++

	return item, nil
}

// Rewind restarts the replay from the first record.
func (s *SliceSource) Rewind() {
	s.pos = 0
}
