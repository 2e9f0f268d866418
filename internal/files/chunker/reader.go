package chunker

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding"

	"github.com/vvka-141/csvload/pkg/csvload"
)

// Chunk is an ordered batch of rows read from one file.
type Chunk struct {
	// Index is the zero-based position of the chunk within the file.
	Index int

	// FirstLine is the 1-based source line of the first row, for diagnostics.
	FirstLine int

	// Rows hold exactly len(header) cells each.
	Rows [][]string
}

// Reader reads a CSV stream as a header row followed by chunks of at most
// size rows.
type Reader struct {
	csv    *csv.Reader
	size   int
	header []string
	width  int
	next   int
	done   bool
}

// NewReader creates a chunk reader over UTF-8 text.
// Panics if size is not positive.
func NewReader(r io.Reader, size int) *Reader {
	if size <= 0 {
		panic("chunk size must be positive")
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	return &Reader{csv: cr, size: size, width: -1}
}

// Header reads and returns the raw header row. It returns io.EOF for an
// empty source. Calling it again returns the cached header.
func (r *Reader) Header() ([]string, error) {
	if r.width >= 0 {
		return r.header, nil
	}

	rec, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.done = true
			return nil, io.EOF
		}
		return nil, classify(err, "header")
	}

	r.header = rec
	r.width = len(rec)
	return r.header, nil
}

// Next returns the next chunk, or io.EOF once the stream is exhausted.
// A chunk is never empty. Header must have been called first.
func (r *Reader) Next() (Chunk, error) {
	if r.width < 0 {
		return Chunk{}, errors.New("chunker: Next called before Header")
	}
	if r.done {
		return Chunk{}, io.EOF
	}

	chunk := Chunk{Index: r.next, Rows: make([][]string, 0, r.size)}
	for len(chunk.Rows) < r.size {
		rec, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			r.done = true
			break
		}
		if err != nil {
			return Chunk{}, classify(err, fmt.Sprintf("chunk %d", r.next+1))
		}

		line, _ := r.csv.FieldPos(0)
		if len(chunk.Rows) == 0 {
			chunk.FirstLine = line
		}

		if len(rec) > r.width {
			return Chunk{}, fmt.Errorf("line %d has %d fields, header has %d: %w",
				line, len(rec), r.width, csvload.ErrColumnMismatch)
		}
		for len(rec) < r.width {
			rec = append(rec, "")
		}
		chunk.Rows = append(chunk.Rows, rec)
	}

	if len(chunk.Rows) == 0 {
		return Chunk{}, io.EOF
	}

	r.next++
	return chunk, nil
}

func classify(err error, where string) error {
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		return fmt.Errorf("%s: %w: %w", where, csvload.ErrDecodeFailed, err)
	}
	return fmt.Errorf("%s: %w: %w", where, csvload.ErrReadFailed, err)
}
