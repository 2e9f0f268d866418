package chunker

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vvka-141/csvload/pkg/csvload"
)

// Compression identifies the container format of a source file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// DetectCompression derives the compression from the file name suffix.
func DetectCompression(path string) Compression {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, csvload.ExtCSVGzip):
		return CompressionGzip
	case strings.HasSuffix(lower, csvload.ExtCSVZstd):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// decompress wraps r according to c. The returned close function releases
// decoder resources; it does not close r.
func decompress(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, func() { gz.Close() }, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, dec.Close, nil

	default:
		return r, func() {}, nil
	}
}

// ValidateEncoding reports whether label names a supported encoding.
func ValidateEncoding(label string) error {
	if isUTF8(label) {
		return nil
	}
	if _, err := htmlindex.Get(label); err != nil {
		return fmt.Errorf("unknown encoding %q: %w", label, csvload.ErrInvalidConfig)
	}
	return nil
}

func isUTF8(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	}
	return false
}

// decode wraps r with a transformer that yields UTF-8 text.
//
// For UTF-8 the input is validated instead of repaired, so a mislabelled
// file fails rather than loading replacement characters.
func decode(r io.Reader, label string) (io.Reader, error) {
	if isUTF8(label) {
		return transform.NewReader(r, unicode.BOMOverride(encoding.UTF8Validator)), nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, csvload.ErrInvalidConfig)
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// NewSourceReader returns a UTF-8 text stream for the raw file content in r.
// name selects the decompression by suffix and label the text encoding.
// The returned close function must be called once reading is finished.
func NewSourceReader(r io.Reader, name, label string) (io.Reader, func(), error) {
	plain, closeFn, err := decompress(r, DetectCompression(name))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %w", name, csvload.ErrReadFailed, err)
	}

	text, err := decode(plain, label)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return text, closeFn, nil
}
