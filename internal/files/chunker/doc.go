// Package chunker turns a CSV source file into a header and a sequence of
// fixed-size row chunks.
//
// Sources may be plain, gzip (.csv.gz) or zstd (.csv.zst) compressed and in
// any encoding known to the WHATWG index (utf-8, windows-1252, utf-16le,
// ...). UTF-8 input is validated: a leading byte order mark is dropped and
// invalid byte sequences surface as csvload.ErrDecodeFailed.
//
// Every row of a chunk has exactly as many cells as the header. Short rows
// are padded with empty strings; a row wider than the header fails with
// csvload.ErrColumnMismatch.
package chunker
