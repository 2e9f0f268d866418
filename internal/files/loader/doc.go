// Package loader implements the CSV ingestion pipeline: one source file in,
// one PostgreSQL table out.
//
// A file is read in chunks. The first chunk fixes the column names and
// kinds and replaces the target table (drop, create, copy) in a single
// transaction. Every later chunk is coerced to the fixed kinds and appended
// in its own transaction, so a failure in chunk N leaves chunks 1..N-1 in
// place. Each file moves through an explicit state machine
// (csvload.LoadState) and ends with a csvload.FileResult.
package loader
