package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/vvka-141/csvload/internal/files/chunker"
	"github.com/vvka-141/csvload/internal/files/filesystem"
	"github.com/vvka-141/csvload/internal/naming"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// Options control how source files are read.
type Options struct {
	ChunkSize int
	Encoding  string
}

// Recorder receives the result of every file the loader finishes.
type Recorder interface {
	RecordFile(res csvload.FileResult)
}

// ChunkProgress describes a chunk that was just committed.
type ChunkProgress struct {
	Path      string
	Table     csvload.TableRef
	Chunk     int // 1-based
	Rows      int
	TotalRows int64
}

// Loader runs the ingestion pipeline for single files.
type Loader struct {
	fs       filesystem.FileSystemProvider
	writer   TableWriter
	recorder Recorder
	opts     Options
	logger   csvload.Logger
	onChunk  func(ChunkProgress)
}

// NewLoader creates a pipeline reading through fs and writing through writer.
// Panics if any dependency is nil or the chunk size is not positive.
func NewLoader(fs filesystem.FileSystemProvider, writer TableWriter, recorder Recorder, opts Options, logger csvload.Logger) *Loader {
	if fs == nil {
		panic("fs cannot be nil")
	}
	if writer == nil {
		panic("writer cannot be nil")
	}
	if recorder == nil {
		panic("recorder cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if opts.ChunkSize <= 0 {
		panic("chunk size must be positive")
	}
	if opts.Encoding == "" {
		opts.Encoding = csvload.DefaultEncoding
	}
	return &Loader{fs: fs, writer: writer, recorder: recorder, opts: opts, logger: logger}
}

// WithOnChunk returns a new Loader that calls fn after every committed chunk.
// The receiver is not modified.
func (l *Loader) WithOnChunk(fn func(ChunkProgress)) *Loader {
	clone := *l
	clone.onChunk = fn
	return &clone
}

// Load ingests the file at path into table and records the result.
// It never returns an error: failures are reported in the FileResult.
func (l *Loader) Load(ctx context.Context, path string, table csvload.TableRef) csvload.FileResult {
	start := time.Now()
	res := csvload.FileResult{Path: path, Table: table, State: csvload.LoadNotStarted}

	l.logger.Info("Processing: %s", filepath.Base(path))

	if err := l.load(ctx, path, &res); err != nil {
		res.State = csvload.LoadFailed
		res.Reason = reasonFor(err)
		res.Err = fmt.Errorf("failed to load %s: %w", path, err)
		l.logger.Error("Failed to load %s: %v", path, err)
	} else {
		res.State = csvload.LoadDone
		l.logger.Info("Successfully loaded %d rows into %s", res.Rows, table)
	}

	res.Duration = time.Since(start)
	l.recorder.RecordFile(res)
	return res
}

// Reject records a file that is not loaded at all, such as a later file
// whose table name collides with an earlier one.
func (l *Loader) Reject(path string, table csvload.TableRef, err error) csvload.FileResult {
	res := csvload.FileResult{
		Path:   path,
		Table:  table,
		State:  csvload.LoadFailed,
		Reason: reasonFor(err),
		Err:    err,
	}
	l.logger.Error("Skipping %s: %v", path, err)
	l.recorder.RecordFile(res)
	return res
}

func (l *Loader) load(ctx context.Context, path string, res *csvload.FileResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rc, err := l.fs.OpenFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", csvload.ErrReadFailed, err)
	}
	defer rc.Close()

	text, closeSource, err := chunker.NewSourceReader(rc, path, l.opts.Encoding)
	if err != nil {
		return err
	}
	defer closeSource()

	r := chunker.NewReader(text, l.opts.ChunkSize)
	header, err := r.Header()
	if errors.Is(err, io.EOF) {
		l.logger.Verbose("%s is empty, no table created", path)
		return nil
	}
	if err != nil {
		return err
	}

	names := naming.NormalizeHeaders(header)
	l.logger.Verbose("File info - Columns: %d %v", len(names), names)

	var cols []Column
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if cols == nil {
			cols = lockColumns(names, chunk.Rows)
		}

		values, err := Coerce(cols, chunk.Rows, chunk.FirstLine)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", chunk.Index+1, err)
		}

		if err := l.persist(ctx, res, cols, values); err != nil {
			return fmt.Errorf("chunk %d: %w", chunk.Index+1, err)
		}

		res.Rows += int64(len(values))
		res.Chunks++
		l.logger.Info("Loaded chunk %d (%d rows)", chunk.Index+1, len(values))

		if l.onChunk != nil {
			l.onChunk(ChunkProgress{
				Path:      path,
				Table:     res.Table,
				Chunk:     chunk.Index + 1,
				Rows:      len(values),
				TotalRows: res.Rows,
			})
		}
	}

	if res.Chunks == 0 {
		l.logger.Verbose("%s has a header but no rows, no table created", path)
	}
	return nil
}

// persist writes one chunk and advances the file's state.
func (l *Loader) persist(ctx context.Context, res *csvload.FileResult, cols []Column, values [][]any) error {
	var err error
	switch res.State {
	case csvload.LoadNotStarted:
		err = l.writer.Replace(ctx, res.Table, cols, values)
		if err == nil {
			res.State = csvload.LoadFirstChunkWritten
		}
	case csvload.LoadFirstChunkWritten, csvload.LoadAppending:
		err = l.writer.Append(ctx, res.Table, cols, values)
		if err == nil {
			res.State = csvload.LoadAppending
		}
	default:
		return fmt.Errorf("cannot persist in state %s", res.State)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", csvload.ErrPersistFailed, err)
	}
	return nil
}

func lockColumns(names []string, rows [][]string) []Column {
	kinds := InferKinds(rows, len(names))
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Kind: kinds[i]}
	}
	return cols
}

func reasonFor(err error) csvload.FailureReason {
	switch {
	case err == nil:
		return csvload.FailureNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return csvload.FailureCancelled
	case errors.Is(err, csvload.ErrTableNameCollision):
		return csvload.FailureCollision
	case errors.Is(err, csvload.ErrDecodeFailed):
		return csvload.FailureDecode
	case errors.Is(err, csvload.ErrColumnMismatch):
		return csvload.FailureColumnMismatch
	case errors.Is(err, csvload.ErrTypeConflict):
		return csvload.FailureTypeConflict
	case errors.Is(err, csvload.ErrPersistFailed):
		return csvload.FailurePersist
	default:
		return csvload.FailureRead
	}
}
