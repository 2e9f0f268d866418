package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/vvka-141/csvload/pkg/csvload"
)

type writeCall struct {
	Op    string // "replace" or "append"
	Table csvload.TableRef
	Cols  []Column
	Rows  [][]any
}

// fakeWriter keeps tables in memory with the same replace/append semantics
// as PgWriter.
type fakeWriter struct {
	mu      sync.Mutex
	calls   []writeCall
	tables  map[string][][]any
	failOn  int // 1-based call number that fails; 0 = never
	failErr error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{tables: make(map[string][][]any)}
}

func (w *fakeWriter) record(op string, table csvload.TableRef, cols []Column, rows [][]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls = append(w.calls, writeCall{Op: op, Table: table, Cols: cols, Rows: rows})
	if w.failOn == len(w.calls) {
		if w.failErr != nil {
			return w.failErr
		}
		return errors.New("simulated write failure")
	}

	key := table.String()
	if op == "replace" {
		w.tables[key] = nil
	}
	w.tables[key] = append(w.tables[key], rows...)
	return nil
}

func (w *fakeWriter) Replace(_ context.Context, table csvload.TableRef, cols []Column, rows [][]any) error {
	return w.record("replace", table, cols, rows)
}

func (w *fakeWriter) Append(_ context.Context, table csvload.TableRef, cols []Column, rows [][]any) error {
	return w.record("append", table, cols, rows)
}

func (w *fakeWriter) ops() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.calls))
	for i, c := range w.calls {
		out[i] = c.Op
	}
	return out
}

type fakeRecorder struct {
	results []csvload.FileResult
}

func (r *fakeRecorder) RecordFile(res csvload.FileResult) {
	r.results = append(r.results, res)
}
