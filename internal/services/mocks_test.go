package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vvka-141/csvload/internal/files/filesystem"
	"github.com/vvka-141/csvload/internal/files/loader"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// fakeLoader records which files the runner handed over.
type fakeLoader struct {
	mu       sync.Mutex
	loaded   []string
	tables   []csvload.TableRef
	rejected []error
	onLoad   func(path string)
}

func (l *fakeLoader) Load(_ context.Context, path string, table csvload.TableRef) csvload.FileResult {
	l.mu.Lock()
	l.loaded = append(l.loaded, path)
	l.tables = append(l.tables, table)
	l.mu.Unlock()

	if l.onLoad != nil {
		l.onLoad(path)
	}
	return csvload.FileResult{Path: path, Table: table, State: csvload.LoadDone, Rows: 1, Chunks: 1}
}

func (l *fakeLoader) Reject(path string, table csvload.TableRef, err error) csvload.FileResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejected = append(l.rejected, err)
	return csvload.FileResult{Path: path, Table: table, State: csvload.LoadFailed, Reason: csvload.FailureCollision, Err: err}
}

type skippedFolder struct {
	Mapping csvload.FolderMapping
	Path    string
	Err     error
}

type fakeFolderRecorder struct {
	skipped []skippedFolder
}

func (r *fakeFolderRecorder) RecordFolderSkipped(folder csvload.FolderMapping, path string, err error) {
	r.skipped = append(r.skipped, skippedFolder{Mapping: folder, Path: path, Err: err})
}

// fakeProvisioner remembers ensured schemas and fails the ones listed in fail.
type fakeProvisioner struct {
	ensured []string
	fail    map[string]bool
}

func (p *fakeProvisioner) SchemaExists(_ context.Context, name string) (bool, error) {
	for _, s := range p.ensured {
		if s == name {
			return true, nil
		}
	}
	return false, nil
}

func (p *fakeProvisioner) EnsureSchema(_ context.Context, name string) error {
	if p.fail[name] {
		return fmt.Errorf("%w: permission denied for database warehouse", csvload.ErrSchemaProvisioning)
	}
	p.ensured = append(p.ensured, name)
	return nil
}

var _ csvload.SchemaProvisioner = (*fakeProvisioner)(nil)

// memoryWriter keeps tables in memory with replace/append semantics.
type memoryWriter struct {
	mu     sync.Mutex
	ops    []string
	tables map[string][][]any
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{tables: make(map[string][][]any)}
}

func (w *memoryWriter) Replace(_ context.Context, table csvload.TableRef, _ []loader.Column, rows [][]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ops = append(w.ops, "replace "+table.String())
	w.tables[table.String()] = append([][]any(nil), rows...)
	return nil
}

func (w *memoryWriter) Append(_ context.Context, table csvload.TableRef, _ []loader.Column, rows [][]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ops = append(w.ops, "append "+table.String())
	w.tables[table.String()] = append(w.tables[table.String()], rows...)
	return nil
}

var _ loader.TableWriter = (*memoryWriter)(nil)

// unreadableDirFS fails to list one directory that otherwise exists.
type unreadableDirFS struct {
	*filesystem.MemoryFileSystem
	dir string
}

func (f *unreadableDirFS) ReadDir(path string) ([]filesystem.FileInfo, error) {
	if path == f.dir {
		return nil, errors.New("permission denied")
	}
	return f.MemoryFileSystem.ReadDir(path)
}
