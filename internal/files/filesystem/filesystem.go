package filesystem

import (
	"io"
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
// This provides compatibility with the fs.FS ecosystem while maintaining
// a stable local type for our abstraction layer.
type FileInfo = fs.FileInfo

// FileSystemProvider gives read access to the tree the CSV files live in.
type FileSystemProvider interface {
	// ReadDir returns the immediate entries of the directory at path,
	// sorted by name. Subdirectories are included; callers filter them.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)

	// OpenFile opens the file at path for streaming reads.
	// The caller must close the returned reader.
	OpenFile(path string) (io.ReadCloser, error)
}
