// Package filesystem provides the filesystem abstraction used by the folder
// walker and the ingestion pipeline.
//
// The loader only needs three operations: list a directory, stat a path and
// stream a file. Keeping them behind FileSystemProvider lets the pipeline be
// tested against an in-memory tree while production code reads the OS
// filesystem.
//
// Implementations:
//   - OSFileSystem: Production implementation using OS filesystem
//   - MemoryFileSystem: In-memory implementation for testing
//
// Both implementations report missing paths with errors that satisfy
// errors.Is(err, fs.ErrNotExist).
package filesystem
