// Package files provides file-related functionality organized into sub-packages.
//
//   - filesystem: Filesystem abstraction interfaces and implementations (OS and in-memory)
//   - chunker: Decompression, decoding and chunked CSV reading
//   - scanner: CSV discovery per folder and the load plan
//   - loader: The ingestion pipeline that writes chunks into PostgreSQL tables
//
// # Usage
//
//	import (
//	    "github.com/vvka-141/csvload/internal/files/filesystem"
//	    "github.com/vvka-141/csvload/internal/files/scanner"
//	    "github.com/vvka-141/csvload/internal/files/loader"
//	)
//
//	fsys := filesystem.NewOSFileSystem()
//	plan, err := scanner.NewScannerWithFS(fsys).PlanFolder(basePath, mapping)
//
//	l := loader.NewLoader(fsys, loader.NewPgWriter(conn), collector, opts, logger)
//	for _, f := range plan.Files {
//	    res := l.Load(ctx, f.Path, f.Table)
//	}
package files
