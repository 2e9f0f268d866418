package csvload

import "time"

// LoadState tracks the progress of a single file through the pipeline.
//
//	NotStarted -> FirstChunkWritten -> Appending -> Done
//	     \               \                 \
//	      `---------------`-----------------`---> Failed
//
// A zero-row file goes straight from NotStarted to Done.
type LoadState int

const (
	LoadNotStarted LoadState = iota
	LoadFirstChunkWritten
	LoadAppending
	LoadDone
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadNotStarted:
		return "not-started"
	case LoadFirstChunkWritten:
		return "first-chunk-written"
	case LoadAppending:
		return "appending"
	case LoadDone:
		return "done"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureReason classifies why a file did not load completely.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureRead
	FailureDecode
	FailureColumnMismatch
	FailureTypeConflict
	FailurePersist
	FailureCollision
	FailureCancelled
)

func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return "none"
	case FailureRead:
		return "read"
	case FailureDecode:
		return "decode"
	case FailureColumnMismatch:
		return "column-mismatch"
	case FailureTypeConflict:
		return "type-conflict"
	case FailurePersist:
		return "persist"
	case FailureCollision:
		return "collision"
	case FailureCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FileResult is the outcome of loading one source file.
type FileResult struct {
	Path  string
	Table TableRef

	State  LoadState
	Reason FailureReason
	Err    error

	// Rows is the number of rows committed. On failure it counts the rows
	// of the chunks that were committed before the failure.
	Rows int64

	// Chunks is the number of chunks committed.
	Chunks int

	Duration time.Duration
}

// Succeeded reports whether the file was loaded completely.
func (r FileResult) Succeeded() bool {
	return r.State == LoadDone
}

// TableCreated reports whether the table was (re)created for this file.
func (r FileResult) TableCreated() bool {
	return r.Chunks > 0
}

// FolderResult is the outcome of walking one mapped folder.
type FolderResult struct {
	Mapping FolderMapping
	Path    string

	// Missing is set when the folder does not exist under the base path.
	Missing bool

	// Err is set when the folder could not be processed at all
	// (schema provisioning or listing failed).
	Err error

	Files []FileResult
}
