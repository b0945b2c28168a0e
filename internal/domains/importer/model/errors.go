package model

import (
	"errors"
	"fmt"
)

// Upload-step errors. Both are fatal to the current upload only; the user
// recovers by selecting another file.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format (expected .csv, .xls or .xlsx)")
	ErrFileTooLarge      = errors.New("file exceeds the 5 MB size limit")
	ErrEmptySheet        = errors.New("spreadsheet contains no data rows")
)

// Session-level errors.
var (
	ErrSessionNotFound    = errors.New("import session not found")
	ErrSessionClosed      = errors.New("import session already closed")
	ErrNoFileAttached     = errors.New("no parsed file attached to session")
	ErrSubmitInProgress   = errors.New("a submission is already in flight")
	ErrNothingToSubmit    = errors.New("no valid rows to submit")
	ErrRowIndexOutOfRange = errors.New("row index out of range")
)

// FileFormatError wraps extension/size rejections with the offending
// filename for error responses.
type FileFormatError struct {
	Filename string
	Err      error
}

func (e *FileFormatError) Error() string {
	return fmt.Sprintf("invalid import file %q: %v", e.Filename, e.Err)
}

func (e *FileFormatError) Unwrap() error { return e.Err }

// ParseError wraps corrupt/empty spreadsheet failures.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %q: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SubmissionError wraps a network/backend failure during precheck or the
// real commit. Non-destructive: the session keeps all rows for retry.
type SubmissionError struct {
	Stage string // "precheck" or "submit"
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order %s failed: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
