package snapshot

import "fmt"

// WriteError reports a failure to persist a backup file
type WriteError struct {
	Op   string // "mkdir", "create", "write", "sync", "publish", "mirror", ...
	Path string
	Err  error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	return fmt.Sprintf("backup %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *WriteError) Unwrap() error {
	return e.Err
}
