package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrMirrorNotConfigured indicates a mirror operation on a cache
	// without a configured NATS mirror.
	ErrMirrorNotConfigured = errors.New("mirror not configured")

	// ErrInvalidSnapshot indicates a snapshot file that could not be
	// decoded.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// SnapshotError wraps snapshot-related errors with operation and path
// context.
type SnapshotError struct {
	Op   string // Operation being performed
	Path string // File path
	Err  error  // Underlying error
}

func (e *SnapshotError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("snapshot error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("snapshot error during %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// wrapSnapshotError wraps an error with snapshot context.
func wrapSnapshotError(op string, path string, err error) error {
	return &SnapshotError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
