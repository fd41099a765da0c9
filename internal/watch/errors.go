package watch

import "fmt"

// FilesystemError means a watch target could not be watched, usually because the host path
// no longer exists or is not accessible.
type FilesystemError struct {
	Path string
	Err  error
}

func NewFilesystemError(path string, err error) *FilesystemError {
	return &FilesystemError{Path: path, Err: err}
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("watch %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
