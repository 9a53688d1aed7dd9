package filesystem

import (
	"fmt"
	"io/fs"

	"github.com/brettbedarf/memfs/internal/errs"
)

// Error kinds returned (wrapped in *fs.PathError) by file system operations.
// Test with errors.Is; broader kinds match their refinements, e.g.
// errors.Is(err, ErrIO) holds for ErrFileNotFound.
var (
	ErrIO                = errs.IO
	ErrInvalidArgument   = errs.InvalidArgument
	ErrIllegalPath       = errs.IllegalPath
	ErrInvalidUNC        = errs.InvalidUNC
	ErrPathNotLegalForm  = errs.PathNotLegalForm
	ErrFileNotFound      = errs.FileNotFound
	ErrDirectoryNotFound = errs.DirectoryNotFound
	ErrFileAlreadyExists = errs.FileAlreadyExists
	ErrAccessDenied      = errs.AccessDenied
	ErrSharingViolation  = errs.SharingViolation
	ErrNotSupported      = errs.NotSupported
	ErrClosed            = errs.Closed
)

func pathError(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// pathErrorf wraps kind with a formatted detail message
func pathErrorf(op, path string, kind error, format string, args ...any) error {
	return &fs.PathError{Op: op, Path: path, Err: fmt.Errorf("%w: "+format, append([]any{kind}, args...)...)}
}
