// Package errs holds the error kinds shared by the path, pattern and
// filesystem packages.
//
// A kind matches itself and, through errors.Is, every kind it was derived
// from, so callers can test for a broad category (IO) or a precise one
// (FileNotFound). Kinds also bridge to the io/fs sentinels.
package errs

import (
	"errors"
	"io/fs"
)

type kind struct {
	msg     string
	parents []error
}

func (k *kind) Error() string { return k.msg }

func (k *kind) Is(target error) bool {
	for _, p := range k.parents {
		if errors.Is(p, target) {
			return true
		}
	}
	return false
}

// New creates an error kind that also matches each of parents
func New(msg string, parents ...error) error {
	return &kind{msg: msg, parents: parents}
}

var (
	IO              = New("i/o error")
	InvalidArgument = New("invalid argument", fs.ErrInvalid)
	NotSupported    = New("operation not supported")
	AccessDenied    = New("access to the path is denied", fs.ErrPermission)
	Closed          = New("cannot access a closed handle", fs.ErrClosed)

	IllegalPath      = New("illegal characters in path", InvalidArgument)
	InvalidUNC       = New(`the UNC path should be of the form \\server\share`, InvalidArgument)
	PathNotLegalForm = New("the path is not of a legal form", InvalidArgument)

	FileNotFound      = New("could not find file", IO, fs.ErrNotExist)
	DirectoryNotFound = New("could not find a part of the path", IO, fs.ErrNotExist)
	FileAlreadyExists = New("the file already exists", IO, fs.ErrExist)
	SharingViolation  = New("the process cannot access the file because it is being used by another process", IO)
)
