package storage

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Store matches exactly one of these
// through errors.Is.
var (
	ErrValidation   = errors.New("invalid request")
	ErrNotFound     = errors.New("path does not exist")
	ErrForbidden    = errors.New("path escapes storage root")
	ErrFileTooLarge = errors.New("file exceeds size limit")
	ErrIO           = errors.New("filesystem failure")
)

// OpError records a failed storage operation. Path is always relative to
// the storage root so the message is safe to return to clients.
type OpError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Kind)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opErr(op, path string, kind, err error) error {
	return &OpError{Op: op, Path: path, Kind: kind, Err: err}
}

// KindOf names the error kind used on the wire.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrFileTooLarge):
		return "FileTooLarge"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	default:
		return "IOError"
	}
}
