package transfer

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies a transfer failure.
type Kind int

const (
	// KindIO is any I/O failure that is not one of the recoverable kinds
	KindIO Kind = iota
	// KindNotFound means a path the transfer needed was missing
	KindNotFound
	// KindPermission means the process lacked rights on a path
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermission:
		return "permission denied"
	default:
		return "i/o fault"
	}
}

// Operations recorded on Error.Op
const (
	OpStat   = "stat"
	OpCopy   = "copy"
	OpRemove = "remove"
	OpRename = "rename"
	OpMkdir  = "mkdir"
)

// ErrNotDirectory is returned when a transfer source is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Error describes a failed step of a transfer.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies err and records the operation and path it occurred on.
// An err that is already an *Error is returned unchanged.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var te *Error
	if errors.As(err, &te) {
		return err
	}

	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, ErrNotDirectory):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermission
	}

	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// KindOf returns the kind of a transfer error, or KindIO for anything else.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindIO
}

// IsRecoverable reports whether err is a not-found or permission failure.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	kind := KindOf(err)
	return kind == KindNotFound || kind == KindPermission
}
