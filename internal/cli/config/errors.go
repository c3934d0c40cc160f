package config

import (
	"errors"
	"fmt"
)

// Error reports a missing or invalid configuration.
// The CLI maps it to exit code 2.
type Error struct {
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err wraps a *Error.
func IsError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

func errorf(path, format string, args ...any) *Error {
	return &Error{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Invalid reports a configuration problem that is not tied to a file,
// such as a bad command-line value.
func Invalid(format string, args ...any) *Error {
	return errorf("", format, args...)
}
