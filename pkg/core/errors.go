package core

import (
	"errors"
	"fmt"
)

// maxQueryInError bounds how much SQL is echoed in error messages.
const maxQueryInError = 500

// ConnectionError reports a failure to reach the data source. It aborts a run.
type ConnectionError struct {
	Type string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Type, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failed statement. Validators contain it in their result.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	q := e.Query
	if len(q) > maxQueryInError {
		q = q[:maxQueryInError]
	}
	return fmt.Sprintf("query execution failed: %v\nQuery: %s", e.Err, q)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsQueryError reports whether err wraps a *QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// IsConnectionError reports whether err wraps a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
