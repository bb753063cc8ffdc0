// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"errors"
	"fmt"
)

// StatusError is an error which carries the HTTP status code that
// should be reported to the peer. Any error raised while framing a
// request, or returned by a Handler, that implements this shape is
// converted into a best-effort error response before the connection
// is torn down. Errors without a status code abort the connection
// silently.
type StatusError struct {
	// Code is the HTTP status code reported to the peer.
	Code int

	// Msg is sent to the peer as a plain text response body.
	Msg string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("http1: %d %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("http1: %d %s: %s", e.Code, e.Msg, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e *StatusError) Unwrap() error {
	return e.Cause
}

func badRequest(msg string) *StatusError {
	return &StatusError{Code: 400, Msg: msg}
}

func unexpectedEOF() *StatusError {
	return &StatusError{Code: 400, Msg: "unexpected end of stream", Cause: errShortRead}
}

var errShortRead = errors.New("http1: connection closed before message completed")

// errNeedMore signals that the buffered bytes do not yet hold a
// complete unit and the caller should read more from the connection.
var errNeedMore = errors.New("http1: need more data")
