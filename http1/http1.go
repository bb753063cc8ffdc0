// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http1 implements HTTP/1.x message framing directly over raw stream connections.
package http1

import (
	"context"
)

// Handler responds to a single HTTP request.
//
// The body is only valid for the duration of the call and is drained
// by the connection driver once the response has been written. Handlers
// may perform their own suspending I/O before returning a response.
type Handler interface {
	Serve(ctx context.Context, req *Request, body Body) (*Response, error)
}

// HandlerFunc is a functional implementation of the Handler interface.
type HandlerFunc func(context.Context, *Request, Body) (*Response, error)

// Serve implements the Handler interface.
func (f HandlerFunc) Serve(ctx context.Context, req *Request, body Body) (*Response, error) {
	return f(ctx, req, body)
}
