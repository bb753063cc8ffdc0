// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/z5labs/chisel/buffer"
	"github.com/z5labs/chisel/internal/noop"
)

type serveOptions struct {
	logHandler slog.Handler
}

// ServeOption configures the behaviour of ServeConn.
type ServeOption func(*serveOptions)

// LogHandler configures the slog.Handler the connection driver logs to.
//
// Default is to discard all logs.
func LogHandler(h slog.Handler) ServeOption {
	return func(so *serveOptions) {
		so.logHandler = h
	}
}

// ServeConn drives one connection through sequential request/response
// exchanges until the peer disconnects, the request version forbids
// persistence, a protocol error occurs or ctx is cancelled. Requests
// on a single connection are processed strictly sequentially; a second
// request is never parsed until the first exchange has fully completed.
//
// Cancelling ctx closes the underlying transport, which unblocks any
// outstanding read or write so the connection goroutine can unwind.
// ServeConn always closes nc before returning.
func ServeConn(ctx context.Context, nc net.Conn, h Handler, opts ...ServeOption) error {
	so := &serveOptions{
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(so)
	}
	log := slog.New(so.logHandler).With(slog.String("remote_addr", nc.RemoteAddr().String()))

	stop := context.AfterFunc(ctx, func() {
		nc.Close()
	})
	defer stop()

	c := newConn(nc)
	defer c.Close()

	var buf buffer.Dynamic
	for {
		keepAlive, err := serveExchange(ctx, c, &buf, h, log)
		if err != nil {
			return err
		}
		if !keepAlive {
			return nil
		}
	}
}

// serveExchange runs one request/response exchange. It reports whether
// the connection may be reused for a subsequent request. A nil error
// with keepAlive == false is a clean close.
//
// A best-effort error response is only attempted for failures raised
// before any response bytes were written for this exchange. Once the
// response head is on the wire the framing contract with the peer is
// fixed and later failures can only abort the connection.
func serveExchange(ctx context.Context, c *conn, buf *buffer.Dynamic, h Handler, log *slog.Logger) (keepAlive bool, err error) {
	req, err := awaitRequest(c, buf)
	if err != nil {
		respondError(c, log, err)
		return false, err
	}
	if req == nil {
		log.Debug("peer closed connection")
		return false, nil
	}
	log.Debug("parsed request",
		slog.String("method", req.Method),
		slog.String("target", req.Target),
		slog.String("proto", req.Proto),
	)

	body, err := requestBody(req, c, buf)
	if err != nil {
		respondError(c, log, err)
		return false, err
	}
	defer body.Close()

	resp, err := h.Serve(ctx, req, body)
	if err != nil {
		respondError(c, log, err)
		return false, err
	}

	werr := writeResponse(c, resp)
	if resp.Body != nil {
		// Release the response body resource regardless of the
		// write outcome.
		cerr := resp.Body.Close()
		if cerr != nil {
			log.Error("failed to close response body", slog.String("error", cerr.Error()))
		}
	}
	if werr != nil {
		return false, werr
	}
	log.Debug("wrote response", slog.Int("status", resp.StatusCode))

	if req.Proto == "HTTP/1.0" {
		return false, nil
	}

	// Exhaust any unread request body bytes so they do not corrupt
	// the framing of the next request on this connection.
	for {
		_, err := body.Next()
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, err
		}
	}
}

// awaitRequest reads from the connection until buf holds one complete
// request head. It returns a nil Request and nil error when the peer
// closed the connection with no partial request buffered.
func awaitRequest(c *conn, buf *buffer.Dynamic) (*Request, error) {
	for {
		req, err := tryParseRequest(buf)
		if err == nil {
			return req, nil
		}
		if !errors.Is(err, errNeedMore) {
			return nil, err
		}

		p, err := c.Read()
		if err != nil {
			return nil, err
		}
		if len(p) == 0 {
			if buf.Len() == 0 {
				return nil, nil
			}
			return nil, unexpectedEOF()
		}
		buf.Append(p)
	}
}

// respondError writes a best-effort error response for failures that
// carry a status code. Transport-level failures get no response since
// the connection is already unusable, and a failed error write is
// itself swallowed.
func respondError(c *conn, log *slog.Logger, err error) {
	var se *StatusError
	if !errors.As(err, &se) {
		log.Error("closing connection without response", slog.String("error", err.Error()))
		return
	}
	log.Error("failing connection", slog.Int("status", se.Code), slog.String("error", err.Error()))

	werr := writeResponse(c, &Response{
		StatusCode: se.Code,
		Fields: []Field{
			{Name: "Content-Type", Value: "text/plain; charset=utf-8"},
		},
		Body: StringBody(se.Msg),
	})
	if werr != nil {
		log.Debug("failed to write error response", slog.String("error", werr.Error()))
	}
}
