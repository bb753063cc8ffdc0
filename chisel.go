// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package chisel provides an HTTP/1.x server built directly on raw stream sockets.
package chisel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/z5labs/chisel/http1"
	"github.com/z5labs/chisel/internal/noop"
	"github.com/z5labs/chisel/internal/try"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type runtimeOptions struct {
	port           uint
	handler        http1.Handler
	logHandler     slog.Handler
	tracerProvider trace.TracerProvider
}

// RuntimeOption
type RuntimeOption func(*runtimeOptions)

// ListenOnPort will configure the server to listen on the given port.
//
// Default port is 8080.
func ListenOnPort(port uint) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.port = port
	}
}

// Handle registers the http1.Handler all requests are dispatched to.
//
// Default handler responds to every request with a 404.
func Handle(h http1.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.handler = h
	}
}

// LogHandler
func LogHandler(h slog.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.logHandler = h
	}
}

// TracerProvider configures the trace.TracerProvider used to start a
// span around each request/response exchange.
//
// Default is the globally registered provider.
func TracerProvider(tp trace.TracerProvider) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.tracerProvider = tp
	}
}

// Runtime is a listening HTTP/1.x server. Each accepted connection is
// owned by its own goroutine and driven by http1.ServeConn; across
// connections no ordering is guaranteed, within a connection requests
// are served strictly sequentially.
type Runtime struct {
	port   uint
	listen func(string, string) (net.Listener, error)

	log        *slog.Logger
	logHandler slog.Handler
	tracer     trace.Tracer

	h http1.Handler
}

// NewRuntime
func NewRuntime(opts ...RuntimeOption) *Runtime {
	ros := &runtimeOptions{
		port:       8080,
		handler:    notFoundHandler(),
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(ros)
	}

	tp := ros.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Runtime{
		port:       ros.port,
		listen:     net.Listen,
		log:        slog.New(ros.logHandler),
		logHandler: ros.logHandler,
		tracer:     tp.Tracer("github.com/z5labs/chisel"),
		h:          ros.handler,
	}
}

// Run implements the app.App interface. It blocks until ctx is
// cancelled or the listener fails. Cancelling ctx closes the listener
// and every open connection, then waits for the connection goroutines
// to unwind.
func (rt *Runtime) Run(ctx context.Context) error {
	ls, err := rt.listen("tcp", fmt.Sprintf(":%d", rt.port))
	if err != nil {
		rt.log.Error("failed to listen for connections", slog.String("error", err.Error()))
		return err
	}

	var wg sync.WaitGroup
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()

		defer rt.log.Info("shut down service")
		rt.log.Info("shutting down service")
		return ls.Close()
	})
	g.Go(func() error {
		rt.log.Info("started service", slog.String("addr", ls.Addr().String()))
		for {
			conn, err := ls.Accept()
			if err != nil {
				return err
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				rt.serveConn(gctx, conn)
			}()
		}
	})

	err = g.Wait()
	wg.Wait()
	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	rt.log.Error("service encountered unexpected error", slog.String("error", err.Error()))
	return err
}

// serveConn drives one accepted connection. A panic escaping the
// driver or handler tears down only this connection, not the process.
func (rt *Runtime) serveConn(ctx context.Context, conn net.Conn) {
	err := func() (err error) {
		defer try.Recover(&err)

		return http1.ServeConn(ctx, conn, rt.traceRequests(rt.h), http1.LogHandler(rt.logHandler))
	}()
	if err == nil {
		return
	}
	rt.log.Debug("connection ended with error",
		slog.String("remote_addr", conn.RemoteAddr().String()),
		slog.String("error", err.Error()),
	)
}

// traceRequests wraps h so every exchange runs inside its own span.
func (rt *Runtime) traceRequests(h http1.Handler) http1.Handler {
	return http1.HandlerFunc(func(ctx context.Context, req *http1.Request, body http1.Body) (*http1.Response, error) {
		spanCtx, span := rt.tracer.Start(
			ctx,
			req.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.path", req.Target),
				attribute.String("network.protocol.version", req.Proto),
			),
		)
		defer span.End()

		resp, err := h.Serve(spanCtx, req, body)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		return resp, nil
	})
}

func notFoundHandler() http1.Handler {
	return http1.HandlerFunc(func(ctx context.Context, req *http1.Request, body http1.Body) (*http1.Response, error) {
		return &http1.Response{
			StatusCode: 404,
			Fields: []http1.Field{
				{Name: "Content-Type", Value: "text/plain; charset=utf-8"},
			},
			Body: http1.StringBody("resource not found"),
		}, nil
	})
}
