// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package proxy provides a chisel handler which forwards requests to an upstream HTTP server.
package proxy

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/z5labs/chisel/http1"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type handlerOptions struct {
	logger      *zap.Logger
	maxRetries  int
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
}

// HandlerOption
type HandlerOption func(*handlerOptions)

// Logger configures the zap.Logger used for retry and circuit
// breaker state change logging.
func Logger(logger *zap.Logger) HandlerOption {
	return func(ho *handlerOptions) {
		ho.logger = logger
	}
}

// MaxRetries is the maximum number of times a request is retried
// against the upstream before failing.
//
// Default is 3.
func MaxRetries(n int) HandlerOption {
	return func(ho *handlerOptions) {
		ho.maxRetries = n
	}
}

// CircuitTripCount determines the number of consecutive failures
// required to trip the circuit.
//
// Default is 5.
func CircuitTripCount(n uint32) HandlerOption {
	return func(ho *handlerOptions) {
		ho.tripCount = n
	}
}

// CircuitInterval is the cyclic period of the closed state during
// which the failure counts are reset. Zero means the counts are never
// reset while closed.
func CircuitInterval(d time.Duration) HandlerOption {
	return func(ho *handlerOptions) {
		ho.interval = d
	}
}

// CircuitTimeout is the period of the open state, after which the
// circuit transitions to half open.
//
// Default is 60 seconds.
func CircuitTimeout(d time.Duration) HandlerOption {
	return func(ho *handlerOptions) {
		ho.timeout = d
	}
}

// CircuitMaxRequests is the maximum number of requests allowed to
// pass through while the circuit is half open.
func CircuitMaxRequests(n uint32) HandlerOption {
	return func(ho *handlerOptions) {
		ho.maxRequests = n
	}
}

// Handler forwards requests to a single upstream base URL, wrapping
// the upstream exchange with retries and a circuit breaker. The
// upstream response body is streamed back through the chisel framing
// engine rather than buffered.
type Handler struct {
	upstream *url.URL
	client   *retryablehttp.Client
	cb       *gobreaker.CircuitBreaker
}

// NewHandler returns a Handler forwarding to the given upstream base
// URL, e.g. "http://localhost:9090".
func NewHandler(upstream string, opts ...HandlerOption) (*Handler, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return nil, err
	}

	ho := &handlerOptions{
		logger:      zap.NewNop(),
		maxRetries:  3,
		maxRequests: 1,
		timeout:     60 * time.Second,
		tripCount:   5,
	}
	for _, opt := range opts {
		opt(ho)
	}
	log := ho.logger.Named(u.Host)

	client := retryablehttp.NewClient()
	client.RetryMax = ho.maxRetries
	client.Logger = leveledLogger{log: log.Sugar()}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        u.Host,
		MaxRequests: ho.maxRequests,
		Interval:    ho.interval,
		Timeout:     ho.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= ho.tripCount
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				log.Error("circuit has been opened")
			case gobreaker.StateHalfOpen:
				log.Warn("circuit is now half open and letting some requests through", zap.Uint32("max_requests_allowed_through", ho.maxRequests))
			case gobreaker.StateClosed:
				log.Info("circuit has been closed")
			}
		},
	})

	return &Handler{
		upstream: u,
		client:   client,
		cb:       cb,
	}, nil
}

// Serve implements the http1.Handler interface.
func (h *Handler) Serve(ctx context.Context, req *http1.Request, body http1.Body) (*http1.Response, error) {
	// The request body must be rewindable for retries.
	var payload []byte
	for {
		chunk, err := body.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		payload = append(payload, chunk...)
	}

	target := strings.TrimSuffix(h.upstream.String(), "/") + req.Target
	hreq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, payload)
	if err != nil {
		return nil, &http1.StatusError{Code: 400, Msg: "invalid upstream target", Cause: err}
	}
	for _, f := range req.Fields() {
		if isHopByHop(f.Name) {
			continue
		}
		hreq.Header.Add(f.Name, f.Value)
	}

	v, err := h.cb.Execute(func() (any, error) {
		return h.client.Do(hreq)
	})
	if err != nil {
		return nil, &http1.StatusError{Code: 502, Msg: "upstream unavailable", Cause: err}
	}
	resp := v.(*http.Response)

	fields := make([]http1.Field, 0, len(resp.Header))
	for name, values := range resp.Header {
		if isHopByHop(name) {
			continue
		}
		for _, value := range values {
			fields = append(fields, http1.Field{Name: name, Value: value})
		}
	}

	return &http1.Response{
		StatusCode: resp.StatusCode,
		Fields:     fields,
		Body:       responseBody(resp),
	}, nil
}

// isHopByHop reports whether the header field is owned by the framing
// layer on either side of the proxy and must not be forwarded.
func isHopByHop(name string) bool {
	switch {
	case strings.EqualFold(name, "Connection"):
		return true
	case strings.EqualFold(name, "Content-Length"):
		return true
	case strings.EqualFold(name, "Transfer-Encoding"):
		return true
	case strings.EqualFold(name, "Host"):
		return true
	default:
		return false
	}
}

func responseBody(resp *http.Response) http1.Body {
	size := resp.ContentLength
	if size < 0 {
		size = http1.LenUnknown
	}

	scratch := make([]byte, 32*1024)
	return http1.ProducerBody(
		size,
		func() ([]byte, error) {
			n, err := resp.Body.Read(scratch)
			if n > 0 {
				return scratch[:n], nil
			}
			if err == nil {
				return nil, nil
			}
			return nil, err
		},
		resp.Body.Close,
	)
}

// leveledLogger adapts a zap.SugaredLogger to the
// retryablehttp.LeveledLogger interface.
type leveledLogger struct {
	log *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.log.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.log.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.log.Warnw(msg, keysAndValues...)
}
