// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tracing provides trace.TracerProvider initializers for the chisel runtime.
package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Initializer constructs a configured trace.TracerProvider. Providers
// returned by an Initializer may hold resources, e.g. network
// connections or batch processors, and should be shut down via
// Shutdown once the runtime exits.
type Initializer interface {
	Init(ctx context.Context) (trace.TracerProvider, error)
}

// Shutdown flushes and stops tp if it is a provider type which
// supports it. Providers without a shutdown mechanism are ignored.
func Shutdown(ctx context.Context, tp trace.TracerProvider) error {
	s, ok := tp.(interface {
		Shutdown(context.Context) error
	})
	if !ok {
		return nil
	}
	return s.Shutdown(ctx)
}

// Noop is an Initializer which leaves tracing disabled by returning
// the globally registered provider untouched.
var Noop Initializer = noop{}

type noop struct{}

func (noop) Init(ctx context.Context) (trace.TracerProvider, error) {
	return otel.GetTracerProvider(), nil
}

// StdoutConfig
type StdoutConfig struct {
	ServiceName string

	Out io.Writer
}

// StdoutOption
type StdoutOption func(*StdoutConfig)

// ServiceName sets the service.name resource attribute on all
// exported spans.
func ServiceName(name string) StdoutOption {
	return func(cfg *StdoutConfig) {
		cfg.ServiceName = name
	}
}

// Writer overrides the destination spans are written to.
//
// Default is os.Stdout.
func Writer(w io.Writer) StdoutOption {
	return func(cfg *StdoutConfig) {
		cfg.Out = w
	}
}

// Stdout returns an Initializer which exports spans as JSON to a
// local writer. Meant for development and tests.
func Stdout(opts ...StdoutOption) Initializer {
	cfg := StdoutConfig{
		Out: os.Stdout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg StdoutConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	return resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
}
