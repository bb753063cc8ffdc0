// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// OTLPConfig
type OTLPConfig struct {
	ServiceName string

	// gRPC target string which is passed to grpc.DialContext.
	Target string

	// Maximum time to wait for the collector connection to be
	// established before failing initialization.
	DialTimeout time.Duration
}

// OTLPOption
type OTLPOption func(*OTLPConfig)

// OTLPServiceName sets the service.name resource attribute on all
// exported spans.
func OTLPServiceName(name string) OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.ServiceName = name
	}
}

// DialTimeout overrides the collector connection timeout.
//
// Default is 1 second.
func DialTimeout(d time.Duration) OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.DialTimeout = d
	}
}

// OTLP returns an Initializer which exports spans over gRPC to an
// OTLP collector at the given target.
func OTLP(target string, opts ...OTLPOption) Initializer {
	cfg := OTLPConfig{
		Target:      target,
		DialTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg OTLPConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	// Note the use of insecure transport here. TLS is recommended in production.
	conn, err := grpc.DialContext(
		dialCtx,
		cfg.Target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	return tp, nil
}
