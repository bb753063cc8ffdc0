// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNoop(t *testing.T) {
	t.Run("will return the global provider", func(t *testing.T) {
		t.Run("if no provider has been registered", func(t *testing.T) {
			tp, err := Noop.Init(context.Background())
			require.NoError(t, err)
			assert.Equal(t, otel.GetTracerProvider(), tp)
		})
	})

	t.Run("will not fail shutdown", func(t *testing.T) {
		t.Run("if the provider has no shutdown mechanism", func(t *testing.T) {
			tp, err := Noop.Init(context.Background())
			require.NoError(t, err)
			assert.NoError(t, Shutdown(context.Background(), tp))
		})
	})
}

func TestStdout(t *testing.T) {
	t.Run("will export spans to the writer", func(t *testing.T) {
		t.Run("if a span is recorded and the provider is shut down", func(t *testing.T) {
			var sb strings.Builder
			tp, err := Stdout(
				ServiceName("example"),
				Writer(&sb),
			).Init(context.Background())
			require.NoError(t, err)
			require.IsType(t, &sdktrace.TracerProvider{}, tp)

			_, span := tp.Tracer("test").Start(context.Background(), "op")
			span.End()

			require.NoError(t, Shutdown(context.Background(), tp))

			out := sb.String()
			assert.Contains(t, out, `"op"`)
			assert.Contains(t, out, "example")
		})
	})
}
