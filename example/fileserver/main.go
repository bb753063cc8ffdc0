// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/z5labs/chisel"
	"github.com/z5labs/chisel/app"
	"github.com/z5labs/chisel/fileserve"
	"github.com/z5labs/chisel/lifecycle"
	"github.com/z5labs/chisel/tracing"

	"github.com/spf13/afero"
)

func main() {
	logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{AddSource: true})

	tp, err := tracing.Stdout(
		tracing.ServiceName("fileserver"),
	).Init(context.Background())
	if err != nil {
		os.Exit(1)
	}

	fsys := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), "."))

	rt := chisel.NewRuntime(
		chisel.ListenOnPort(8080),
		chisel.LogHandler(logHandler),
		chisel.TracerProvider(tp),
		chisel.Handle(fileserve.Handler(fileserve.NewProvider(fsys))),
	)

	var base app.App = rt
	base = app.WithLifecycleHooks(base, app.Lifecycle{
		PostRun: lifecycle.HookFunc(func(ctx context.Context) error {
			return tracing.Shutdown(ctx, tp)
		}),
	})
	base = app.WithSignalNotifications(base, os.Interrupt, os.Kill)

	err = app.Recover(base).Run(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
