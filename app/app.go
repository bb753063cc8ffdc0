// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app provides helpers for wrapping the execution of long running applications.
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/z5labs/chisel/internal/try"
	"github.com/z5labs/chisel/lifecycle"
)

// App represents the entry point for user specific code.
type App interface {
	Run(context.Context) error
}

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Recover will wrap the given [App] with panic recovery.
// The recovered value is returned as a [try.PanicError].
func Recover(app App) App {
	return runFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return app.Run(ctx)
	})
}

// WithSignalNotifications wraps a given [App] in an implementation
// that cancels the [context.Context] that's passed to app.Run if an
// [os.Signal] is received by the running process.
func WithSignalNotifications(app App, signals ...os.Signal) App {
	return runFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return app.Run(sigCtx)
	})
}

// Lifecycle configures hooks to run relative to the execution of an [App].
type Lifecycle struct {
	// PostRun is always executed regardless if the underlying [App]
	// returns an error or panics.
	PostRun lifecycle.Hook
}

// WithLifecycleHooks wraps a given [App] in an implementation
// that runs [lifecycle.Hook]s around the execution of app.Run.
func WithLifecycleHooks(app App, lc Lifecycle) App {
	return runFunc(func(ctx context.Context) (err error) {
		defer runPostRunHook(ctx, lc.PostRun, &err)

		return app.Run(ctx)
	})
}

func runPostRunHook(ctx context.Context, hook lifecycle.Hook, err *error) {
	if hook == nil {
		return
	}

	hookErr := hook.Run(ctx)
	if hookErr == nil {
		return
	}
	*err = errors.Join(*err, hookErr)
}
