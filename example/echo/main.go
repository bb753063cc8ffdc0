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
	"github.com/z5labs/chisel/http1"
)

func main() {
	logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{AddSource: true})

	rt := chisel.NewRuntime(
		chisel.ListenOnPort(8080),
		chisel.LogHandler(logHandler),
		chisel.Handle(http1.HandlerFunc(echo)),
	)

	err := app.Recover(app.WithSignalNotifications(rt, os.Interrupt, os.Kill)).Run(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

// echo streams the request body straight back without buffering it.
// The response reuses the request's length so a chunked request
// produces a chunked response.
func echo(ctx context.Context, req *http1.Request, body http1.Body) (*http1.Response, error) {
	return &http1.Response{
		StatusCode: 200,
		Body:       http1.ProducerBody(body.Len(), body.Next, body.Close),
	}, nil
}
