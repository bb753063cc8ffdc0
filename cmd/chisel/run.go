// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/z5labs/chisel"
	"github.com/z5labs/chisel/app"
	"github.com/z5labs/chisel/config"
	"github.com/z5labs/chisel/fileserve"
	"github.com/z5labs/chisel/http1"
	"github.com/z5labs/chisel/lifecycle"
	"github.com/z5labs/chisel/proxy"
	"github.com/z5labs/chisel/tracing"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type appConfig struct {
	Http struct {
		Port uint `config:"port"`
	} `config:"http"`

	Logging struct {
		Level slog.Level `config:"level"`
	} `config:"logging"`

	Serve struct {
		Dir string `config:"dir"`
	} `config:"serve"`

	Proxy struct {
		Upstream string `config:"upstream"`
	} `config:"proxy"`

	Tracing struct {
		Exporter    string `config:"exporter"`
		ServiceName string `config:"serviceName"`
		Target      string `config:"target"`
	} `config:"tracing"`

	// Environment overrides. These take precedence over the
	// corresponding file values when set.
	PortOverride string `config:"CHISEL_PORT"`
}

func readConfig(configFile string) (appConfig, error) {
	var cfg appConfig
	cfg.Http.Port = 8080
	cfg.Serve.Dir = "."

	srcs := []config.Source{config.FromEnv()}
	if _, err := os.Stat(configFile); err == nil {
		dir, name := filepath.Split(configFile)
		if dir == "" {
			dir = "."
		}
		srcs = append(
			[]config.Source{config.FromYaml(config.NewFileReader(os.DirFS(dir), name))},
			srcs...,
		)
	}

	m, err := config.Read(srcs...)
	if err != nil {
		return cfg, err
	}

	err = m.Unmarshal(&cfg)
	if err != nil {
		return cfg, err
	}

	if cfg.PortOverride != "" {
		port, err := strconv.ParseUint(cfg.PortOverride, 10, 16)
		if err != nil {
			return cfg, err
		}
		cfg.Http.Port = uint(port)
	}
	return cfg, nil
}

func run(ctx context.Context, configFile string) error {
	cfg, err := readConfig(configFile)
	if err != nil {
		return err
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Logging.Level,
	})
	log := slog.New(logHandler)

	tp, err := tracerProvider(ctx, cfg)
	if err != nil {
		return err
	}

	h, err := handler(cfg, log)
	if err != nil {
		return err
	}

	rt := chisel.NewRuntime(
		chisel.ListenOnPort(cfg.Http.Port),
		chisel.Handle(h),
		chisel.LogHandler(logHandler),
		chisel.TracerProvider(tp),
	)

	var base app.App = rt
	base = app.WithLifecycleHooks(base, app.Lifecycle{
		PostRun: lifecycle.HookFunc(func(ctx context.Context) error {
			return tracing.Shutdown(ctx, tp)
		}),
	})
	base = app.WithSignalNotifications(base, os.Interrupt, os.Kill)
	base = app.Recover(base)

	return base.Run(ctx)
}

var errUnknownTracingExporter = errors.New("unknown tracing exporter")

func tracerProvider(ctx context.Context, cfg appConfig) (trace.TracerProvider, error) {
	var init tracing.Initializer
	switch cfg.Tracing.Exporter {
	case "":
		init = tracing.Noop
	case "stdout":
		init = tracing.Stdout(
			tracing.ServiceName(cfg.Tracing.ServiceName),
		)
	case "otlp":
		init = tracing.OTLP(
			cfg.Tracing.Target,
			tracing.OTLPServiceName(cfg.Tracing.ServiceName),
		)
	default:
		return nil, errUnknownTracingExporter
	}
	return init.Init(ctx)
}

func handler(cfg appConfig, log *slog.Logger) (http1.Handler, error) {
	if cfg.Proxy.Upstream != "" {
		zlog, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		return proxy.NewHandler(
			cfg.Proxy.Upstream,
			proxy.Logger(zlog),
		)
	}

	log.Info("serving directory", slog.String("dir", cfg.Serve.Dir))
	fsys := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), cfg.Serve.Dir))
	return fileserve.Handler(fileserve.NewProvider(fsys)), nil
}
