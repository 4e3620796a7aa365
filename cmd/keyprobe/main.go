package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/germanamz/keyprobe/pkg/config"
	"github.com/germanamz/keyprobe/pkg/probe"
	"github.com/germanamz/keyprobe/pkg/providers"
	"github.com/germanamz/keyprobe/pkg/report"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, os.Getenv)
	cancel()

	os.Exit(code)
}

// run performs one probe and returns the process exit code. All environment
// access goes through getenv.
func run(ctx context.Context, stdout, stderr io.Writer, getenv func(string) string) int {
	cfg, err := config.Load(resolveConfigPath(getenv), getenv)
	if err != nil {
		report.New(stdout).ConfigError(err)
		return 1
	}

	var opts []report.Option
	if cfg.Markdown {
		opts = append(opts, report.WithMarkdown(0))
	}
	rep := report.New(stdout, opts...)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			rep.MissingKey()
		} else {
			rep.ConfigError(err)
		}
		return 1
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	timeout, _ := cfg.TimeoutDuration()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	requestID := providers.NewRequestID()
	logger = logger.With("request_id", requestID)
	logger.Debug("starting probe", "config", cfg)

	client, err := providers.New(cfg, nil, requestID)
	if err != nil {
		rep.ConfigError(err)
		return 1
	}

	rep.Header()

	popts := probe.OptionsFrom(cfg)
	popts.Logger = logger
	popts.Observer = rep

	out := probe.Run(ctx, client, popts)
	rep.Outcome(out)

	return out.ExitCode()
}
