// Package main provides the woodpecker CLI entry point.
//
// woodpecker runs one external process, captures its output line by line and
// exits with the child's exit code. It can also clone, pull and push git
// repositories.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/randomizedcoder/go-woodpecker/internal/config"
	"github.com/randomizedcoder/go-woodpecker/internal/logging"
	"github.com/randomizedcoder/go-woodpecker/internal/orchestrator"
	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/woodpecker
var version = "dev"

// Exit codes used when the child never ran.
const (
	exitUsage         = 2
	exitPreflight     = 1
	exitLaunchFailure = 127
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Handle version flag early (before flag parsing)
	if len(args) > 0 {
		arg := args[0]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("woodpecker %s\n", version)
			return 0
		}
	}

	// Parse command-line flags
	cfg, err := config.ParseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return exitUsage
	}

	// Initialize logger
	// When TUI is enabled, suppress logs to avoid interfering with TUI rendering
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, cfg.LogLevel, cfg.Verbose)
	}
	logging.SetDefault(logger)

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	orch := orchestrator.New(cfg, logger, orchestrator.WithVersion(version))

	// Handle -print-cmd mode
	if cfg.PrintCmd {
		if err := orch.PrintCommand(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitUsage
		}
		return 0
	}

	// SIGINT and SIGTERM stop the child; its exit code is still reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := orch.Run(ctx)
	switch {
	case errors.Is(err, orchestrator.ErrPreflightFailed):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitPreflight
	case errors.Is(err, process.ErrLaunchFailure):
		logger.Error("launch_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitLaunchFailure
	case err != nil:
		logger.Error("run_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return out.ExitCode
}
