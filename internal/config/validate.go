package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	// Exactly one of an executable or a git operation
	switch {
	case cfg.IsGit() && strings.TrimSpace(cfg.Executable) != "":
		errs = append(errs, ValidationError{
			Field:   "executable",
			Message: "cannot be combined with -git",
		})
	case !cfg.IsGit() && strings.TrimSpace(cfg.Executable) == "":
		errs = append(errs, ValidationError{
			Field:   "executable",
			Message: "an executable or -git operation is required",
		})
	}

	if cfg.IsGit() {
		errs = append(errs, validateGit(cfg)...)
	}

	for _, kv := range cfg.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			errs = append(errs, ValidationError{
				Field:   "env",
				Message: fmt.Sprintf("must be KEY=VALUE (got %q)", kv),
			})
		}
	}

	if cfg.StopTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "stop_timeout",
			Message: "must be positive",
		})
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json', 'text' or 'console' (got %q)", cfg.LogFormat),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be 'debug', 'info', 'warn' or 'error' (got %q)", cfg.LogLevel),
		})
	}

	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "metrics_addr",
				Message: err.Error(),
			})
		}
	}

	if cfg.TUIEnabled && cfg.PrintCmd {
		errs = append(errs, ValidationError{
			Field:   "tui",
			Message: "cannot be combined with -print-cmd",
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validateGit(cfg *Config) []error {
	var errs []error

	switch cfg.GitOp {
	case GitClone, GitPull, GitPush:
	default:
		errs = append(errs, ValidationError{
			Field:   "git",
			Message: fmt.Sprintf("must be 'clone', 'pull' or 'push' (got %q)", cfg.GitOp),
		})
	}

	if strings.TrimSpace(cfg.Source) == "" {
		errs = append(errs, ValidationError{
			Field:   "source",
			Message: "-src is required with -git",
		})
	}
	if strings.TrimSpace(cfg.Destination) == "" {
		errs = append(errs, ValidationError{
			Field:   "destination",
			Message: "-dst is required with -git",
		})
	}

	// The working directory follows from the operation.
	if cfg.WorkingDir != "" {
		errs = append(errs, ValidationError{
			Field:   "working_dir",
			Message: "-dir cannot be combined with -git",
		})
	}
	if cfg.Arguments != "" {
		errs = append(errs, ValidationError{
			Field:   "arguments",
			Message: "-args cannot be combined with -git",
		})
	}
	if strings.TrimSpace(cfg.GitPath) == "" {
		errs = append(errs, ValidationError{
			Field:   "git_path",
			Message: "must not be empty",
		})
	}

	return errs
}
