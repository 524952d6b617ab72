// Package config provides configuration management for woodpecker.
package config

import (
	"time"

	"github.com/randomizedcoder/go-woodpecker/internal/git"
)

// Git operations the CLI can run instead of an arbitrary executable.
const (
	GitClone = git.OpClone
	GitPull  = git.OpPull
	GitPush  = git.OpPush
)

// Config holds all configuration options for one woodpecker invocation.
type Config struct {
	// Process
	Executable  string        `json:"executable"`
	Arguments   string        `json:"arguments"`
	WorkingDir  string        `json:"working_dir"`
	Env         []string      `json:"env"`
	StopTimeout time.Duration `json:"stop_timeout"`

	// Git
	GitOp       string `json:"git_op"` // clone, pull, push
	GitPath     string `json:"git_path"`
	Source      string `json:"source"`
	Destination string `json:"destination"`

	// Observability
	MetricsAddr string `json:"metrics_addr"` // empty = disabled
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // json, text, console
	LogLevel    string `json:"log_level"`

	// Output
	TUIEnabled bool `json:"tui"`
	Quiet      bool `json:"quiet"`   // do not echo child output
	Summary    bool `json:"summary"` // print the exit summary

	// Diagnostic modes
	PrintCmd      bool `json:"print_cmd"`
	SkipPreflight bool `json:"skip_preflight"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StopTimeout: 5 * time.Second,

		GitPath: git.DefaultPath,

		MetricsAddr: "",
		Verbose:     false,
		LogFormat:   "text",
		LogLevel:    "info",
	}
}

// IsGit reports whether the config selects a git operation.
func (c *Config) IsGit() bool {
	return c.GitOp != ""
}
