// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Add appends a check, failing the result if the check failed.
func (r *Result) Add(c Check) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// RunAll checks that executable can be found and that workingDir is usable.
// extra checks are appended after the built-in ones.
func RunAll(executable, workingDir string, extra ...Check) *Result {
	result := &Result{
		Checks: make([]Check, 0, 3+len(extra)),
		Passed: true,
	}

	result.Add(CheckExecutable(executable))
	result.Add(CheckWorkingDir(workingDir))
	result.Add(checkFileDescriptors())
	for _, c := range extra {
		result.Add(c)
	}

	return result
}

// CheckExecutable verifies the executable can be resolved the way the
// process will be started.
func CheckExecutable(path string) Check {
	if path == "" {
		return Check{
			Name:    "executable",
			Passed:  false,
			Message: "no executable given",
		}
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return Check{
			Name:    "executable",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", path, err),
		}
	}

	return Check{
		Name:    "executable",
		Passed:  true,
		Message: fmt.Sprintf("found at %s", resolved),
	}
}

// CheckWorkingDir verifies dir exists and is a directory. An empty dir means
// the current directory.
func CheckWorkingDir(dir string) Check {
	if dir == "" {
		return Check{
			Name:    "working_dir",
			Passed:  true,
			Message: "current directory",
		}
	}
	return checkDir("working_dir", dir)
}

// CheckCloneDestination verifies a clone can create dst: its parent must
// exist and dst itself must be absent or an empty directory.
func CheckCloneDestination(dst string) Check {
	parent := filepath.Dir(filepath.Clean(dst))
	if c := checkDir("clone_destination", parent); !c.Passed {
		return c
	}

	entries, err := os.ReadDir(dst)
	switch {
	case os.IsNotExist(err):
		return Check{
			Name:    "clone_destination",
			Passed:  true,
			Message: fmt.Sprintf("%s will be created", dst),
		}
	case err != nil:
		return Check{
			Name:    "clone_destination",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", dst, err),
		}
	case len(entries) > 0:
		return Check{
			Name:    "clone_destination",
			Passed:  false,
			Message: fmt.Sprintf("%s exists and is not empty", dst),
		}
	}

	return Check{
		Name:    "clone_destination",
		Passed:  true,
		Message: fmt.Sprintf("%s is empty", dst),
	}
}

// CheckRepository verifies dir exists so git can run in it. name labels the
// check, e.g. "pull_destination".
func CheckRepository(name, dir string) Check {
	return checkDir(name, dir)
}

func checkDir(name, dir string) Check {
	info, err := os.Stat(dir)
	if err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", dir, err),
		}
	}
	if !info.IsDir() {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("%s is not a directory", dir),
		}
	}
	return Check{
		Name:    name,
		Passed:  true,
		Message: dir,
	}
}

// PrintResults prints the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "executable":
		return "install it, add its directory to PATH, or pass an absolute path"
	case "working_dir":
		return "create the directory or pass an existing one with -dir"
	case "file_descriptors":
		return "ulimit -n 1024 (or edit /etc/security/limits.conf)"
	case "clone_destination":
		return "choose a new or empty destination directory"
	case "pull_destination", "push_source":
		return "clone the repository first"
	default:
		return "see documentation"
	}
}
