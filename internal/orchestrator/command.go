package orchestrator

import (
	"fmt"
	"io"

	"github.com/randomizedcoder/go-woodpecker/internal/process"
)

// Command builds the runner Run would start, without starting it.
func (o *Orchestrator) Command() (*process.Runner, error) {
	if o.config.IsGit() {
		return o.gitClient(nil).Command(o.config.GitOp, o.gitParameters())
	}
	return process.New(o.config.Executable, o.config.Arguments, o.config.WorkingDir)
}

// PrintCommand writes the command line that would be run, its working
// directory and the argv it splits into.
func (o *Orchestrator) PrintCommand(w io.Writer) error {
	r, err := o.Command()
	if err != nil {
		return err
	}
	inv := r.Invocation()

	args, err := process.SplitArguments(inv.Arguments)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "# Command that would be run:")
	if inv.WorkingDir != "" {
		fmt.Fprintf(w, "# working directory: %s\n", inv.WorkingDir)
	}
	fmt.Fprintf(w, "# argv: %q\n", append([]string{inv.Path}, args...))
	fmt.Fprintln(w)
	if inv.Arguments == "" {
		fmt.Fprintln(w, inv.Path)
	} else {
		fmt.Fprintln(w, inv.Path+" "+inv.Arguments)
	}
	return nil
}

func (o *Orchestrator) commandLine() string {
	if o.config.IsGit() {
		return fmt.Sprintf("%s %s %s %s", o.config.GitPath, o.config.GitOp,
			process.QuoteArgument(o.config.Source), process.QuoteArgument(o.config.Destination))
	}
	if o.config.Arguments == "" {
		return o.config.Executable
	}
	return o.config.Executable + " " + o.config.Arguments
}
