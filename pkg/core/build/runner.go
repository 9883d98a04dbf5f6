package build

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/kballard/go-shellquote"
)

// Runner executes an external tool in a given working directory and returns
// its combined stdout+stderr. Implemented by [ExecRunner]; tests substitute
// fakes with scripted outcomes.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (string, error)
}

// ExecRunner runs commands via os/exec. The working directory is set per
// invocation on the command itself; the process-wide working directory is
// never changed.
type ExecRunner struct {
	Logger func(string, ...any) // Invocation callback (optional)
}

// Run executes name with args in dir, capturing stdout and stderr
// interleaved into one buffer. The captured text is returned even when the
// command fails.
func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	if r.Logger != nil {
		r.Logger("exec: %s (in %s)", shellquote.Join(append([]string{name}, args...)...), dir)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	return buf.String(), err
}
