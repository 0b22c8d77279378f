package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Runner executes git with args in dir
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (stdout, stderr []byte, exitCode int, err error)
}

// ExecRunner runs the git binary found in PATH
type ExecRunner struct {
	Bin string
}

// Run implements Runner with os/exec
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, []byte, int, error) {
	bin := r.Bin
	if bin == "" {
		bin = "git"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	// Keep git output stable for parsing
	cmd.Env = append(cmd.Environ(), "LC_ALL=C", "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), err
	}

	exitCode := 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = 127
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// commandError wraps a failed git invocation with its output
func commandError(err error, args []string, stdout, stderr []byte, exitCode int) *goerr.Error {
	return goerr.Wrap(err, "git command failed",
		goerr.V("args", strings.Join(args, " ")),
		goerr.V("exit_code", exitCode),
		goerr.V("stdout", strings.TrimSpace(string(stdout))),
		goerr.V("stderr", strings.TrimSpace(string(stderr))),
	)
}
