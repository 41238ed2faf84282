package main

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// osShell is the real types.ShellInterface implementation: runs commands
// through "sh -c" with a per-call timeout (spec.md §6 ShellInterface).
type osShell struct{}

func (osShell) RunCommand(ctx context.Context, cmd string, timeout float64) (int, string, error) {
	if timeout <= 0 {
		timeout = 30
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout*float64(time.Second)))
	defer cancel()

	command := exec.CommandContext(runCtx, "sh", "-c", cmd)
	var out bytes.Buffer
	command.Stdout = &out
	command.Stderr = &out

	err := command.Run()
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
		err = nil
	} else if err != nil {
		return -1, out.String(), err
	}
	return exitCode, out.String(), nil
}
