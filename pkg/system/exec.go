package system

import (
	"fmt"
	"os/exec"

	"deployadmin/pkg/runner"
)

// CommandRunner is re-exported from pkg/runner so callers only import system.
type CommandRunner = runner.CommandRunner

// LiveCommandRunner runs lifecycle hooks through sh on the live system.
type LiveCommandRunner struct{}

// Run executes the command line and returns its combined output. A non-empty
// user runs the command through su.
func (r *LiveCommandRunner) Run(user, command string) ([]byte, error) {
	var cmd *exec.Cmd
	if user == "" {
		cmd = exec.Command("sh", "-c", command)
	} else {
		cmd = exec.Command("su", "-s", "/bin/sh", "-c", command, user)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("command %q failed: %w: %s", command, err, out)
	}
	return out, nil
}
