// Package runner defines how bundle lifecycle hooks are executed.
// It has no dependencies so both the framework and the test doubles can import it.
package runner

// CommandRunner runs a shell command line as the given user.
// An empty user means the current process user.
type CommandRunner interface {
	Run(user, command string) ([]byte, error)
}
