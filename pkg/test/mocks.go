package test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// MockCommandRunner records lifecycle hooks instead of running them.
type MockCommandRunner struct {
	mu           sync.Mutex
	Commands     []string            // Track executed commands
	Errors       map[string]error    // Error by command key (user:command)
	UserCommands map[string][]string // Track commands by user
}

// NewMockCommandRunner creates a new MockCommandRunner with initialized maps.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		Commands:     []string{},
		Errors:       make(map[string]error),
		UserCommands: make(map[string][]string),
	}
}

// Run records the command and returns the configured error.
func (r *MockCommandRunner) Run(user, command string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := user + ":" + command
	r.Commands = append(r.Commands, command)
	r.UserCommands[user] = append(r.UserCommands[user], command)

	if err, ok := r.Errors[key]; ok {
		return nil, err
	}
	return nil, nil
}

// SetError configures an error for a specific user:command.
func (r *MockCommandRunner) SetError(user, command string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors[user+":"+command] = err
}

// Executed returns a copy of the recorded commands.
func (r *MockCommandRunner) Executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.Commands...)
}

// ExecutedAs returns the commands recorded for a user.
func (r *MockCommandRunner) ExecutedAs(user string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.UserCommands[user]...)
}

// MockLogger captures logged messages for verification. It is safe for
// concurrent use.
type MockLogger struct {
	mu       sync.Mutex
	Messages []string
	Level    slog.Level
}

// NewMockLogger creates a new MockLogger with the specified level.
func NewMockLogger(level slog.Level) *MockLogger {
	return &MockLogger{
		Messages: []string{},
		Level:    level,
	}
}

func (l *MockLogger) Debug(msg string, args ...any) {
	if l.Level <= slog.LevelDebug {
		l.captureMessage("DEBUG", msg, args...)
	}
}

func (l *MockLogger) Info(msg string, args ...any) {
	if l.Level <= slog.LevelInfo {
		l.captureMessage("INFO", msg, args...)
	}
}

func (l *MockLogger) Warn(msg string, args ...any) {
	if l.Level <= slog.LevelWarn {
		l.captureMessage("WARN", msg, args...)
	}
}

func (l *MockLogger) Error(msg string, args ...any) {
	if l.Level <= slog.LevelError {
		l.captureMessage("ERROR", msg, args...)
	}
}

func (l *MockLogger) captureMessage(level, msg string, args ...any) {
	buf := &bytes.Buffer{}
	buf.WriteString(level)
	buf.WriteString(": ")
	buf.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		buf.WriteString(" ")
		buf.WriteString(fmt.Sprintf("%v", args[i]))
		buf.WriteString("=")
		buf.WriteString(fmt.Sprintf("%v", args[i+1]))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, buf.String())
}

// HasMessage checks if any captured message contains the given substring.
func (l *MockLogger) HasMessage(substring string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.Messages {
		if strings.Contains(msg, substring) {
			return true
		}
	}
	return false
}

// Warnings returns the captured WARN messages.
func (l *MockLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []string
	for _, msg := range l.Messages {
		if strings.HasPrefix(msg, "WARN: ") {
			result = append(result, msg)
		}
	}
	return result
}
