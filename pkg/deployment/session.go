package deployment

import (
	"context"
	"fmt"
	"sync/atomic"

	"deployadmin/pkg/framework"
	"deployadmin/pkg/log"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCommitted
	StateRolledBack
	// StateCancelled means the cancellation was observed before any command ran.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled-back"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Environment is what commands operate on.
type Environment struct {
	Framework framework.Framework
	// Fs holds the bundle storage areas and the snapshots.
	Fs          afero.Fs
	SnapshotDir string
	Logger      log.Logger
}

type activeCommand struct {
	cmd Command
}

// Session runs an ordered list of commands against a source and a target
// package. Every command is committed once all of them executed, otherwise
// the executed ones are rolled back in reverse order. A session runs once.
type Session struct {
	id       string
	env      Environment
	logger   log.Logger
	source   PackageView
	target   PackageView
	commands []Command
	// executed is only touched by the goroutine running Call.
	executed []Command

	current   atomic.Pointer[activeCommand]
	cancelled atomic.Bool
	state     atomic.Int32
}

func NewSession(env Environment, source, target PackageView, commands ...Command) *Session {
	if env.Logger == nil {
		env.Logger = log.Discard()
	}
	if env.Fs == nil {
		env.Fs = afero.NewMemMapFs()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		env:      env,
		logger:   log.With(env.Logger, "session", id),
		source:   source,
		target:   target,
		commands: commands,
	}
}

func (s *Session) ID() string                     { return s.id }
func (s *Session) Source() PackageView            { return s.source }
func (s *Session) Target() PackageView            { return s.target }
func (s *Session) Framework() framework.Framework { return s.env.Framework }
func (s *Session) Logger() log.Logger             { return s.logger }
func (s *Session) State() State                   { return State(s.state.Load()) }

// Call executes the commands in order. The returned error, if any, is the
// failure that triggered the rollback, and the rollback has completed by the
// time Call returns.
func (s *Session) Call() error {
	return s.CallContext(context.Background())
}

// CallContext is Call with the session cancelled when ctx is done. A ctx that
// is already done when the session starts cancels it before any command runs.
func (s *Session) CallContext(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return NewError(CodeOtherError, fmt.Sprintf("session %s cannot run in state %s", s.id, s.State()), nil)
	}
	stop := context.AfterFunc(ctx, func() { s.Cancel() })
	defer stop()
	s.logger.Info("Deployment session started",
		"source", s.source.Name()+"@"+s.source.Version(),
		"target", s.target.Name()+"@"+s.target.Version(),
		"commands", len(s.commands))

	for _, cmd := range s.commands {
		// A command may complete without noticing a cancel that arrived while
		// it was running.
		if s.cancelRequested(ctx) {
			return s.abort(cancelledError())
		}
		s.current.Store(&activeCommand{cmd: cmd})
		s.executed = append(s.executed, cmd)
		if s.cancelled.Load() {
			cmd.Cancel()
		}
		s.logger.Info(fmt.Sprintf("=> %s", cmd.Description()))
		err := cmd.Execute(s)
		s.current.Store(nil)
		if err != nil {
			return s.abort(asDeploymentError(err))
		}
	}
	if s.cancelRequested(ctx) {
		return s.abort(cancelledError())
	}

	for _, cmd := range s.commands {
		cmd.Commit()
	}
	s.state.Store(int32(StateCommitted))
	s.logger.Info("Deployment session committed")
	return nil
}

// Cancel requests cancellation of a running session. It returns true only if
// a command was executing and received the request. Cancelling an idle or
// finished session has no effect.
func (s *Session) Cancel() bool {
	if s.State() != StateRunning {
		return false
	}
	s.cancelled.Store(true)
	if active := s.current.Load(); active != nil {
		active.cmd.Cancel()
		return true
	}
	return false
}

func (s *Session) cancelRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		s.cancelled.Store(true)
	}
	return s.cancelled.Load()
}

func (s *Session) abort(err *DeploymentError) error {
	if err.Code == CodeCancelled {
		s.logger.Warn("Deployment session cancelled, rolling back", "executed", len(s.executed))
	} else {
		s.logger.Error("Command failed, rolling back changes", "error", err)
	}
	s.rollback()
	if len(s.executed) == 0 {
		s.state.Store(int32(StateCancelled))
	} else {
		s.state.Store(int32(StateRolledBack))
	}
	return err
}

func (s *Session) rollback() {
	s.logger.Info("--- Starting Rollback ---")
	for i := len(s.executed) - 1; i >= 0; i-- {
		cmd := s.executed[i]
		s.logger.Info(fmt.Sprintf("<= Rolling back: %s", cmd.Description()))
		cmd.Rollback()
	}
	s.logger.Info("--- Rollback Complete ---")
}
