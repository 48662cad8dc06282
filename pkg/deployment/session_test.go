package deployment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"deployadmin/pkg/framework"
	"deployadmin/pkg/model"
	"deployadmin/pkg/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func emptyPackages() (*model.DeploymentPackage, *model.DeploymentPackage) {
	return test.Package("shop", "2.0.0"), test.Package("shop", "1.0.0")
}

func TestSession_CommitsInOrder(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	source, target := emptyPackages()
	s := f.session(source, target, newFakeCommand("a", rec), newFakeCommand("b", rec), newFakeCommand("c", rec))

	require.NoError(t, s.Call())

	assert.Equal(t, []string{
		"execute a", "execute b", "execute c",
		"commit a", "commit b", "commit c",
	}, rec.all())
	assert.Equal(t, StateCommitted, s.State())
	assert.Nil(t, s.current.Load())
}

func TestSession_RollsBackExecutedPrefixInReverse(t *testing.T) {
	for n := 1; n <= 4; n++ {
		for k := 0; k < n; k++ {
			t.Run(fmt.Sprintf("%d commands failing at %d", n, k), func(t *testing.T) {
				f := newFixture()
				rec := &recorder{}
				commands := make([]Command, n)
				for i := range commands {
					cmd := newFakeCommand(fmt.Sprint(i), rec)
					if i == k {
						cmd.err = NewError(CodeOtherError, "boom", nil)
					}
					commands[i] = cmd
				}
				source, target := emptyPackages()
				s := f.session(source, target, commands...)

				err := s.Call()
				require.Error(t, err)

				expected := []string{}
				for i := 0; i <= k; i++ {
					expected = append(expected, fmt.Sprintf("execute %d", i))
				}
				for i := k; i >= 0; i-- {
					expected = append(expected, fmt.Sprintf("rollback %d", i))
				}
				assert.Equal(t, expected, rec.all())
				assert.Equal(t, StateRolledBack, s.State())
			})
		}
	}
}

func TestSession_FailureScenario(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	cause := errors.New("bundle failed to start")
	c := newFakeCommand("C", rec)
	c.err = NewError(CodeOtherError, "could not start customizer bundle 'x'", cause)
	source, target := emptyPackages()
	s := f.session(source, target, newFakeCommand("A", rec), newFakeCommand("B", rec), c)

	err := s.Call()

	require.Error(t, err)
	code, ok := ErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, CodeOtherError, code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{
		"execute A", "execute B", "execute C",
		"rollback C", "rollback B", "rollback A",
	}, rec.all())
	assert.NotContains(t, rec.all(), "commit A")
	test.AssertLogContains(t, f.logger, "Command failed, rolling back changes")
}

func TestSession_WrapsPlainErrors(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	cause := errors.New("disk full")
	cmd := newFakeCommand("a", rec)
	cmd.err = cause
	source, target := emptyPackages()
	s := f.session(source, target, cmd)

	err := s.Call()

	var de *DeploymentError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeOtherError, de.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "deployment failed (OTHER_ERROR): disk full", err.Error())
}

func TestSession_CancelWhenIdleOrFinished(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	source, target := emptyPackages()
	s := f.session(source, target, newFakeCommand("a", rec))

	assert.False(t, s.Cancel())
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Call())
	assert.Equal(t, []string{"execute a", "commit a"}, rec.all())

	assert.False(t, s.Cancel())
	assert.Equal(t, StateCommitted, s.State())
}

func TestSession_CancelDuringExecuteRollsBack(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	var forwarded bool
	a := newFakeCommand("a", rec)
	a.execute = func(c *fakeCommand, s *Session) error {
		forwarded = s.Cancel()
		// The command ignores the request and completes.
		return nil
	}
	source, target := emptyPackages()
	s := f.session(source, target, a, newFakeCommand("b", rec))

	err := s.Call()

	assert.True(t, forwarded)
	assert.True(t, a.IsCancelled())
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, []string{"execute a", "rollback a"}, rec.all())
	assert.Equal(t, StateRolledBack, s.State())
}

func TestSession_CancelDuringLastCommandRollsBack(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	last := newFakeCommand("b", rec)
	last.execute = func(c *fakeCommand, s *Session) error {
		s.Cancel()
		return nil
	}
	source, target := emptyPackages()
	s := f.session(source, target, newFakeCommand("a", rec), last)

	err := s.Call()

	assert.True(t, IsCancelled(err))
	assert.Equal(t, []string{"execute a", "execute b", "rollback b", "rollback a"}, rec.all())
}

func TestSession_CancelFromAnotherGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture()
	rec := &recorder{}
	started := make(chan struct{})
	blocking := newFakeCommand("blocking", rec)
	blocking.execute = func(c *fakeCommand, s *Session) error {
		close(started)
		for !c.IsCancelled() {
			time.Sleep(time.Millisecond)
		}
		return c.checkCancelled()
	}
	source, target := emptyPackages()
	s := f.session(source, target, newFakeCommand("first", rec), blocking, newFakeCommand("never", rec))

	result := make(chan bool)
	go func() {
		<-started
		result <- s.Cancel()
	}()

	err := s.Call()

	assert.True(t, <-result)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, []string{
		"execute first", "execute blocking",
		"rollback blocking", "rollback first",
	}, rec.all())
}

func TestSession_CancelBetweenCommandsArmsFlag(t *testing.T) {
	f := newFixture()
	source, target := emptyPackages()
	s := f.session(source, target)
	s.state.Store(int32(StateRunning))

	assert.False(t, s.Cancel())
	assert.True(t, s.cancelled.Load())
}

func TestSession_CancelledBeforeAnyCommand(t *testing.T) {
	f := newFixture()
	source, target := emptyPackages()
	s := f.session(source, target)
	s.state.Store(int32(StateRunning))

	err := s.abort(cancelledError())

	assert.True(t, IsCancelled(err))
	assert.Equal(t, StateCancelled, s.State())
}

func TestSession_CallContextAlreadyDone(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	source, target := emptyPackages()
	s := f.session(source, target, newFakeCommand("a", rec), newFakeCommand("b", rec))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.CallContext(ctx)

	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, StateCancelled, s.State())
	assert.Empty(t, rec.all())
	test.AssertEvents(t, f.fw)
}

func TestSession_CallContextCancelledDuringRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture()
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The command finishes without looking at its cancel flag.
	first := newFakeCommand("first", rec)
	first.execute = func(c *fakeCommand, s *Session) error {
		cancel()
		return nil
	}
	source, target := emptyPackages()
	s := f.session(source, target, first, newFakeCommand("never", rec))

	err := s.CallContext(ctx)

	assert.True(t, IsCancelled(err))
	assert.Equal(t, StateRolledBack, s.State())
	assert.Equal(t, []string{"execute first", "rollback first"}, rec.all())
}

func TestSession_RunsOnce(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	source, target := emptyPackages()
	s := f.session(source, target, newFakeCommand("a", rec))

	require.NoError(t, s.Call())
	err := s.Call()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run in state committed")
	assert.Equal(t, []string{"execute a", "commit a"}, rec.all())
	assert.Equal(t, StateCommitted, s.State())
}

func TestSession_CompensationFailureKeepsOriginalError(t *testing.T) {
	f := newFixture()
	x := f.fw.Add(test.Bundle("X", "1.0"), framework.StateActive)
	y := f.fw.Add(test.Bundle("Y", "1.0"), framework.StateActive)
	z := f.fw.Add(test.Bundle("Z", "1.0"), framework.StateActive)
	f.fw.SetError("stop", "Y", errors.New("refused"))

	rec := &recorder{}
	starter := newFakeCommand("starter", rec)
	starter.execute = func(c *fakeCommand, s *Session) error {
		c.addRollback(StopBundle(x))
		c.addRollback(StopBundle(y))
		c.addRollback(StopBundle(z))
		return nil
	}
	failing := newFakeCommand("failing", rec)
	failing.err = NewError(CodeOtherError, "original failure", nil)
	source, target := emptyPackages()
	s := f.session(source, target, starter, failing)

	err := s.Call()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "original failure")
	test.AssertEvents(t, f.fw, "stop Z", "stop X")
	test.AssertLogContains(t, f.logger, "Compensating action failed")
	assert.Equal(t, StateRolledBack, s.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "rolled-back", StateRolledBack.String())
	assert.Equal(t, "state(42)", State(42).String())
}
