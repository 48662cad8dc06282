package deployment

import (
	"log/slog"
	"sync"

	"deployadmin/pkg/model"
	"deployadmin/pkg/test"

	"github.com/spf13/afero"
)

type fixture struct {
	fs     afero.Fs
	fw     *test.FakeFramework
	logger *test.MockLogger
}

func newFixture() *fixture {
	fs := afero.NewMemMapFs()
	return &fixture{
		fs:     fs,
		fw:     test.NewFakeFramework(fs),
		logger: test.NewMockLogger(slog.LevelDebug),
	}
}

func (f *fixture) session(source, target *model.DeploymentPackage, commands ...Command) *Session {
	env := Environment{
		Framework:   f.fw,
		Fs:          f.fs,
		SnapshotDir: "/snapshots",
		Logger:      f.logger,
	}
	return NewSession(env, NewPackage(source, f.fw), NewPackage(target, f.fw), commands...)
}

// recorder collects the calls made on fake commands, in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.calls...)
}

type fakeCommand struct {
	command
	name    string
	rec     *recorder
	err     error
	execute func(c *fakeCommand, s *Session) error
}

func newFakeCommand(name string, rec *recorder) *fakeCommand {
	return &fakeCommand{name: name, rec: rec}
}

func (c *fakeCommand) Description() string { return "fake " + c.name }

func (c *fakeCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		c.rec.add("cancelled " + c.name)
		return err
	}
	c.rec.add("execute " + c.name)
	if c.execute != nil {
		if err := c.execute(c, s); err != nil {
			return err
		}
	}
	return c.err
}

func (c *fakeCommand) Commit() {
	c.rec.add("commit " + c.name)
	c.command.Commit()
}

func (c *fakeCommand) Rollback() {
	c.rec.add("rollback " + c.name)
	c.command.Rollback()
}
