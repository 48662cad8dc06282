package deployment

import "sync/atomic"

// Command is one step of a deployment session. The set of commands is closed:
// every implementation embeds command.
type Command interface {
	// Description returns a human-readable string of what the command does.
	Description() string
	// Execute performs the forward effects. It fails with CodeCancelled as soon
	// as it observes a cancellation, before performing the next effect.
	Execute(s *Session) error
	// Commit finalizes the command once every command of the session executed.
	Commit()
	// Rollback undoes the effects registered so far, most recent first.
	Rollback()
	// Cancel asks a running Execute to stop at its next checkpoint. It is safe
	// to call from another goroutine.
	Cancel()

	base() *command
}

// command holds the cancellation flag and the compensation registries shared
// by every Command.
type command struct {
	cancelled atomic.Bool
	session   *Session
	rollbacks []RollbackAction
	commits   []RollbackAction
}

func (c *command) base() *command { return c }

func (c *command) Cancel() {
	c.cancelled.Store(true)
}

func (c *command) IsCancelled() bool {
	return c.cancelled.Load()
}

// begin binds the command to the session and performs the entry check.
func (c *command) begin(s *Session) error {
	c.session = s
	return c.checkCancelled()
}

func (c *command) checkCancelled() error {
	if c.cancelled.Load() {
		return cancelledError()
	}
	return nil
}

// addRollback registers the compensation of an effect that just succeeded.
func (c *command) addRollback(a RollbackAction) {
	c.rollbacks = append(c.rollbacks, a)
}

// addCommit registers an action to run when the session commits.
func (c *command) addCommit(a RollbackAction) {
	c.commits = append(c.commits, a)
}

func (c *command) Rollback() {
	defer c.clear()
	if c.session == nil {
		return
	}
	for i := len(c.rollbacks) - 1; i >= 0; i-- {
		action := c.rollbacks[i]
		c.session.logger.Debug("Running compensating action", "action", action.String())
		if err := c.session.perform(action); err != nil {
			c.session.logger.Warn("Compensating action failed", "action", action.String(), "error", err)
		}
	}
}

func (c *command) Commit() {
	defer c.clear()
	if c.session == nil {
		return
	}
	for _, action := range c.commits {
		if err := c.session.perform(action); err != nil {
			c.session.logger.Warn("Could not finalize command", "action", action.String(), "error", err)
		}
	}
}

func (c *command) clear() {
	c.rollbacks = nil
	c.commits = nil
}

// pendingRollbacks returns a description of the registered compensations,
// most recent last.
func (c *command) pendingRollbacks() []string {
	result := make([]string, 0, len(c.rollbacks))
	for _, a := range c.rollbacks {
		result = append(result, a.String())
	}
	return result
}
