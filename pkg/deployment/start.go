package deployment

import "deployadmin/pkg/framework"

// StartBundleCommand starts the bundles of the source package. Customizers
// are already running at this point.
type StartBundleCommand struct {
	command
}

func NewStartBundleCommand() *StartBundleCommand {
	return &StartBundleCommand{}
}

func (c *StartBundleCommand) Description() string {
	return "Start bundles of the package"
}

func (c *StartBundleCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		return err
	}
	source := s.Source()
	for _, info := range source.OrderedBundleInfos() {
		if err := c.checkCancelled(); err != nil {
			return err
		}
		if info.Customizer {
			continue
		}
		bundle := source.Bundle(info.SymbolicName)
		if bundle == nil {
			s.logger.Warn("Could not start bundle because it is not present in the framework", "bundle", info.SymbolicName)
			continue
		}
		if bundle.State() == framework.StateActive {
			continue
		}
		if err := bundle.Start(); err != nil {
			s.logger.Warn("Could not start bundle", "bundle", info.SymbolicName, "error", err)
			continue
		}
		c.addRollback(StopBundle(bundle))
	}
	return nil
}
