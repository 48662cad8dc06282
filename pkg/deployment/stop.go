package deployment

import "deployadmin/pkg/framework"

// StopBundleCommand stops the running bundles of the target package.
type StopBundleCommand struct {
	command
	skipUnaffected bool
}

// NewStopBundleCommand returns the command. With skipUnaffected set, bundles
// the source package leaves untouched keep running.
func NewStopBundleCommand(skipUnaffected bool) *StopBundleCommand {
	return &StopBundleCommand{skipUnaffected: skipUnaffected}
}

func (c *StopBundleCommand) Description() string {
	return "Stop bundles of the installed package"
}

func (c *StopBundleCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		return err
	}
	target := s.Target()
	for _, info := range target.OrderedBundleInfos() {
		if err := c.checkCancelled(); err != nil {
			return err
		}
		bundle := target.Bundle(info.SymbolicName)
		if bundle == nil {
			s.logger.Warn("Could not stop bundle because it is not present in the framework", "bundle", info.SymbolicName)
			continue
		}
		if c.omitStop(s, info.SymbolicName) {
			s.logger.Debug("Bundle is unaffected by the update, not stopping it", "bundle", info.SymbolicName)
			continue
		}
		if bundle.State() != framework.StateActive {
			continue
		}
		if err := bundle.Stop(); err != nil {
			s.logger.Warn("Could not stop bundle", "bundle", info.SymbolicName, "error", err)
			continue
		}
		c.addRollback(StartBundle(bundle))
	}
	return nil
}

// omitStop reports whether the update leaves the bundle alone: the source
// declares it missing or declares the same version as the target.
func (c *StopBundleCommand) omitStop(s *Session, symbolicName string) bool {
	if !c.skipUnaffected {
		return false
	}
	source, ok := s.Source().BundleInfo(symbolicName)
	if !ok {
		return false
	}
	if source.Missing {
		return true
	}
	target, ok := s.Target().BundleInfo(symbolicName)
	return ok && target.Version == source.Version
}
