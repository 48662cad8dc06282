package deployment

import "deployadmin/pkg/model"

// DropBundleCommand uninstalls the target bundles the source package no
// longer declares.
type DropBundleCommand struct {
	command
}

func NewDropBundleCommand() *DropBundleCommand {
	return &DropBundleCommand{}
}

func (c *DropBundleCommand) Description() string {
	return "Uninstall bundles removed from the package"
}

func (c *DropBundleCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		return err
	}
	return c.drop(s, func(info model.BundleInfo) bool {
		_, kept := s.Source().BundleInfo(info.SymbolicName)
		return !info.Missing && !kept
	})
}

// DropAllBundlesCommand uninstalls every bundle of the target package.
type DropAllBundlesCommand struct {
	command
}

func NewDropAllBundlesCommand() *DropAllBundlesCommand {
	return &DropAllBundlesCommand{}
}

func (c *DropAllBundlesCommand) Description() string {
	return "Uninstall all bundles of the package"
}

func (c *DropAllBundlesCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		return err
	}
	return c.drop(s, func(model.BundleInfo) bool { return true })
}

// drop uninstalls the selected target bundles. A bundle that cannot be
// uninstalled is left in place with a warning.
func (c *command) drop(s *Session, selected func(model.BundleInfo) bool) error {
	target := s.Target()
	for _, info := range target.OrderedBundleInfos() {
		if err := c.checkCancelled(); err != nil {
			return err
		}
		if !selected(info) {
			continue
		}
		bundle := target.Bundle(info.SymbolicName)
		if bundle == nil {
			s.logger.Warn("Could not uninstall bundle because it is not present in the framework", "bundle", info.SymbolicName)
			continue
		}
		installed := bundle.Info()
		if err := bundle.Uninstall(); err != nil {
			s.logger.Warn("Could not uninstall bundle", "bundle", info.SymbolicName, "error", err)
			continue
		}
		c.addRollback(ReinstallBundle(installed))
	}
	return nil
}
