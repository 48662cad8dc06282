package deployment

import "fmt"

// UpdateCommand installs the bundles the source package adds and updates the
// ones whose version changes.
type UpdateCommand struct {
	command
}

func NewUpdateCommand() *UpdateCommand {
	return &UpdateCommand{}
}

func (c *UpdateCommand) Description() string {
	return "Install and update bundles"
}

func (c *UpdateCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		return err
	}
	fw := s.Framework()
	for _, info := range s.Source().OrderedBundleInfos() {
		if err := c.checkCancelled(); err != nil {
			return err
		}
		if info.Missing {
			if s.Target().Bundle(info.SymbolicName) == nil {
				return NewError(CodeMissingBundle, fmt.Sprintf("bundle '%s' is declared missing but is not part of the installed package", info.SymbolicName), nil)
			}
			continue
		}

		bundle := fw.Bundle(info.SymbolicName)
		if bundle == nil {
			installed, err := fw.Install(info)
			if err != nil {
				return NewError(CodeOtherError, fmt.Sprintf("could not install bundle '%s'", info.SymbolicName), err)
			}
			c.addRollback(UninstallBundle(installed))
			continue
		}

		previous := bundle.Info()
		if previous == info {
			s.logger.Debug("Bundle is up to date", "bundle", info.SymbolicName, "version", info.Version)
			continue
		}
		if err := bundle.Update(info); err != nil {
			return NewError(CodeOtherError, fmt.Sprintf("could not update bundle '%s'", info.SymbolicName), err)
		}
		c.addRollback(RevertBundle(bundle, previous))
	}
	return nil
}
