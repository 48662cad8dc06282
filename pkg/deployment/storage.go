package deployment

// GetStorageAreaCommand records the storage area of every installed target
// bundle. It has no effects to undo.
type GetStorageAreaCommand struct {
	command
	areas map[string]string
}

func NewGetStorageAreaCommand() *GetStorageAreaCommand {
	return &GetStorageAreaCommand{areas: make(map[string]string)}
}

func (c *GetStorageAreaCommand) Description() string {
	return "Resolve storage areas of installed bundles"
}

func (c *GetStorageAreaCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		return err
	}
	target := s.Target()
	for _, info := range target.BundleInfos() {
		if err := c.checkCancelled(); err != nil {
			return err
		}
		bundle := target.Bundle(info.SymbolicName)
		if bundle == nil {
			continue
		}
		area, err := bundle.StorageArea()
		if err != nil {
			s.logger.Warn("Could not retrieve storage area of bundle, skipping it", "bundle", info.SymbolicName, "error", err)
			continue
		}
		c.areas[info.SymbolicName] = area
	}
	return nil
}

// StorageAreas returns the resolved storage areas keyed by symbolic name.
func (c *GetStorageAreaCommand) StorageAreas() map[string]string {
	result := make(map[string]string, len(c.areas))
	for name, area := range c.areas {
		result[name] = area
	}
	return result
}
