package deployment

import (
	"fmt"
	"path/filepath"
)

// SnapshotCommand copies the storage areas of the target bundles so a rollback
// can put their data back. Snapshots are discarded on commit.
type SnapshotCommand struct {
	command
	storage *GetStorageAreaCommand
}

func NewSnapshotCommand(storage *GetStorageAreaCommand) *SnapshotCommand {
	return &SnapshotCommand{storage: storage}
}

func (c *SnapshotCommand) Description() string {
	return "Snapshot storage areas"
}

func (c *SnapshotCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		return err
	}
	areas := c.storage.StorageAreas()
	root := filepath.Join(s.env.SnapshotDir, s.ID())
	target := s.Target()
	taken := false

	for _, info := range target.OrderedBundleInfos() {
		if err := c.checkCancelled(); err != nil {
			return err
		}
		if target.Bundle(info.SymbolicName) == nil {
			continue
		}
		area, ok := areas[info.SymbolicName]
		if !ok {
			s.logger.Warn("No storage area recorded for bundle, not taking a snapshot", "bundle", info.SymbolicName)
			continue
		}
		if !taken {
			// Registered first so it runs after every restore.
			c.addRollback(DiscardSnapshot(root))
			c.addCommit(DiscardSnapshot(root))
			taken = true
		}
		snapshot := filepath.Join(root, info.SymbolicName)
		if err := copyTree(s.env.Fs, area, snapshot); err != nil {
			return NewError(CodeOtherError, fmt.Sprintf("could not snapshot storage area of bundle '%s'", info.SymbolicName), err)
		}
		c.addRollback(RestoreSnapshot(snapshot, area))
	}
	return nil
}
