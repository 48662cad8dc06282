package deployment

// InstallChain returns the commands that install or update a package.
func InstallChain(skipUnaffected bool) []Command {
	storage := NewGetStorageAreaCommand()
	return []Command{
		storage,
		NewStopBundleCommand(skipUnaffected),
		NewSnapshotCommand(storage),
		NewUpdateCommand(),
		NewStartCustomizerCommand(),
		NewDropBundleCommand(),
		NewStartBundleCommand(),
	}
}

// UninstallChain returns the commands that remove a package.
func UninstallChain() []Command {
	storage := NewGetStorageAreaCommand()
	return []Command{
		storage,
		NewStopBundleCommand(false),
		NewSnapshotCommand(storage),
		NewStartCustomizerCommand(),
		NewDropAllBundlesCommand(),
	}
}
