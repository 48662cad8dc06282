package system

import "github.com/spf13/afero"

// AppFs is the filesystem manifests are read from. Tests swap it for an
// in-memory filesystem.
var AppFs afero.Fs = afero.NewOsFs()
