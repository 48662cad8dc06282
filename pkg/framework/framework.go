// Package framework abstracts the host runtime bundles are installed into.
package framework

import (
	"errors"
	"fmt"

	"deployadmin/pkg/model"
)

type State string

const (
	StateInstalled   State = "installed"
	StateActive      State = "active"
	StateUninstalled State = "uninstalled"
)

var (
	ErrNoStorageArea    = errors.New("storage area not available")
	ErrAlreadyInstalled = errors.New("bundle already installed")
	ErrUninstalled      = errors.New("bundle is uninstalled")
	ErrInvalidName      = errors.New("symbolic name is not a valid directory name")
)

// Bundle is a handle to an installed bundle.
type Bundle interface {
	SymbolicName() string
	Version() string
	State() State
	// Info returns the declaration the bundle was last installed or updated from.
	Info() model.BundleInfo
	Start() error
	Stop() error
	// Update replaces the installed bundle with the given declaration,
	// restarting it if it was active.
	Update(info model.BundleInfo) error
	Uninstall() error
	// StorageArea returns the private data directory of the bundle.
	StorageArea() (string, error)
}

// Framework is the registry of installed bundles.
type Framework interface {
	// Bundle returns the installed bundle or nil.
	Bundle(symbolicName string) Bundle
	Bundles() []Bundle
	Install(info model.BundleInfo) (Bundle, error)
}

// BundleError reports a failed bundle operation.
type BundleError struct {
	Op           string
	SymbolicName string
	Err          error
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("could not %s bundle '%s': %v", e.Op, e.SymbolicName, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}
