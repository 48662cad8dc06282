package test

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"deployadmin/pkg/framework"
	"deployadmin/pkg/model"

	"github.com/spf13/afero"
)

// FakeFramework is an in-memory framework.Framework that records every
// successful bundle operation as an event such as "stop com.example.api".
type FakeFramework struct {
	mu       sync.Mutex
	Fs       afero.Fs
	DataRoot string
	events   []string
	errors   map[string]error
	bundles  map[string]*FakeBundle
}

// NewFakeFramework creates a framework whose storage areas live on fs.
func NewFakeFramework(fs afero.Fs) *FakeFramework {
	return &FakeFramework{
		Fs:       fs,
		DataRoot: "/data",
		errors:   make(map[string]error),
		bundles:  make(map[string]*FakeBundle),
	}
}

// Add installs a bundle in the given state without recording an event.
func (f *FakeFramework) Add(info model.BundleInfo, state framework.State) *FakeBundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := &FakeBundle{fw: f, info: info, state: state}
	f.bundles[info.SymbolicName] = b
	_ = f.Fs.MkdirAll(f.area(info.SymbolicName), 0755)
	return b
}

// SetError makes op ("install", "start", "stop", "update", "uninstall" or
// "storage") fail for the named bundle.
func (f *FakeFramework) SetError(op, symbolicName string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[op+":"+symbolicName] = err
}

// Events returns the recorded operations in order.
func (f *FakeFramework) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.events...)
}

// ResetEvents clears the recorded operations.
func (f *FakeFramework) ResetEvents() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

func (f *FakeFramework) Bundle(symbolicName string) framework.Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bundles[symbolicName]; ok {
		return b
	}
	return nil
}

func (f *FakeFramework) Bundles() []framework.Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.bundles))
	for name := range f.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	result := make([]framework.Bundle, 0, len(names))
	for _, name := range names {
		result = append(result, f.bundles[name])
	}
	return result
}

func (f *FakeFramework) Install(info model.BundleInfo) (framework.Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("install", info.SymbolicName); err != nil {
		return nil, err
	}
	if _, ok := f.bundles[info.SymbolicName]; ok {
		return nil, &framework.BundleError{Op: "install", SymbolicName: info.SymbolicName, Err: framework.ErrAlreadyInstalled}
	}
	b := &FakeBundle{fw: f, info: info, state: framework.StateInstalled}
	f.bundles[info.SymbolicName] = b
	_ = f.Fs.MkdirAll(f.area(info.SymbolicName), 0755)
	f.record("install %s@%s", info.SymbolicName, info.Version)
	return b, nil
}

func (f *FakeFramework) area(symbolicName string) string {
	return filepath.Join(f.DataRoot, symbolicName)
}

// failure returns the configured error for op. Callers hold f.mu.
func (f *FakeFramework) failure(op, symbolicName string) error {
	if err, ok := f.errors[op+":"+symbolicName]; ok {
		return &framework.BundleError{Op: op, SymbolicName: symbolicName, Err: err}
	}
	return nil
}

func (f *FakeFramework) record(format string, args ...any) {
	f.events = append(f.events, fmt.Sprintf(format, args...))
}

// FakeBundle is a bundle of a FakeFramework.
type FakeBundle struct {
	fw    *FakeFramework
	info  model.BundleInfo
	state framework.State
	// OnStop, when set, runs before a stop is recorded. Tests use it to
	// interleave a cancellation with a running command.
	OnStop func()
}

func (b *FakeBundle) SymbolicName() string { return b.info.SymbolicName }

func (b *FakeBundle) Version() string {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	return b.info.Version
}

func (b *FakeBundle) State() framework.State {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	return b.state
}

func (b *FakeBundle) Info() model.BundleInfo {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	return b.info
}

func (b *FakeBundle) Start() error {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	if err := b.fw.failure("start", b.info.SymbolicName); err != nil {
		return err
	}
	if b.state == framework.StateUninstalled {
		return &framework.BundleError{Op: "start", SymbolicName: b.info.SymbolicName, Err: framework.ErrUninstalled}
	}
	b.state = framework.StateActive
	b.fw.record("start %s", b.info.SymbolicName)
	return nil
}

func (b *FakeBundle) Stop() error {
	if b.OnStop != nil {
		b.OnStop()
	}
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	if err := b.fw.failure("stop", b.info.SymbolicName); err != nil {
		return err
	}
	if b.state == framework.StateUninstalled {
		return &framework.BundleError{Op: "stop", SymbolicName: b.info.SymbolicName, Err: framework.ErrUninstalled}
	}
	b.state = framework.StateInstalled
	b.fw.record("stop %s", b.info.SymbolicName)
	return nil
}

func (b *FakeBundle) Update(info model.BundleInfo) error {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	if err := b.fw.failure("update", b.info.SymbolicName); err != nil {
		return err
	}
	b.info = info
	b.fw.record("update %s@%s", info.SymbolicName, info.Version)
	return nil
}

func (b *FakeBundle) Uninstall() error {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	if err := b.fw.failure("uninstall", b.info.SymbolicName); err != nil {
		return err
	}
	b.state = framework.StateUninstalled
	delete(b.fw.bundles, b.info.SymbolicName)
	_ = b.fw.Fs.RemoveAll(b.fw.area(b.info.SymbolicName))
	b.fw.record("uninstall %s", b.info.SymbolicName)
	return nil
}

func (b *FakeBundle) StorageArea() (string, error) {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	if err, ok := b.fw.errors["storage:"+b.info.SymbolicName]; ok {
		return "", err
	}
	if b.state == framework.StateUninstalled {
		return "", framework.ErrNoStorageArea
	}
	return b.fw.area(b.info.SymbolicName), nil
}
