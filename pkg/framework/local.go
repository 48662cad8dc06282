package framework

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"deployadmin/pkg/log"
	"deployadmin/pkg/model"
	"deployadmin/pkg/runner"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const stateFileName = "bundles.yaml"

type bundleRecord struct {
	Info  model.BundleInfo `yaml:"info"`
	State State            `yaml:"state"`
}

type stateFile struct {
	Bundles []bundleRecord `yaml:"bundles"`
}

// Local is a Framework that keeps its bundle registry and storage areas under
// a root directory and runs lifecycle hooks through a CommandRunner.
type Local struct {
	mu      sync.Mutex
	fs      afero.Fs
	root    string
	runner  runner.CommandRunner
	logger  log.Logger
	bundles map[string]*localBundle
}

// NewLocal opens the framework rooted at root, loading any previously saved
// bundle registry.
func NewLocal(fs afero.Fs, root string, runner runner.CommandRunner, logger log.Logger) (*Local, error) {
	f := &Local{
		fs:      fs,
		root:    root,
		runner:  runner,
		logger:  logger,
		bundles: make(map[string]*localBundle),
	}
	if err := fs.MkdirAll(filepath.Join(root, "data"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create framework directory %s: %w", root, err)
	}

	content, err := afero.ReadFile(fs, f.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("error reading %s: %w", f.statePath(), err)
	}
	var state stateFile
	if err := yaml.Unmarshal(content, &state); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", f.statePath(), err)
	}
	for _, rec := range state.Bundles {
		f.bundles[rec.Info.SymbolicName] = &localBundle{fw: f, info: rec.Info, state: rec.State}
	}
	logger.Debug("Loaded framework state", "root", root, "bundles", len(f.bundles))
	return f, nil
}

func (f *Local) statePath() string {
	return filepath.Join(f.root, stateFileName)
}

// dataDir returns the storage area of a bundle. It must be a direct child of
// <root>/data.
func (f *Local) dataDir(symbolicName string) (string, error) {
	base := filepath.Join(f.root, "data")
	dir := filepath.Join(base, symbolicName)
	rel, err := filepath.Rel(base, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidName, symbolicName)
	}
	return dir, nil
}

func (f *Local) Bundle(symbolicName string) Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bundles[symbolicName]
	if !ok {
		return nil
	}
	return b
}

// Bundles returns the installed bundles sorted by symbolic name.
func (f *Local) Bundles() []Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.bundles))
	for name := range f.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	result := make([]Bundle, 0, len(names))
	for _, name := range names {
		result = append(result, f.bundles[name])
	}
	return result
}

func (f *Local) Install(info model.BundleInfo) (Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bundles[info.SymbolicName]; ok {
		return nil, &BundleError{Op: "install", SymbolicName: info.SymbolicName, Err: ErrAlreadyInstalled}
	}
	dir, err := f.dataDir(info.SymbolicName)
	if err != nil {
		return nil, &BundleError{Op: "install", SymbolicName: info.SymbolicName, Err: err}
	}
	if err := f.fs.MkdirAll(dir, 0755); err != nil {
		return nil, &BundleError{Op: "install", SymbolicName: info.SymbolicName, Err: err}
	}
	b := &localBundle{fw: f, info: info, state: StateInstalled}
	f.bundles[info.SymbolicName] = b
	if err := f.save(); err != nil {
		delete(f.bundles, info.SymbolicName)
		return nil, &BundleError{Op: "install", SymbolicName: info.SymbolicName, Err: err}
	}
	f.logger.Info("Installed bundle", "bundle", info.SymbolicName, "version", info.Version)
	return b, nil
}

// save writes the registry. Callers hold f.mu.
func (f *Local) save() error {
	state := stateFile{Bundles: []bundleRecord{}}
	for _, b := range f.bundles {
		state.Bundles = append(state.Bundles, bundleRecord{Info: b.info, State: b.state})
	}
	sort.Slice(state.Bundles, func(i, j int) bool {
		return state.Bundles[i].Info.SymbolicName < state.Bundles[j].Info.SymbolicName
	})
	content, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("error marshaling framework state: %w", err)
	}
	return afero.WriteFile(f.fs, f.statePath(), content, 0644)
}

// runHook runs a lifecycle hook as the bundle's run-as user. Callers hold f.mu.
func (f *Local) runHook(info model.BundleInfo, hook string) error {
	if hook == "" {
		return nil
	}
	f.logger.Debug("Running lifecycle hook", "bundle", info.SymbolicName, "command", hook, "user", info.RunAs)
	_, err := f.runner.Run(info.RunAs, hook)
	return err
}

type localBundle struct {
	fw    *Local
	info  model.BundleInfo
	state State
}

func (b *localBundle) SymbolicName() string { return b.info.SymbolicName }

func (b *localBundle) Version() string {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	return b.info.Version
}

func (b *localBundle) State() State {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	return b.state
}

func (b *localBundle) Info() model.BundleInfo {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	return b.info
}

func (b *localBundle) Start() error {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	switch b.state {
	case StateUninstalled:
		return &BundleError{Op: "start", SymbolicName: b.info.SymbolicName, Err: ErrUninstalled}
	case StateActive:
		return nil
	}
	if err := b.fw.runHook(b.info, b.info.Start); err != nil {
		return &BundleError{Op: "start", SymbolicName: b.info.SymbolicName, Err: err}
	}
	b.state = StateActive
	return b.fw.save()
}

func (b *localBundle) Stop() error {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	switch b.state {
	case StateUninstalled:
		return &BundleError{Op: "stop", SymbolicName: b.info.SymbolicName, Err: ErrUninstalled}
	case StateInstalled:
		return nil
	}
	if err := b.fw.runHook(b.info, b.info.Stop); err != nil {
		return &BundleError{Op: "stop", SymbolicName: b.info.SymbolicName, Err: err}
	}
	b.state = StateInstalled
	return b.fw.save()
}

func (b *localBundle) Update(info model.BundleInfo) error {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	if b.state == StateUninstalled {
		return &BundleError{Op: "update", SymbolicName: b.info.SymbolicName, Err: ErrUninstalled}
	}
	if info.SymbolicName != b.info.SymbolicName {
		return &BundleError{Op: "update", SymbolicName: b.info.SymbolicName, Err: fmt.Errorf("symbolic name cannot change to '%s'", info.SymbolicName)}
	}
	active := b.state == StateActive
	if active {
		if err := b.fw.runHook(b.info, b.info.Stop); err != nil {
			return &BundleError{Op: "update", SymbolicName: b.info.SymbolicName, Err: err}
		}
	}
	previous := b.info.Version
	b.info = info
	if active {
		if err := b.fw.runHook(info, info.Start); err != nil {
			b.state = StateInstalled
			if saveErr := b.fw.save(); saveErr != nil {
				err = errors.Join(err, saveErr)
			}
			return &BundleError{Op: "update", SymbolicName: b.info.SymbolicName, Err: err}
		}
	}
	b.fw.logger.Info("Updated bundle", "bundle", info.SymbolicName, "from", previous, "to", info.Version)
	return b.fw.save()
}

func (b *localBundle) Uninstall() error {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	if b.state == StateUninstalled {
		return &BundleError{Op: "uninstall", SymbolicName: b.info.SymbolicName, Err: ErrUninstalled}
	}
	if b.state == StateActive {
		if err := b.fw.runHook(b.info, b.info.Stop); err != nil {
			return &BundleError{Op: "uninstall", SymbolicName: b.info.SymbolicName, Err: err}
		}
	}
	dir, err := b.fw.dataDir(b.info.SymbolicName)
	if err != nil {
		return &BundleError{Op: "uninstall", SymbolicName: b.info.SymbolicName, Err: err}
	}
	if err := b.fw.fs.RemoveAll(dir); err != nil {
		return &BundleError{Op: "uninstall", SymbolicName: b.info.SymbolicName, Err: err}
	}
	b.state = StateUninstalled
	delete(b.fw.bundles, b.info.SymbolicName)
	b.fw.logger.Info("Uninstalled bundle", "bundle", b.info.SymbolicName)
	return b.fw.save()
}

func (b *localBundle) StorageArea() (string, error) {
	b.fw.mu.Lock()
	defer b.fw.mu.Unlock()
	if b.state == StateUninstalled {
		return "", ErrNoStorageArea
	}
	dir, err := b.fw.dataDir(b.info.SymbolicName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoStorageArea, err)
	}
	info, err := b.fw.fs.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoStorageArea, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNoStorageArea, dir)
	}
	return dir, nil
}
