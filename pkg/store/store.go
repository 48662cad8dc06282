package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"deployadmin/pkg/model"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const extension = ".yaml"

// Store keeps the manifests of the installed deployment packages, one YAML
// file per package.
type Store struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// New returns a store rooted at <dataDir>/packages.
func New(fs afero.Fs, dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "packages")
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create package store %s: %w", dir, err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Get returns the installed package with the given name, or nil.
func (s *Store) Get(name string) (*model.DeploymentPackage, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(path)
}

// List returns every installed package sorted by name.
func (s *Store) List() ([]*model.DeploymentPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	var result []*model.DeploymentPackage
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extension) {
			continue
		}
		pkg, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if pkg != nil {
			result = append(result, pkg)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Put records pkg, replacing any previous version.
func (s *Store) Put(pkg *model.DeploymentPackage) error {
	if pkg.Name == "" {
		return errors.New("cannot store a package without a name")
	}
	path, err := s.path(pkg.Name)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(pkg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Write then rename so a crash never leaves a truncated record.
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, path)
}

// Delete removes the record of the named package. Deleting an unknown
// package is not an error.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if verr := model.ValidatePackageName(name); verr != nil {
		return "", verr
	}
	return filepath.Join(s.dir, name+extension), nil
}

func (s *Store) read(path string) (*model.DeploymentPackage, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var pkg model.DeploymentPackage
	if err := yaml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return &pkg, nil
}
