package model

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
	Line    int
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Field, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	if len(es) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("deployment package validation failed:\n")
	for _, e := range es {
		sb.WriteString(fmt.Sprintf("  - %s\n", e.Error()))
	}
	return sb.String()
}

// DeploymentPackage is a named, versioned set of bundles that is installed,
// updated and uninstalled as a unit.
type DeploymentPackage struct {
	Name    string       `yaml:"name" toml:"name" json:"name"`
	Version string       `yaml:"version" toml:"version" json:"version"`
	FixPack bool         `yaml:"fix-pack,omitempty" toml:"fix-pack,omitempty" json:"fixPack,omitempty"`
	Bundles []BundleInfo `yaml:"bundles" toml:"bundles" json:"bundles"`
}

// BundleInfo describes one bundle as declared by a deployment package.
type BundleInfo struct {
	SymbolicName string `yaml:"symbolic-name" toml:"symbolic-name" json:"symbolicName"`
	Version      string `yaml:"version" toml:"version" json:"version"`
	// Path is the install path of the bundle resource inside the package.
	Path       string `yaml:"path" toml:"path" json:"path"`
	Customizer bool   `yaml:"customizer,omitempty" toml:"customizer,omitempty" json:"customizer,omitempty"`
	// Missing marks a bundle a fix-pack leaves untouched. It must already be
	// part of the installed version of the package.
	Missing bool `yaml:"missing,omitempty" toml:"missing,omitempty" json:"missing,omitempty"`
	Order   int  `yaml:"order,omitempty" toml:"order,omitempty" json:"order,omitempty"`
	// RunAs is the system user the lifecycle hooks run as. Empty means the
	// user running deployadmin.
	RunAs string `yaml:"run-as,omitempty" toml:"run-as,omitempty" json:"runAs,omitempty"`
	// Start and Stop are the shell hooks run when the bundle changes state.
	Start string `yaml:"start,omitempty" toml:"start,omitempty" json:"start,omitempty"`
	Stop  string `yaml:"stop,omitempty" toml:"stop,omitempty" json:"stop,omitempty"`
}

// EmptyPackage is the stand-in target for a package that is not installed yet.
func EmptyPackage(name string) *DeploymentPackage {
	return &DeploymentPackage{Name: name, Version: "0.0.0"}
}

// IsEmpty reports whether the package declares no bundles.
func (p *DeploymentPackage) IsEmpty() bool {
	return len(p.Bundles) == 0
}

// BundleInfo returns the declared bundle with the given symbolic name.
func (p *DeploymentPackage) BundleInfo(symbolicName string) (BundleInfo, bool) {
	for _, b := range p.Bundles {
		if b.SymbolicName == symbolicName {
			return b, true
		}
	}
	return BundleInfo{}, false
}

// ContainsPath reports whether any declared bundle has the given install path.
func (p *DeploymentPackage) ContainsPath(installPath string) bool {
	for _, b := range p.Bundles {
		if b.Path == installPath {
			return true
		}
	}
	return false
}

// OrderedBundles returns the bundles sorted by Order. Bundles with the same
// order keep their manifest position.
func (p *DeploymentPackage) OrderedBundles() []BundleInfo {
	ordered := make([]BundleInfo, len(p.Bundles))
	copy(ordered, p.Bundles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})
	return ordered
}

func (p *DeploymentPackage) Validate() ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "package name cannot be empty"})
	} else if err := ValidatePackageName(p.Name); err != nil {
		errs = append(errs, *err)
	}
	if !isValidVersion(p.Version) {
		errs = append(errs, ValidationError{Field: "version", Message: fmt.Sprintf("invalid version '%s', must look like major[.minor[.micro[.qualifier]]]", p.Version)})
	}

	names := make(map[string]int)
	paths := make(map[string]int)
	for i, b := range p.Bundles {
		field := fmt.Sprintf("bundles[%d]", i)
		if strings.TrimSpace(b.SymbolicName) == "" {
			errs = append(errs, ValidationError{Field: field + ".symbolic-name", Message: "symbolic name cannot be empty"})
		} else if !isValidSymbolicName(b.SymbolicName) {
			errs = append(errs, ValidationError{Field: field + ".symbolic-name", Message: "symbolic name must be letters, digits, dots, hyphens and underscores and cannot start with a dot"})
		} else if prev, dup := names[b.SymbolicName]; dup {
			errs = append(errs, ValidationError{Field: field + ".symbolic-name", Message: fmt.Sprintf("duplicate symbolic name '%s' (also declared by bundles[%d])", b.SymbolicName, prev)})
		} else {
			names[b.SymbolicName] = i
		}
		if !isValidVersion(b.Version) {
			errs = append(errs, ValidationError{Field: field + ".version", Message: fmt.Sprintf("invalid version '%s'", b.Version)})
		}
		if b.RunAs != "" && !isValidUserName(b.RunAs) {
			errs = append(errs, ValidationError{Field: field + ".run-as", Message: fmt.Sprintf("invalid user name '%s'", b.RunAs)})
		}
		if b.Missing && !p.FixPack {
			errs = append(errs, ValidationError{Field: field + ".missing", Message: "only a fix-pack may declare missing bundles"})
		}
		if b.Missing {
			continue
		}
		if strings.TrimSpace(b.Path) == "" {
			errs = append(errs, ValidationError{Field: field + ".path", Message: "install path cannot be empty"})
			continue
		}
		if path.IsAbs(b.Path) || strings.Contains(b.Path, "..") {
			errs = append(errs, ValidationError{Field: field + ".path", Message: "install path must be relative and cannot contain '..'"})
		}
		if prev, dup := paths[b.Path]; dup {
			errs = append(errs, ValidationError{Field: field + ".path", Message: fmt.Sprintf("duplicate install path '%s' (also used by bundles[%d])", b.Path, prev)})
		} else {
			paths[b.Path] = i
		}
	}

	return errs
}

// ValidatePackageName checks a deployment package name. Package and bundle
// names are used as single file and directory names on disk.
func ValidatePackageName(name string) *ValidationError {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "package name cannot be empty"}
	}
	if !isValidSymbolicName(name) {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("invalid package name '%s' (only letters, digits, dots, hyphens and underscores allowed, and it cannot start with a dot)", name)}
	}
	return nil
}

func isValidSymbolicName(name string) bool {
	if name == "" || name[0] == '.' {
		return false
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// isValidUserName accepts POSIX portable user names.
func isValidUserName(name string) bool {
	if name == "" || len(name) > 32 || name[0] == '-' || name[0] == '.' {
		return false
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// isValidVersion accepts versions of the form major[.minor[.micro[.qualifier]]].
func isValidVersion(version string) bool {
	if version == "" {
		return false
	}
	parts := strings.SplitN(version, ".", 4)
	for i, part := range parts {
		if i == 3 {
			return part != "" && isValidSymbolicName(part)
		}
		if _, err := strconv.ParseUint(part, 10, 32); err != nil {
			return false
		}
	}
	return true
}
