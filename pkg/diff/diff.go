package diff

import (
	"fmt"
	"strings"

	"deployadmin/pkg/model"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"
)

// ChangeKind is what a deployment does to one bundle.
type ChangeKind string

const (
	ChangeInstall   ChangeKind = "install"
	ChangeUpdate    ChangeKind = "update"
	ChangeUninstall ChangeKind = "uninstall"
	ChangeUnchanged ChangeKind = "unchanged"
	// ChangeMissing is a bundle a fix-pack leaves as installed.
	ChangeMissing ChangeKind = "missing"
)

// BundleChange describes the effect of a deployment on one bundle.
type BundleChange struct {
	SymbolicName string     `json:"symbolicName"`
	Kind         ChangeKind `json:"kind"`
	From         string     `json:"from,omitempty"`
	To           string     `json:"to,omitempty"`
}

func (c BundleChange) Description() string {
	switch c.Kind {
	case ChangeInstall:
		return fmt.Sprintf("Install %s %s", c.SymbolicName, c.To)
	case ChangeUpdate:
		return fmt.Sprintf("Update %s %s -> %s", c.SymbolicName, c.From, c.To)
	case ChangeUninstall:
		return fmt.Sprintf("Uninstall %s %s", c.SymbolicName, c.From)
	case ChangeMissing:
		return fmt.Sprintf("Keep %s %s (missing from fix-pack)", c.SymbolicName, c.From)
	default:
		return fmt.Sprintf("Keep %s %s", c.SymbolicName, c.From)
	}
}

// CalculateChanges compares the package to deploy (source) with the installed
// one (target). Source bundles come first in start order, followed by the
// target bundles the source drops. A nil target means nothing is installed.
func CalculateChanges(source, target *model.DeploymentPackage) []BundleChange {
	if target == nil {
		target = model.EmptyPackage(source.Name)
	}
	var changes []BundleChange

	for _, info := range source.OrderedBundles() {
		installed, ok := target.BundleInfo(info.SymbolicName)
		switch {
		case info.Missing:
			changes = append(changes, BundleChange{SymbolicName: info.SymbolicName, Kind: ChangeMissing, From: installed.Version, To: installed.Version})
		case !ok:
			changes = append(changes, BundleChange{SymbolicName: info.SymbolicName, Kind: ChangeInstall, To: info.Version})
		case installed.Version != info.Version:
			changes = append(changes, BundleChange{SymbolicName: info.SymbolicName, Kind: ChangeUpdate, From: installed.Version, To: info.Version})
		default:
			changes = append(changes, BundleChange{SymbolicName: info.SymbolicName, Kind: ChangeUnchanged, From: installed.Version, To: info.Version})
		}
	}

	for _, info := range target.OrderedBundles() {
		if _, kept := source.BundleInfo(info.SymbolicName); kept {
			continue
		}
		changes = append(changes, BundleChange{SymbolicName: info.SymbolicName, Kind: ChangeUninstall, From: info.Version})
	}

	return changes
}

// HasChanges reports whether any change alters the framework.
func HasChanges(changes []BundleChange) bool {
	for _, c := range changes {
		if c.Kind != ChangeUnchanged && c.Kind != ChangeMissing {
			return true
		}
	}
	return false
}

// ManifestDiff renders a line diff between the installed and the new
// manifest. Added lines start with "+ ", removed ones with "- ".
func ManifestDiff(target, source *model.DeploymentPackage) (string, error) {
	before := ""
	if target != nil {
		out, err := yaml.Marshal(target)
		if err != nil {
			return "", fmt.Errorf("failed to render installed manifest: %w", err)
		}
		before = string(out)
	}
	after, err := yaml.Marshal(source)
	if err != nil {
		return "", fmt.Errorf("failed to render new manifest: %w", err)
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}
	return sb.String(), nil
}
