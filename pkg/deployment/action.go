package deployment

import (
	"fmt"
	"os"
	"path/filepath"

	"deployadmin/pkg/framework"
	"deployadmin/pkg/model"

	"github.com/spf13/afero"
)

// ActionKind tags a RollbackAction.
type ActionKind int

const (
	ActionStartBundle ActionKind = iota + 1
	ActionStopBundle
	ActionUninstallBundle
	ActionRevertBundle
	ActionReinstallBundle
	ActionRestoreSnapshot
	ActionDiscardSnapshot
)

// RollbackAction is a deferred compensating (or finalizing) operation. It is
// plain data: the session interprets it when a command rolls back or commits.
type RollbackAction struct {
	Kind   ActionKind
	Bundle framework.Bundle
	// Info is the previous declaration for ActionRevertBundle and the
	// declaration to install again for ActionReinstallBundle.
	Info     model.BundleInfo
	Path     string
	Snapshot string
}

func StartBundle(b framework.Bundle) RollbackAction {
	return RollbackAction{Kind: ActionStartBundle, Bundle: b}
}

func StopBundle(b framework.Bundle) RollbackAction {
	return RollbackAction{Kind: ActionStopBundle, Bundle: b}
}

func UninstallBundle(b framework.Bundle) RollbackAction {
	return RollbackAction{Kind: ActionUninstallBundle, Bundle: b}
}

func RevertBundle(b framework.Bundle, previous model.BundleInfo) RollbackAction {
	return RollbackAction{Kind: ActionRevertBundle, Bundle: b, Info: previous}
}

func ReinstallBundle(info model.BundleInfo) RollbackAction {
	return RollbackAction{Kind: ActionReinstallBundle, Info: info}
}

func RestoreSnapshot(snapshot, area string) RollbackAction {
	return RollbackAction{Kind: ActionRestoreSnapshot, Snapshot: snapshot, Path: area}
}

func DiscardSnapshot(snapshot string) RollbackAction {
	return RollbackAction{Kind: ActionDiscardSnapshot, Snapshot: snapshot}
}

func (a RollbackAction) String() string {
	switch a.Kind {
	case ActionStartBundle:
		return fmt.Sprintf("start bundle %s", a.Bundle.SymbolicName())
	case ActionStopBundle:
		return fmt.Sprintf("stop bundle %s", a.Bundle.SymbolicName())
	case ActionUninstallBundle:
		return fmt.Sprintf("uninstall bundle %s", a.Bundle.SymbolicName())
	case ActionRevertBundle:
		return fmt.Sprintf("revert bundle %s to %s", a.Bundle.SymbolicName(), a.Info.Version)
	case ActionReinstallBundle:
		return fmt.Sprintf("reinstall bundle %s %s", a.Info.SymbolicName, a.Info.Version)
	case ActionRestoreSnapshot:
		return fmt.Sprintf("restore %s from %s", a.Path, a.Snapshot)
	case ActionDiscardSnapshot:
		return fmt.Sprintf("discard snapshot %s", a.Snapshot)
	default:
		return fmt.Sprintf("unknown action %d", int(a.Kind))
	}
}

// perform interprets a single action against the session's environment.
func (s *Session) perform(a RollbackAction) error {
	switch a.Kind {
	case ActionStartBundle:
		return s.resolve(a.Bundle).Start()
	case ActionStopBundle:
		return s.resolve(a.Bundle).Stop()
	case ActionUninstallBundle:
		return s.resolve(a.Bundle).Uninstall()
	case ActionRevertBundle:
		return s.resolve(a.Bundle).Update(a.Info)
	case ActionReinstallBundle:
		if existing := s.env.Framework.Bundle(a.Info.SymbolicName); existing != nil {
			return existing.Update(a.Info)
		}
		_, err := s.env.Framework.Install(a.Info)
		return err
	case ActionRestoreSnapshot:
		if err := s.env.Fs.RemoveAll(a.Path); err != nil {
			return err
		}
		if err := copyTree(s.env.Fs, a.Snapshot, a.Path); err != nil {
			return err
		}
		return s.env.Fs.RemoveAll(a.Snapshot)
	case ActionDiscardSnapshot:
		return s.env.Fs.RemoveAll(a.Snapshot)
	default:
		return fmt.Errorf("unknown rollback action %d", int(a.Kind))
	}
}

// resolve returns the live handle for b. A bundle that was uninstalled and
// installed again by an earlier compensation has a new handle.
func (s *Session) resolve(b framework.Bundle) framework.Bundle {
	if b.State() != framework.StateUninstalled {
		return b
	}
	if current := s.env.Framework.Bundle(b.SymbolicName()); current != nil {
		return current
	}
	return b
}

// copyTree copies the directory tree at src to dst.
func copyTree(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0755)
		}
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		return afero.WriteFile(fs, target, content, info.Mode().Perm())
	})
}
