package admin

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"deployadmin/pkg/deployment"
	"deployadmin/pkg/diff"
	"deployadmin/pkg/framework"
	"deployadmin/pkg/log"
	"deployadmin/pkg/model"
	"deployadmin/pkg/store"

	"github.com/spf13/afero"
)

// Options tune the deployment admin.
type Options struct {
	// SnapshotDir holds the storage area copies taken during a session.
	SnapshotDir string
	// StopUnaffectedBundles stops every bundle of the installed package on
	// update, not only the ones the update changes.
	StopUnaffectedBundles bool
	// SessionTimeout bounds how long a deployment waits for the running one.
	SessionTimeout time.Duration
}

// Admin installs, updates and uninstalls deployment packages. It runs at most
// one deployment session at a time.
type Admin struct {
	fw     framework.Framework
	fs     afero.Fs
	store  *store.Store
	logger log.Logger
	opts   Options

	sem    chan struct{}
	mu     sync.Mutex
	active *deployment.Session
}

func New(fw framework.Framework, fs afero.Fs, st *store.Store, logger log.Logger, opts Options) *Admin {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = 10 * time.Second
	}
	return &Admin{
		fw:     fw,
		fs:     fs,
		store:  st,
		logger: logger,
		opts:   opts,
		sem:    make(chan struct{}, 1),
	}
}

// InstallPackage installs source, or updates the installed package with the
// same name to it. The returned manifest is the one recorded as installed.
func (a *Admin) InstallPackage(ctx context.Context, source *model.DeploymentPackage) (*model.DeploymentPackage, error) {
	if errs := source.Validate(); len(errs) > 0 {
		return nil, deployment.NewError(deployment.CodeBadHeader, "invalid deployment package manifest", errs)
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}
	defer a.release()

	target, err := a.resolveTarget(source)
	if err != nil {
		return nil, err
	}

	targetView := target
	if targetView == nil {
		targetView = model.EmptyPackage(source.Name)
	}
	session := a.newSession(source, targetView, deployment.InstallChain(!a.opts.StopUnaffectedBundles))
	a.logger.Info("Installing deployment package", "package", source.Name, "version", source.Version, "installed", targetView.Version)
	if err := a.run(ctx, session); err != nil {
		return nil, err
	}

	installed := installedManifest(source, target)
	if err := a.store.Put(installed); err != nil {
		return nil, deployment.NewError(deployment.CodeCommitError, fmt.Sprintf("could not record deployment package '%s'", source.Name), err)
	}
	a.logger.Info("Deployment package installed", "package", installed.Name, "version", installed.Version)
	return installed, nil
}

// UninstallPackage removes the named package and all of its bundles.
func (a *Admin) UninstallPackage(ctx context.Context, name string) error {
	if verr := model.ValidatePackageName(name); verr != nil {
		return deployment.NewError(deployment.CodeOtherError, fmt.Sprintf("invalid deployment package name '%s'", name), verr)
	}
	if err := a.acquire(ctx); err != nil {
		return err
	}
	defer a.release()

	target, err := a.store.Get(name)
	if err != nil {
		return deployment.NewError(deployment.CodeOtherError, "could not read installed packages", err)
	}
	if target == nil {
		return deployment.NewError(deployment.CodeOtherError, fmt.Sprintf("deployment package '%s' is not installed", name), nil)
	}

	session := a.newSession(model.EmptyPackage(name), target, deployment.UninstallChain())
	a.logger.Info("Uninstalling deployment package", "package", name, "version", target.Version)
	if err := a.run(ctx, session); err != nil {
		return err
	}

	if err := a.store.Delete(name); err != nil {
		return deployment.NewError(deployment.CodeCommitError, fmt.Sprintf("could not remove record of deployment package '%s'", name), err)
	}
	a.logger.Info("Deployment package uninstalled", "package", name)
	return nil
}

// CancelDeployment asks the running session to stop and roll back. It reports
// whether a running command received the request.
func (a *Admin) CancelDeployment() bool {
	a.mu.Lock()
	session := a.active
	a.mu.Unlock()
	if session == nil {
		return false
	}
	return session.Cancel()
}

// ListPackages returns the installed packages sorted by name.
func (a *Admin) ListPackages() ([]*model.DeploymentPackage, error) {
	return a.store.List()
}

// GetPackage returns the installed package with the given name, or nil.
func (a *Admin) GetPackage(name string) (*model.DeploymentPackage, error) {
	return a.store.Get(name)
}

// resolveTarget returns the installed version of source, or nil, after
// checking that source can be deployed over it.
func (a *Admin) resolveTarget(source *model.DeploymentPackage) (*model.DeploymentPackage, error) {
	installed, err := a.store.List()
	if err != nil {
		return nil, deployment.NewError(deployment.CodeOtherError, "could not read installed packages", err)
	}
	var target *model.DeploymentPackage
	for _, pkg := range installed {
		if pkg.Name == source.Name {
			target = pkg
		}
	}
	if err := diff.ValidateDependencies(source, target, installed); err != nil {
		return nil, err
	}
	return target, nil
}

func (a *Admin) newSession(source, target *model.DeploymentPackage, commands []deployment.Command) *deployment.Session {
	env := deployment.Environment{
		Framework:   a.fw,
		Fs:          a.fs,
		SnapshotDir: a.opts.SnapshotDir,
		Logger:      a.logger,
	}
	return deployment.NewSession(env, deployment.NewPackage(source, a.fw), deployment.NewPackage(target, a.fw), commands...)
}

// run executes the session. Cancelling ctx cancels the session.
func (a *Admin) run(ctx context.Context, session *deployment.Session) error {
	a.mu.Lock()
	a.active = session
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.active = nil
		a.mu.Unlock()
	}()

	return session.CallContext(ctx)
}

func (a *Admin) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return deployment.NewError(deployment.CodeCancelled, "deployment was cancelled before it started", err)
	}
	timer := time.NewTimer(a.opts.SessionTimeout)
	defer timer.Stop()
	select {
	case a.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return deployment.NewError(deployment.CodeTimeout, fmt.Sprintf("another deployment session is still running after %s", a.opts.SessionTimeout), nil)
	case <-ctx.Done():
		return deployment.NewError(deployment.CodeCancelled, "deployment was cancelled before it started", ctx.Err())
	}
}

func (a *Admin) release() {
	<-a.sem
}

// installedManifest is the manifest recorded after source was deployed over
// target: the bundles a fix-pack declares missing keep their installed
// declaration.
func installedManifest(source, target *model.DeploymentPackage) *model.DeploymentPackage {
	result := &model.DeploymentPackage{
		Name:    source.Name,
		Version: source.Version,
		Bundles: make([]model.BundleInfo, 0, len(source.Bundles)),
	}
	for _, info := range source.Bundles {
		if info.Missing && target != nil {
			if previous, ok := target.BundleInfo(info.SymbolicName); ok {
				info = previous
			}
		}
		result.Bundles = append(result.Bundles, info)
	}
	return result
}

// DefaultSnapshotDir is where snapshots go for a data directory.
func DefaultSnapshotDir(dataDir string) string {
	return filepath.Join(dataDir, "snapshots")
}
