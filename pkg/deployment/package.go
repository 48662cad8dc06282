package deployment

import (
	"deployadmin/pkg/framework"
	"deployadmin/pkg/model"
)

// PackageView is the read-only view a session has of a deployment package.
type PackageView interface {
	Name() string
	Version() string
	// BundleInfos returns the declared bundles in manifest order.
	BundleInfos() []model.BundleInfo
	// OrderedBundleInfos returns the declared bundles in start/stop order.
	OrderedBundleInfos() []model.BundleInfo
	BundleInfo(symbolicName string) (model.BundleInfo, bool)
	// Bundle returns the installed bundle for a declared symbolic name or nil.
	Bundle(symbolicName string) framework.Bundle
}

// Package binds a manifest to the framework its bundles live in.
type Package struct {
	manifest *model.DeploymentPackage
	fw       framework.Framework
}

func NewPackage(manifest *model.DeploymentPackage, fw framework.Framework) *Package {
	return &Package{manifest: manifest, fw: fw}
}

func (p *Package) Manifest() *model.DeploymentPackage { return p.manifest }
func (p *Package) Name() string                       { return p.manifest.Name }
func (p *Package) Version() string                    { return p.manifest.Version }

func (p *Package) BundleInfos() []model.BundleInfo {
	return append([]model.BundleInfo(nil), p.manifest.Bundles...)
}

func (p *Package) OrderedBundleInfos() []model.BundleInfo {
	return p.manifest.OrderedBundles()
}

func (p *Package) BundleInfo(symbolicName string) (model.BundleInfo, bool) {
	return p.manifest.BundleInfo(symbolicName)
}

func (p *Package) Bundle(symbolicName string) framework.Bundle {
	if _, ok := p.manifest.BundleInfo(symbolicName); !ok {
		return nil
	}
	return p.fw.Bundle(symbolicName)
}
