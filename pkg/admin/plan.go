package admin

import (
	"deployadmin/pkg/deployment"
	"deployadmin/pkg/diff"
	"deployadmin/pkg/model"
)

// Plan is what installing a package would do.
type Plan struct {
	Package          string              `json:"package"`
	Version          string              `json:"version"`
	InstalledVersion string              `json:"installedVersion,omitempty"`
	Commands         []string            `json:"commands"`
	Changes          []diff.BundleChange `json:"changes"`
	ManifestDiff     string              `json:"manifestDiff"`
}

// Plan validates source against the installed packages and describes the
// session that InstallPackage would run, without touching the framework.
func (a *Admin) Plan(source *model.DeploymentPackage) (*Plan, error) {
	if errs := source.Validate(); len(errs) > 0 {
		return nil, deployment.NewError(deployment.CodeBadHeader, "invalid deployment package manifest", errs)
	}
	target, err := a.resolveTarget(source)
	if err != nil {
		return nil, err
	}

	manifestDiff, err := diff.ManifestDiff(target, source)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Package:      source.Name,
		Version:      source.Version,
		Changes:      diff.CalculateChanges(source, target),
		ManifestDiff: manifestDiff,
	}
	if target != nil {
		plan.InstalledVersion = target.Version
	}
	for _, cmd := range deployment.InstallChain(!a.opts.StopUnaffectedBundles) {
		plan.Commands = append(plan.Commands, cmd.Description())
	}
	return plan, nil
}
