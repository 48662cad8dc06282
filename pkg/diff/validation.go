package diff

import (
	"fmt"
	"strings"

	"deployadmin/pkg/deployment"
	"deployadmin/pkg/model"
)

// ValidateDependencies checks that source can be deployed over target (nil when
// the package is not installed) next to the other installed packages.
func ValidateDependencies(source, target *model.DeploymentPackage, installed []*model.DeploymentPackage) error {
	if source.FixPack && target == nil {
		return deployment.NewError(deployment.CodeMissingFixpackTarget,
			fmt.Sprintf("fix-pack '%s' requires an installed version of the package", source.Name), nil)
	}
	if errs := validateMissingBundles(source, target); len(errs) > 0 {
		return dependencyError(deployment.CodeMissingBundle, errs)
	}
	if errs := validateBundleOwnership(source, installed); len(errs) > 0 {
		return dependencyError(deployment.CodeBundleSharingViolation, errs)
	}
	return nil
}

func dependencyError(code deployment.Code, errs []string) error {
	return deployment.NewError(code, fmt.Sprintf("dependency validation failed:\n  - %s", strings.Join(errs, "\n  - ")), nil)
}

func validateMissingBundles(source, target *model.DeploymentPackage) []string {
	var errors []string
	for _, info := range source.Bundles {
		if !info.Missing {
			continue
		}
		if target == nil {
			errors = append(errors, fmt.Sprintf("bundle '%s' is declared missing but the package is not installed", info.SymbolicName))
			continue
		}
		if _, ok := target.BundleInfo(info.SymbolicName); !ok {
			errors = append(errors, fmt.Sprintf("bundle '%s' is declared missing but is not part of %s %s", info.SymbolicName, target.Name, target.Version))
		}
	}
	return errors
}

func validateBundleOwnership(source *model.DeploymentPackage, installed []*model.DeploymentPackage) []string {
	var errors []string

	owners := make(map[string]string)
	for _, pkg := range installed {
		if pkg.Name == source.Name {
			continue
		}
		for _, info := range pkg.Bundles {
			owners[info.SymbolicName] = pkg.Name
		}
	}

	for _, info := range source.Bundles {
		if owner, taken := owners[info.SymbolicName]; taken {
			errors = append(errors, fmt.Sprintf("bundle '%s' already belongs to package '%s'", info.SymbolicName, owner))
		}
	}
	return errors
}
