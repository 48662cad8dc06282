package test

import "deployadmin/pkg/model"

// Bundle returns a declaration with a conventional install path.
func Bundle(symbolicName, version string) model.BundleInfo {
	return model.BundleInfo{
		SymbolicName: symbolicName,
		Version:      version,
		Path:         "bundles/" + symbolicName + ".jar",
	}
}

// Customizer returns a customizer declaration.
func Customizer(symbolicName, version string) model.BundleInfo {
	info := Bundle(symbolicName, version)
	info.Customizer = true
	return info
}

// Missing returns a fix-pack declaration of a bundle left untouched.
func Missing(symbolicName, version string) model.BundleInfo {
	return model.BundleInfo{SymbolicName: symbolicName, Version: version, Missing: true}
}

// Package builds a deployment package from bundle declarations.
func Package(name, version string, bundles ...model.BundleInfo) *model.DeploymentPackage {
	return &model.DeploymentPackage{Name: name, Version: version, Bundles: bundles}
}

// SamplePackage returns the package described by SampleManifestYAML.
func SamplePackage() *model.DeploymentPackage {
	return &model.DeploymentPackage{
		Name:    "com.example.shop",
		Version: "1.0.0",
		Bundles: []model.BundleInfo{
			{
				SymbolicName: "com.example.config",
				Version:      "1.0.0",
				Path:         "bundles/config.jar",
				Customizer:   true,
			},
			{
				SymbolicName: "com.example.api",
				Version:      "1.0.0",
				Path:         "bundles/api.jar",
				Order:        1,
				RunAs:        "shop",
				Start:        "systemctl start shop-api",
				Stop:         "systemctl stop shop-api",
			},
			{
				SymbolicName: "com.example.web",
				Version:      "1.0.0",
				Path:         "bundles/web.jar",
				Order:        2,
			},
		},
	}
}

// SampleManifestYAML returns a sample YAML manifest.
func SampleManifestYAML() string {
	return `name: com.example.shop
version: 1.0.0
bundles:
  - symbolic-name: com.example.config
    version: 1.0.0
    path: bundles/config.jar
    customizer: true
  - symbolic-name: com.example.api
    version: 1.0.0
    path: bundles/api.jar
    order: 1
    run-as: shop
    start: systemctl start shop-api
    stop: systemctl stop shop-api
  - symbolic-name: com.example.web
    version: 1.0.0
    path: bundles/web.jar
    order: 2
`
}

// SampleManifestTOML returns SampleManifestYAML in TOML.
func SampleManifestTOML() string {
	return `name = "com.example.shop"
version = "1.0.0"

[[bundles]]
symbolic-name = "com.example.config"
version = "1.0.0"
path = "bundles/config.jar"
customizer = true

[[bundles]]
symbolic-name = "com.example.api"
version = "1.0.0"
path = "bundles/api.jar"
order = 1
run-as = "shop"
start = "systemctl start shop-api"
stop = "systemctl stop shop-api"

[[bundles]]
symbolic-name = "com.example.web"
version = "1.0.0"
path = "bundles/web.jar"
order = 2
`
}
