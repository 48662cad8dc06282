package cmd

import "deployadmin/pkg/model"

// installResultForJSON is the machine-readable outcome of an install.
type installResultForJSON struct {
	Package string `json:"package"`
	Version string `json:"version"`
	// Code is the deployment error code, zero on success.
	Code  int    `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// packageForJSON is an installed package as listed by the list command.
type packageForJSON struct {
	Name    string             `json:"name"`
	Version string             `json:"version"`
	Bundles []model.BundleInfo `json:"bundles"`
}
