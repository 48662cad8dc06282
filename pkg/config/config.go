package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"deployadmin/pkg/log"
	"deployadmin/pkg/model"
	"deployadmin/pkg/system"

	"github.com/drone/envsubst"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// LoadPackage reads and validates a deployment package manifest. Files ending
// in .toml are parsed as TOML, anything else as YAML. Environment variable
// references are expanded before parsing.
func LoadPackage(filename string, logger log.Logger) (*model.DeploymentPackage, error) {
	data, err := afero.ReadFile(system.AppFs, filename)
	if err != nil {
		return nil, err
	}
	expanded, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("error expanding variables in %s: %w", filename, err)
	}

	pkg, err := parsePackage(filename, []byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", filename, err)
	}
	logger.Debug("Loaded deployment package manifest", "file", filename, "package", pkg.Name, "version", pkg.Version, "bundles", len(pkg.Bundles))

	if errs := pkg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return pkg, nil
}

func parsePackage(filename string, data []byte) (*model.DeploymentPackage, error) {
	var pkg model.DeploymentPackage
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&pkg); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&pkg); err != nil {
			return nil, err
		}
	}
	return &pkg, nil
}
