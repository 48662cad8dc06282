package deployment

import (
	"fmt"

	"deployadmin/pkg/framework"
)

// StartCustomizerCommand starts the customizer bundles of both packages.
// Customizers the update removes still run so they can take part in the
// rest of the session.
type StartCustomizerCommand struct {
	command
}

func NewStartCustomizerCommand() *StartCustomizerCommand {
	return &StartCustomizerCommand{}
}

func (c *StartCustomizerCommand) Description() string {
	return "Start customizer bundles"
}

type customizer struct {
	symbolicName string
	bundle       framework.Bundle
}

func (c *StartCustomizerCommand) Execute(s *Session) error {
	if err := c.begin(s); err != nil {
		return err
	}
	for _, cust := range customizers(s.Source(), s.Target()) {
		if err := c.checkCancelled(); err != nil {
			return err
		}
		if cust.bundle == nil {
			return NewError(CodeOtherError, fmt.Sprintf("customizer bundle '%s' is not installed", cust.symbolicName), nil)
		}
		active := cust.bundle.State() == framework.StateActive
		if err := cust.bundle.Start(); err != nil {
			return NewError(CodeOtherError, fmt.Sprintf("could not start customizer bundle '%s'", cust.symbolicName), err)
		}
		if !active {
			c.addRollback(StopBundle(cust.bundle))
		}
	}
	return nil
}

// customizers returns the customizers of source followed by those of target
// whose install path source does not carry, without duplicates.
func customizers(source, target PackageView) []customizer {
	var result []customizer
	seen := make(map[string]bool)
	sourcePaths := make(map[string]bool)

	for _, info := range source.OrderedBundleInfos() {
		if !info.Customizer {
			continue
		}
		sourcePaths[info.Path] = true
		if !seen[info.SymbolicName] {
			seen[info.SymbolicName] = true
			result = append(result, customizer{symbolicName: info.SymbolicName, bundle: source.Bundle(info.SymbolicName)})
		}
	}
	for _, info := range target.OrderedBundleInfos() {
		if !info.Customizer || sourcePaths[info.Path] || seen[info.SymbolicName] {
			continue
		}
		seen[info.SymbolicName] = true
		result = append(result, customizer{symbolicName: info.SymbolicName, bundle: target.Bundle(info.SymbolicName)})
	}
	return result
}
