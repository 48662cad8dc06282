package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the installed deployment packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAdmin(cmd)
		if err != nil {
			return err
		}
		pkgs, err := a.ListPackages()
		if err != nil {
			return err
		}

		result := []packageForJSON{}
		for _, pkg := range pkgs {
			result = append(result, packageForJSON{Name: pkg.Name, Version: pkg.Version, Bundles: pkg.Bundles})
		}

		if jsonOutput {
			jsonBytes, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal packages to JSON: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(jsonBytes))
			return nil
		}
		yamlBytes, err := yaml.Marshal(pkgs)
		if err != nil {
			return fmt.Errorf("failed to marshal packages to YAML: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(yamlBytes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the packages in JSON format")
}
