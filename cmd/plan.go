package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"deployadmin/pkg/admin"
	"deployadmin/pkg/config"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <manifest>",
	Short: "Shows what installing a deployment package would change",
	Long: `The plan command validates a deployment package manifest against the
installed packages and prints the session steps and bundle changes that install
would perform, without changing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFrom(cmd)
		source, err := config.LoadPackage(args[0], logger)
		if err != nil {
			return err
		}
		a, err := newAdmin(cmd)
		if err != nil {
			return err
		}
		plan, err := a.Plan(source)
		if err != nil {
			return err
		}
		return printPlan(cmd.OutOrStdout(), plan, jsonOutput)
	},
}

func printPlan(out io.Writer, plan *admin.Plan, asJSON bool) error {
	if asJSON {
		jsonBytes, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan to JSON: %w", err)
		}
		fmt.Fprint(out, string(jsonBytes))
		return nil
	}

	installed := plan.InstalledVersion
	if installed == "" {
		installed = "not installed"
	}
	fmt.Fprintf(out, "Deployment package %s %s (installed: %s)\n", plan.Package, plan.Version, installed)
	fmt.Fprintln(out, "The following operations will be performed:")
	for _, description := range plan.Commands {
		fmt.Fprintf(out, "=> %s\n", description)
	}
	fmt.Fprintln(out, "Bundle changes:")
	for _, change := range plan.Changes {
		fmt.Fprintf(out, "   - %s\n", change.Description())
	}
	if plan.ManifestDiff != "" {
		fmt.Fprintln(out, "Manifest diff:")
		fmt.Fprint(out, plan.ManifestDiff)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the plan in JSON format")
}
