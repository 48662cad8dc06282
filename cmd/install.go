package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"deployadmin/pkg/config"
	"deployadmin/pkg/deployment"
	"deployadmin/pkg/model"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var dryRun bool

// interrupts is the set of signals that cancel a running deployment.
var interrupts = []os.Signal{os.Interrupt, syscall.SIGTERM}

var installCmd = &cobra.Command{
	Use:   "install <manifest>",
	Short: "Installs or updates a deployment package",
	Long: `The install command reads a deployment package manifest (YAML or TOML)
and installs it, or updates the installed package with the same name to it.
Any failure rolls back every change. An interrupt cancels the deployment and
rolls it back as well.`,
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

		if dryRun {
			plan, err := a.Plan(source)
			if err != nil {
				return err
			}
			if !jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), "Dry run enabled.")
			}
			return printPlan(cmd.OutOrStdout(), plan, jsonOutput)
		}

		sigCtx, stop := signal.NotifyContext(cmd.Context(), interrupts...)
		defer stop()

		var installed *model.DeploymentPackage
		done := make(chan struct{})
		g, ctx := errgroup.WithContext(sigCtx)
		g.Go(func() error {
			defer close(done)
			var err error
			installed, err = a.InstallPackage(ctx, source)
			return err
		})
		g.Go(func() error {
			select {
			case <-done:
			case <-sigCtx.Done():
				logger.Warn("Interrupted, cancelling deployment")
				a.CancelDeployment()
			}
			return nil
		})
		err = g.Wait()

		if jsonOutput {
			return printInstallResult(cmd, source, installed, err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s\n", installed.Name, installed.Version)
		return nil
	},
}

func printInstallResult(cmd *cobra.Command, source, installed *model.DeploymentPackage, installErr error) error {
	result := installResultForJSON{Package: source.Name, Version: source.Version}
	if installed != nil {
		result.Version = installed.Version
	}
	if installErr != nil {
		result.Error = installErr.Error()
		var de *deployment.DeploymentError
		if errors.As(installErr, &de) {
			result.Code = int(de.Code)
		}
	}
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result to JSON: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(jsonBytes))
	return installErr
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what changes would be made without executing them")
	installCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result in JSON format")
}
