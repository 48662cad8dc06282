package cmd

import (
	"fmt"
	"os/signal"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <name>",
	Short: "Uninstalls a deployment package",
	Long: `The uninstall command stops and removes every bundle of an installed
deployment package. A failure leaves the package installed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAdmin(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), interrupts...)
		defer stop()

		if err := a.UninstallPackage(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
