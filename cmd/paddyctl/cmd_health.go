package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/mypadicare/internal/bootstrap"
)

// healthCmd reports component availability
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report classifier and dataset availability",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		status := app.Status.Status(ctx)
		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), status)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status:            %s\n", status.Status)
		fmt.Fprintf(out, "classifier:        %s\n", status.ClassifierBackend)
		fmt.Fprintf(out, "model loaded:      %s (%s, %d bytes)\n", yesNo(status.ModelLoaded), status.ModelPath, status.ModelSize)
		fmt.Fprintf(out, "classifier script: %s\n", yesNo(status.ClassifierScript))
		fmt.Fprintf(out, "treatments loaded: %s\n", yesNo(status.TreatmentsLoaded))
		return nil
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
