// ABOUTME: "cicd run" subcommands: list, get, cancel, delete.
// ABOUTME: Operates on individual runs; list optionally filters by pipeline ID.
package cli

import (
	"github.com/spf13/cobra"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect and manage pipeline runs",
	}
	cmd.AddCommand(
		newRunListCmd(app),
		newRunGetCmd(app),
		newRunCancelCmd(app),
		newRunDeleteCmd(app),
	)
	return cmd
}

func newRunListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [pipeline-id]",
		Short: "List runs, newest first, optionally filtered by pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pipelineID string
			if len(args) > 0 {
				pipelineID = args[0]
			}
			runs, err := app.client.ListRuns(cmd.Context(), pipelineID)
			if err != nil {
				return err
			}
			cmd.Print(renderRunTable(runs))
			return nil
		},
	}
}

func newRunGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show a run's full document including step results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := app.client.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Print(renderRunDetails(run))
			return nil
		},
	}
}

func newRunCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Cancel an active run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.CancelRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println(successStyle.Render("run " + args[0] + " cancelled"))
			return nil
		},
	}
}

func newRunDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run (rejected while it is still running)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println(successStyle.Render("run " + args[0] + " deleted"))
			return nil
		},
	}
}
