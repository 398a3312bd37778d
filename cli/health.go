// ABOUTME: "cicd health" command reporting the agent's health probe.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the agent's health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(successStyle.Render("agent is " + h.Status))
			cmd.Printf("%s %s\n", labelStyle.Render("Agent:"), h.AgentStatus)
			cmd.Printf("%s %d\n", labelStyle.Render("Active runs:"), h.ActiveRuns)
			cmd.Printf("%s %s\n", labelStyle.Render("Timestamp:"), h.Timestamp.Format(time.RFC3339))
			return nil
		},
	}
}
