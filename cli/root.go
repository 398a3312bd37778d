// ABOUTME: Root cobra command wiring the CLI's command tree and shared client setup.
// ABOUTME: The agent address resolves from --api-url, then CICD_API_URL, then the config file.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/jkalend/custom-cicd/client"
)

// App carries the state shared by every command: the resolved configuration
// and the API client, both populated by the root command's PersistentPreRunE.
type App struct {
	cfg    Config
	client *client.Client

	apiURLFlag string
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:   "cicd",
		Short: "Manage pipelines and runs on a cicd agent",
		Long: `cicd talks to a running cicd-server agent to create pipelines,
dispatch runs, and watch their progress.

Example usage:
  cicd pipeline create pipeline.json
  cicd pipeline run <pipeline-id>
  cicd run list
  cicd monitor <run-id>`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				// A broken config file should not brick the CLI.
				cmd.PrintErrln(warnStyle.Render("warning: " + err.Error()))
				cfg = DefaultConfig()
			}
			cfg.APIURL = resolveAPIURL(app.apiURLFlag, cfg)
			app.cfg = cfg
			app.client = client.New(cfg.APIURL)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&app.apiURLFlag, "api-url", "",
		"agent API URL (overrides CICD_API_URL and the config file)")

	root.AddCommand(
		newPipelineCmd(app),
		newRunCmd(app),
		newHealthCmd(app),
		newMonitorCmd(app),
		newConfigCmd(),
	)
	return root
}

// Execute runs the CLI and returns its exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
