// ABOUTME: "cicd pipeline" subcommands: create, list, get, run, cancel, delete, create-and-run.
// ABOUTME: Pipeline definitions are read as JSON from a file argument or stdin ("-").
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jkalend/custom-cicd/engine"
)

func newPipelineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Create, run, and manage pipelines",
	}
	cmd.AddCommand(
		newPipelineCreateCmd(app),
		newPipelineListCmd(app),
		newPipelineGetCmd(app),
		newPipelineRunCmd(app),
		newPipelineCancelCmd(app),
		newPipelineDeleteCmd(app),
		newPipelineCreateAndRunCmd(app),
	)
	return cmd
}

func newPipelineCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create [pipeline-file]",
		Short: "Create a pipeline from a JSON definition file, or stdin with '-'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(args)
			if err != nil {
				return err
			}
			receipt, err := app.client.CreatePipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cmd.Println(successStyle.Render("pipeline created"))
			cmd.Printf("pipeline id: %s\n", receipt.PipelineID)
			return nil
		},
	}
}

func newPipelineListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelines, err := app.client.ListPipelines(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Print(renderPipelineTable(pipelines))
			return nil
		},
	}
}

func newPipelineGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <pipeline-id>",
		Short: "Show a pipeline's derived status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.client.GetPipeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Print(renderPipelineDetails(p))
			return nil
		},
	}
}

func newPipelineRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <pipeline-id>",
		Short: "Dispatch a run of an existing pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			background, _ := cmd.Flags().GetBool("background")
			receipt, err := app.client.RunPipeline(cmd.Context(), args[0], background)
			if err != nil {
				return err
			}
			if background {
				cmd.Println(successStyle.Render("run dispatched"))
			} else {
				cmd.Printf("%s %s\n", labelStyle.Render("Status:"),
					StyleForStatus(engine.Status(receipt.Status)).Render(receipt.Status))
			}
			cmd.Printf("run id: %s\n", receipt.RunID)
			return nil
		},
	}
	cmd.Flags().Bool("background", true, "return immediately instead of waiting for the run")
	return cmd
}

func newPipelineCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <pipeline-id>",
		Short: "Cancel every active run of a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.CancelPipeline(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println(successStyle.Render("pipeline " + args[0] + " cancelled"))
			return nil
		},
	}
}

func newPipelineDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pipeline-id>",
		Short: "Delete a pipeline (rejected while it has active runs)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.DeletePipeline(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println(successStyle.Render("pipeline " + args[0] + " deleted"))
			return nil
		},
	}
}

func newPipelineCreateAndRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create-and-run [pipeline-file]",
		Short: "Create a pipeline and immediately dispatch a background run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipelineConfig(args)
			if err != nil {
				return err
			}
			receipt, err := app.client.CreateAndRun(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cmd.Println(successStyle.Render("pipeline created and started"))
			cmd.Printf("pipeline id: %s\n", receipt.PipelineID)
			cmd.Printf("run id: %s\n", receipt.RunID)
			return nil
		},
	}
}

// loadPipelineConfig decodes a definition from the named file, or stdin when
// the argument is absent or "-".
func loadPipelineConfig(args []string) (engine.PipelineConfig, error) {
	filename := "-"
	if len(args) > 0 {
		filename = args[0]
	}

	var reader io.Reader = os.Stdin
	if filename != "-" {
		file, err := os.Open(filename)
		if err != nil {
			return engine.PipelineConfig{}, fmt.Errorf("open %s: %w", filename, err)
		}
		defer file.Close()
		reader = file
	}

	var cfg engine.PipelineConfig
	if err := json.NewDecoder(reader).Decode(&cfg); err != nil {
		return engine.PipelineConfig{}, fmt.Errorf("decode pipeline definition: %w", err)
	}
	return cfg, nil
}
