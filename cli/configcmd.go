// ABOUTME: "cicd config" subcommands for viewing and editing the persisted CLI settings.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit CLI configuration",
	}
	cmd.AddCommand(newConfigViewCmd(), newConfigSetCmd(), newConfigResetCmd())
	return cmd
}

func newConfigViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				cmd.PrintErrln(warnStyle.Render("warning: " + err.Error()))
				cfg = DefaultConfig()
			}
			cmd.Printf("%s %s\n", labelStyle.Render("API URL:"), cfg.APIURL)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (keys: api-url)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				cfg = DefaultConfig()
			}
			switch args[0] {
			case "api-url":
				cfg.APIURL = args[1]
			default:
				return fmt.Errorf("unknown configuration key %q", args[0])
			}
			if err := SaveConfig(cfg); err != nil {
				return err
			}
			cmd.Println(successStyle.Render(args[0] + " = " + args[1]))
			return nil
		},
	}
}

func newConfigResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := SaveConfig(DefaultConfig()); err != nil {
				return err
			}
			cmd.Println(successStyle.Render("configuration reset"))
			return nil
		},
	}
}
