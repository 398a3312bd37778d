// ABOUTME: Tests for the command tree shape and flag registration.
package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func findCommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not found under %q", name, parent.Name())
	return nil
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd()

	pipeline := findCommand(t, root, "pipeline")
	for _, sub := range []string{"create", "list", "get", "run", "cancel", "delete", "create-and-run"} {
		findCommand(t, pipeline, sub)
	}

	run := findCommand(t, root, "run")
	for _, sub := range []string{"list", "get", "cancel", "delete"} {
		findCommand(t, run, sub)
	}

	findCommand(t, root, "health")
	findCommand(t, root, "monitor")
	config := findCommand(t, root, "config")
	for _, sub := range []string{"view", "set", "reset"} {
		findCommand(t, config, sub)
	}
}

func TestRootHasAPIURLFlag(t *testing.T) {
	root := NewRootCmd()
	if root.PersistentFlags().Lookup("api-url") == nil {
		t.Error("missing --api-url flag")
	}
}

func TestPipelineRunBackgroundDefault(t *testing.T) {
	root := NewRootCmd()
	runCmd := findCommand(t, findCommand(t, root, "pipeline"), "run")

	flag := runCmd.Flags().Lookup("background")
	if flag == nil {
		t.Fatal("missing --background flag")
	}
	if flag.DefValue != "true" {
		t.Errorf("background default = %s, want true", flag.DefValue)
	}
}
