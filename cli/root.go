package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the swarm-fsm command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "swarm-fsm",
		Short:         "Data-oriented FSM engine for tick-based agent simulations",
		Long:          `swarm-fsm runs many finite-state machines in a staged tick pipeline and ships a patrol sandbox to exercise it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "Log format: text, json")

	root.AddCommand(
		newRunCommand(),
		newValidateCommand(),
		newGraphCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
