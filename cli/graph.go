package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/swarm-fsm/engine/fsm"
	"github.com/lixenwraith/swarm-fsm/registry"
)

func newGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [file|domain]",
		Short: "Print a machine definition as Graphviz DOT",
		Long:  `Renders a definition file, or the built-in machine of a registered domain. Defaults to the patrol domain.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "patrol"
			if len(args) == 1 {
				target = args[0]
			}

			def, err := loadGraphDefinition(target)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), def.DOT())
			return nil
		},
	}
}

// loadGraphDefinition prefers an existing file over a registered domain of the same name
func loadGraphDefinition(target string) (*fsm.Definition, error) {
	if _, err := os.Stat(target); err == nil {
		return fsm.LoadDefinitionFile(target)
	}
	entry, ok := registry.GetDomain(target)
	if !ok || entry.Definition == nil {
		return nil, fmt.Errorf("%q is neither a definition file nor a registered domain (known: %v)", target, registry.DomainNames())
	}
	return entry.Definition()
}
