package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/fsm"
	"github.com/lixenwraith/swarm-fsm/registry"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a machine definition for consistency",
		Long:  `Parses a YAML machine definition, checks state, event and transition references and reports unreachable transitions.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := fsm.LoadDefinitionFile(args[0])
			if err != nil {
				return err
			}

			if name, _ := cmd.Flags().GetString("domain"); name != "" {
				entry, ok := registry.GetDomain(name)
				if !ok || entry.Domain == nil {
					return fmt.Errorf("unknown domain %q (known: %v)", name, registry.DomainNames())
				}
				if err := def.ValidateDomain(entry.Domain(engine.NewWorld())); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, t := range def.Shadowed() {
				fmt.Fprintf(out, "warning: transition %s --%s--> %s is unreachable\n", t.From, t.Event, t.To)
			}
			fmt.Fprintf(out, "%s: %d states, %d events, %d transitions: ok\n",
				def.Name, len(def.States), len(def.Events), len(def.Transitions))
			return nil
		},
	}
	cmd.Flags().String("domain", "", "Also require a preparation routine from this domain for every state")
	return cmd
}
