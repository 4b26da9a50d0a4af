package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/aidocs/pkg/store"
)

// pruneCommand creates the prune command.
func (c *CLI) pruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove cached versions that no longer match Cargo.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			versions, err := c.loadLock(cfg, false)
			if err != nil {
				return err
			}

			removed, err := store.New(cfg.Settings.OutputDir).Prune(versions)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				printInfo(c.Out, "Nothing to prune")
				return nil
			}
			for _, dir := range removed {
				printFile(c.Out, dir)
			}
			printSuccess(c.Out, "Pruned %d director(ies)", len(removed))
			return nil
		},
	}
}
