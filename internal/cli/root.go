package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/aidocs/pkg/buildinfo"
	"github.com/matzehuels/aidocs/pkg/config"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "aidocs keeps version-matched vendor docs for AI assistants",
		Long: `aidocs syncs README, CHANGELOG and selected documents of your Rust
dependencies from GitHub, pinned to the exact versions in Cargo.lock, into a
local directory an AI coding assistant can read.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", config.DefaultPath, "path to ai-docs.toml")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// Register all subcommands
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.pruneCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// versionCommand prints build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.Out, "%s %s\n", appName, buildinfo.String())
		},
	}
}
