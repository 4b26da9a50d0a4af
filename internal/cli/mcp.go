package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/aidocs/internal/mcp"
	"github.com/matzehuels/aidocs/pkg/buildinfo"
)

// mcpCommand serves the documentation cache over MCP on stdio.
func (c *CLI) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the cached docs to AI assistants over MCP (stdio)",
		Long: `Serve the cached docs to AI assistants over the Model Context Protocol.

The server speaks MCP on stdin/stdout and offers three read-only tools:
docs_status, docs_list and docs_read. Register it in your assistant with the
command "aidocs mcp".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			c.Logger.Debug("serving MCP on stdio", "output_dir", cfg.Settings.OutputDir)
			return mcp.Run(cfg, buildinfo.Version)
		},
	}
}
