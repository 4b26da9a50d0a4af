// Package mcp exposes the documentation cache to AI assistants over the
// Model Context Protocol (stdio transport).
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/aidocs/pkg/config"
)

var statusToolDef = mcp.NewTool("docs_status",
	mcp.WithDescription("Report the sync state of every configured package: Synced, Missing, Outdated or Corrupted, with the locked and cached versions."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var listToolDef = mcp.NewTool("docs_list",
	mcp.WithDescription("List cached package versions and their documentation files. Pass a package name to list only that package."),
	mcp.WithString("package", mcp.Description("Package name, e.g. serde")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var readToolDef = mcp.NewTool("docs_read",
	mcp.WithDescription("Read a cached documentation file. Defaults to the locked version and to _SUMMARY.md, which lists the other files."),
	mcp.WithString("package", mcp.Required(), mcp.Description("Package name, e.g. serde")),
	mcp.WithString("version", mcp.Description("Version to read; defaults to the version in the lock file")),
	mcp.WithString("file", mcp.Description("File name as listed by docs_list; defaults to _SUMMARY.md")),
	mcp.WithReadOnlyHintAnnotation(true),
)

// NewServer creates an MCP server with the documentation tools registered.
func NewServer(cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"aidocs",
		version,
		server.WithToolCapabilities(false),
	)

	h := NewHandlers(cfg)
	s.AddTool(statusToolDef, h.HandleStatus)
	s.AddTool(listToolDef, h.HandleList)
	s.AddTool(readToolDef, h.HandleRead)
	return s
}

// Run serves the tools on stdin/stdout until the client disconnects.
func Run(cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(cfg, version))
}
