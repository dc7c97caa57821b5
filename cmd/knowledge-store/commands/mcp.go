// ABOUTME: MCP command starts Model Context Protocol server over stdio
// ABOUTME: Enables LLM agents like Claude to use the knowledge store directly
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the knowledge store as an MCP (Model Context Protocol) server
over stdio, exposing the discover_tools / get_tool_spec / execute_tool
meta-tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  knowledge-store mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "knowledge-store": {
  #       "command": "knowledge-store",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	// Accepted for compatibility with older client configs; the store
	// location comes from the environment.
	cmd.Flags().String("repository", "", "Ignored; kept for backwards compatibility")
	_ = cmd.Flags().MarkHidden("repository")

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	server := mcp.New(a.dispatcher, a.log)

	a.log.Info("MCP server starting on stdio",
		zap.String("collection", a.cfg.CollectionName))

	if err := server.ServeStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
