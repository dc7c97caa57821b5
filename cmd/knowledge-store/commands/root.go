// ABOUTME: Root command for the knowledge-store CLI
// ABOUTME: Defines global flags and registers all subcommands
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

const banner = `
█▄▀ █▄ █ █▀█ █ █ █   █▀▀ █▀▄ █▀▀ █▀▀   █▀ ▀█▀ █▀█ █▀█ █▀▀
█ █ █ ▀█ █▄█ ▀▄▀▄▀   █▄▄ █▄▀ █▄█ ██▄   ▄█  █  █▄█ █▀▄ ██▄
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge-store",
		Short: "Knowledge pattern store with semantic search",
		Long: banner + `
Knowledge Store captures problem/solution patterns with rich metadata
and makes them retrievable by semantic similarity.

Run as an MCP server over stdio for agent integration, or as an HTTP
server exposing a JSON-RPC endpoint plus health and stats routes.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
