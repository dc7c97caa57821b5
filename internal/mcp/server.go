// ABOUTME: MCP stdio transport exposing the three meta-tools
// ABOUTME: discover_tools, get_tool_spec, and execute_tool over mark3labs/mcp-go
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/tools"
)

// ServerName and ServerVersion identify this server to MCP clients.
const (
	ServerName    = "knowledge-store"
	ServerVersion = "0.1.0"
)

// Server wraps the MCP server with the knowledge store meta-tools.
type Server struct {
	mcp        *server.MCPServer
	dispatcher *tools.Dispatcher
	log        *zap.Logger
}

// New creates an MCP server with the three meta-tools registered.
func New(dispatcher *tools.Dispatcher, log *zap.Logger) *Server {
	s := &Server{dispatcher: dispatcher, log: log}

	s.mcp = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
	)

	s.mcp.AddTool(mcp.NewTool("discover_tools",
		mcp.WithDescription("Get available tools with minimal context consumption"),
		mcp.WithString("pattern", mcp.Description("Filter by name pattern (substring match)")),
	), s.discoverTools)

	s.mcp.AddTool(mcp.NewTool("get_tool_spec",
		mcp.WithDescription("Get full specification for specific tool including schema and examples"),
		mcp.WithString("tool_name", mcp.Required(), mcp.Description("Name of tool to get specification for")),
	), s.getToolSpec)

	s.mcp.AddTool(mcp.NewTool("execute_tool",
		mcp.WithDescription("Execute tool with parameters using dynamic dispatch"),
		mcp.WithString("tool_name", mcp.Required(), mcp.Description("Name of tool to execute")),
		mcp.WithObject("parameters", mcp.Required(), mcp.Description("Tool parameters")),
	), s.executeTool)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) discoverTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern := req.GetString("pattern", "")
	return jsonResult(s.dispatcher.Discover(pattern))
}

func (s *Server) getToolSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toolName, err := req.RequireString("tool_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.dispatcher.GetSpec(toolName))
}

func (s *Server) executeTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toolName, err := req.RequireString("tool_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params, _ := req.GetArguments()["parameters"].(map[string]interface{})
	if params == nil {
		params = map[string]interface{}{}
	}
	return jsonResult(s.dispatcher.Execute(ctx, toolName, params))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
