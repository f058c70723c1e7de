package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with every dispatcher tool
// registered, delegate tools included.
func NewMCPServer(d *Dispatcher) *server.MCPServer {
	s := server.NewMCPServer("kaia-trade-assistant", "1.0.0")

	for _, tool := range d.ListTools() {
		name := tool.Name
		s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return d.Dispatch(ctx, name, req.GetArguments())
		})
	}

	return s
}
