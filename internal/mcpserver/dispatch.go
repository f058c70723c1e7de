package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/HengJake/KAIATradeAssistantBackend/internal/metrics"
)

// HandlerFunc executes one tool call.
type HandlerFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Delegate is an external tool provider consulted for names this server
// does not recognize. Its descriptors are listed before this server's own.
type Delegate interface {
	Tools() []mcp.Tool
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

type entry struct {
	tool    mcp.Tool
	handler HandlerFunc
}

// Dispatcher routes tool calls by exact name match, falling back to the
// delegate for unknown names. Registration order is preserved in listings.
type Dispatcher struct {
	entries  []entry
	index    map[string]HandlerFunc
	delegate Delegate
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher with all assistant tools registered.
// delegate may be nil, in which case unknown names are errors.
func NewDispatcher(h *Handlers, delegate Delegate, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		index:    make(map[string]HandlerFunc),
		delegate: delegate,
		logger:   logger,
	}

	d.register(ToolGetBestYield, h.HandleGetBestYield)
	d.register(ToolAnalyzeTrades, h.HandleAnalyzeTrades)
	d.register(ToolInitiateFiatSwap, h.HandleInitiateFiatSwap)
	d.register(ToolInitializeDemoAccount, h.HandleInitializeDemoAccount)
	d.register(ToolSuggestTrade, h.HandleSuggestTrade)
	d.register(ToolHandleFiatSwapChat, h.HandleFiatSwapChat)
	d.register(ToolGetYieldOverview, h.HandleGetYieldOverview)
	d.register(ToolGetTradeStats, h.HandleGetTradeStats)
	d.register(ToolGetTradeHistory, h.HandleGetTradeHistory)
	d.register(ToolGetSwapHistory, h.HandleGetSwapHistory)
	d.register(ToolGetDemoBalance, h.HandleGetDemoBalance)
	d.register(ToolGetFiatRate, h.HandleGetFiatRate)
	d.register(ToolCancelFiatSwap, h.HandleCancelFiatSwap)
	d.register(ToolSimulateDemoTrade, h.HandleSimulateDemoTrade)

	return d
}

func (d *Dispatcher) register(tool mcp.Tool, handler HandlerFunc) {
	d.entries = append(d.entries, entry{tool: tool, handler: handler})
	d.index[tool.Name] = handler
}

// Dispatch invokes the tool registered under name. The name match is
// case-sensitive. A nil argument bag is treated as empty; individual field
// validation is the tool's own job.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}

	handler, ok := d.index[name]
	if !ok {
		if d.delegate != nil {
			d.logger.Debug("delegating unknown tool", "tool", name)
			return d.observe("delegate", func() (*mcp.CallToolResult, error) {
				return d.delegate.CallTool(ctx, name, args)
			})
		}
		return mcp.NewToolResultError(fmt.Sprintf("unknown tool: %s", name)), nil
	}

	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args

	return d.observe(name, func() (*mcp.CallToolResult, error) {
		return handler(ctx, req)
	})
}

// ListTools returns the delegate's descriptors followed by this server's
// own, in registration order.
func (d *Dispatcher) ListTools() []mcp.Tool {
	var out []mcp.Tool
	if d.delegate != nil {
		out = append(out, d.delegate.Tools()...)
	}
	for _, e := range d.entries {
		out = append(out, e.tool)
	}
	return out
}

func (d *Dispatcher) observe(tool string, fn func() (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	timer := prometheus.NewTimer(metrics.ToolCallDuration.WithLabelValues(tool))
	result, err := fn()
	timer.ObserveDuration()

	status := "ok"
	if err != nil || (result != nil && result.IsError) {
		status = "error"
	}
	metrics.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	return result, err
}
