package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolService is the operation surface the handlers expose over MCP.
// Implemented by tools.Service.
type ToolService interface {
	GetBestYield(ctx context.Context, token string) (string, error)
	AnalyzeTrades(ctx context.Context, user string) (string, error)
	InitiateFiatSwap(ctx context.Context, user string, fiatAmount int64, fiatCurrency string) (string, error)
	InitializeDemoAccount(ctx context.Context, user string) (string, error)
	SuggestTrade(ctx context.Context, user, token string) (string, error)
	GetYieldOverview(ctx context.Context, token string) (string, error)
	GetTradeStats(ctx context.Context, user string) (string, error)
	GetTradeHistory(ctx context.Context, user string) (string, error)
	GetSwapHistory(ctx context.Context, user string) (string, error)
	GetDemoBalance(ctx context.Context, user string) (string, error)
	GetFiatRate(ctx context.Context, fiatCurrency string) (string, error)
	CancelFiatSwap(ctx context.Context, user string) (string, error)
	SimulateDemoTrade(ctx context.Context, tokenIn, tokenOut string, amountIn, amountOut, profitLoss int64) (string, error)
}

// ChatHandler routes free-text messages. Implemented by chat.Router.
type ChatHandler interface {
	Handle(ctx context.Context, message, userAddress string) (string, error)
}

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	svc  ToolService
	chat ChatHandler
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc ToolService, chat ChatHandler) *Handlers {
	return &Handlers{svc: svc, chat: chat}
}

// HandleGetBestYield reports the best available yield for a token.
func (h *Handlers) HandleGetBestYield(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := req.GetString("token", "")

	text, err := h.svc.GetBestYield(ctx, token)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error fetching yield data: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleAnalyzeTrades returns the contract's strategy advice for a user.
func (h *Handlers) HandleAnalyzeTrades(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")

	text, err := h.svc.AnalyzeTrades(ctx, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error analyzing trades: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleInitiateFiatSwap runs the on-chain swap plus fiat payment flow.
func (h *Handlers) HandleInitiateFiatSwap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")
	fiatAmount := int64(req.GetInt("fiatAmount", 0))
	fiatCurrency := req.GetString("fiatCurrency", "")

	text, err := h.svc.InitiateFiatSwap(ctx, user, fiatAmount, fiatCurrency)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error initiating fiat swap: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleInitializeDemoAccount provisions a demo trading account.
func (h *Handlers) HandleInitializeDemoAccount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")

	text, err := h.svc.InitializeDemoAccount(ctx, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error initializing demo account: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleSuggestTrade returns strategy advice for a token.
func (h *Handlers) HandleSuggestTrade(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")
	token := req.GetString("token", "")

	text, err := h.svc.SuggestTrade(ctx, user, token)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error suggesting trade: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleFiatSwapChat routes a free-text chat message to the matching tool.
func (h *Handlers) HandleFiatSwapChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := req.GetString("message", "")
	userAddress := req.GetString("userAddress", "")

	text, err := h.chat.Handle(ctx, message, userAddress)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error handling chat: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetYieldOverview lists all tracked yields for a token.
func (h *Handlers) HandleGetYieldOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := req.GetString("token", "")

	text, err := h.svc.GetYieldOverview(ctx, token)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error fetching yield data: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetTradeStats summarizes a user's trades.
func (h *Handlers) HandleGetTradeStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")

	text, err := h.svc.GetTradeStats(ctx, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error analyzing trades: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetTradeHistory lists a user's recorded trades.
func (h *Handlers) HandleGetTradeHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")

	text, err := h.svc.GetTradeHistory(ctx, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error fetching trade history: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetSwapHistory lists a user's fiat swaps.
func (h *Handlers) HandleGetSwapHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")

	text, err := h.svc.GetSwapHistory(ctx, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error fetching swap history: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetDemoBalance returns a user's demo trading balance.
func (h *Handlers) HandleGetDemoBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")

	text, err := h.svc.GetDemoBalance(ctx, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error fetching demo balance: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetFiatRate returns the conversion rate for a currency.
func (h *Handlers) HandleGetFiatRate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fiatCurrency := req.GetString("fiatCurrency", "")

	text, err := h.svc.GetFiatRate(ctx, fiatCurrency)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error fetching fiat rate: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleCancelFiatSwap cancels a pending swap.
func (h *Handlers) HandleCancelFiatSwap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := req.GetString("user", "")

	text, err := h.svc.CancelFiatSwap(ctx, user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error cancelling swap: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleSimulateDemoTrade records a simulated trade.
func (h *Handlers) HandleSimulateDemoTrade(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenIn := req.GetString("tokenIn", "")
	tokenOut := req.GetString("tokenOut", "")
	amountIn := int64(req.GetInt("amountIn", 0))
	amountOut := int64(req.GetInt("amountOut", 0))
	profitLoss := int64(req.GetInt("profitLoss", 0))

	text, err := h.svc.SimulateDemoTrade(ctx, tokenIn, tokenOut, amountIn, amountOut, profitLoss)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error simulating trade: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}
