package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the KAIA trade assistant MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolGetBestYield = mcp.NewTool("getBestYield",
	mcp.WithDescription("Fetch best yield for a token"),
	mcp.WithString("token",
		mcp.Required(),
		mcp.Description("Token address to query yields for (e.g. '0x1234...')")),
)

var ToolAnalyzeTrades = mcp.NewTool("analyzeTrades",
	mcp.WithDescription("Analyze trade strategies"),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address (e.g. '0x1234...')")),
)

var ToolInitiateFiatSwap = mcp.NewTool("initiateFiatSwap",
	mcp.WithDescription("Swap fiat to KAIA"),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address receiving the KAIA")),
	mcp.WithNumber("fiatAmount",
		mcp.Required(),
		mcp.Description("Fiat amount to swap (whole units, e.g. 100)")),
	mcp.WithString("fiatCurrency",
		mcp.Required(),
		mcp.Description("Fiat currency code (e.g. 'USD')")),
)

var ToolInitializeDemoAccount = mcp.NewTool("initializeDemoAccount",
	mcp.WithDescription("Initialize a demo account"),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address")),
)

var ToolSuggestTrade = mcp.NewTool("suggestTrade",
	mcp.WithDescription("Suggest a trade strategy"),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address")),
	mcp.WithString("token",
		mcp.Required(),
		mcp.Description("Token address the suggestion is for")),
)

var ToolHandleFiatSwapChat = mcp.NewTool("handleFiatSwapChat",
	mcp.WithDescription("Process chat messages for swaps/yields/trades"),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The user's free-text chat message")),
	mcp.WithString("userAddress",
		mcp.Required(),
		mcp.Description("User's wallet address")),
)

var ToolGetYieldOverview = mcp.NewTool("getYieldOverview",
	mcp.WithDescription(
		"List every tracked protocol's yield for a token, "+
			"with the cross-protocol average APY and risk."),
	mcp.WithString("token",
		mcp.Required(),
		mcp.Description("Token address to query yields for")),
)

var ToolGetTradeStats = mcp.NewTool("getTradeStats",
	mcp.WithDescription("Summarize a user's recorded trades: trade count and total profit/loss."),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address")),
)

var ToolGetTradeHistory = mcp.NewTool("getTradeHistory",
	mcp.WithDescription("List a user's recorded trades with amounts and profit/loss."),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address")),
)

var ToolGetSwapHistory = mcp.NewTool("getSwapHistory",
	mcp.WithDescription("List a user's fiat swaps with their settlement status."),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address")),
)

var ToolGetDemoBalance = mcp.NewTool("getDemoBalance",
	mcp.WithDescription("Check a user's virtual demo trading balance."),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address")),
)

var ToolGetFiatRate = mcp.NewTool("getFiatRate",
	mcp.WithDescription("Get the on-chain fiat-to-KAIA conversion rate for a currency."),
	mcp.WithString("fiatCurrency",
		mcp.Required(),
		mcp.Description("Fiat currency code (e.g. 'USD')")),
)

var ToolCancelFiatSwap = mcp.NewTool("cancelFiatSwap",
	mcp.WithDescription(
		"Cancel a user's pending fiat swap. "+
			"Use this when the payment leg of an initiated swap failed."),
	mcp.WithString("user",
		mcp.Required(),
		mcp.Description("User's wallet address")),
)

var ToolSimulateDemoTrade = mcp.NewTool("simulateDemoTrade",
	mcp.WithDescription("Record a simulated trade against a user's demo balance."),
	mcp.WithString("tokenIn",
		mcp.Required(),
		mcp.Description("Address of the token sold")),
	mcp.WithString("tokenOut",
		mcp.Required(),
		mcp.Description("Address of the token bought")),
	mcp.WithNumber("amountIn",
		mcp.Required(),
		mcp.Description("Amount of tokenIn sold")),
	mcp.WithNumber("amountOut",
		mcp.Required(),
		mcp.Description("Amount of tokenOut bought")),
	mcp.WithNumber("profitLoss",
		mcp.Description("Realized profit (positive) or loss (negative) of the trade")),
)
