// KAIA Trade Assistant MCP Server - exposes on-chain yield, trade, and
// fiat swap tools to LLMs over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HengJake/KAIATradeAssistantBackend/internal/chain"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/chat"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/config"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/logging"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/market"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/mcpserver"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/payment"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/tools"
)

func main() {
	// Stdout belongs to the MCP transport; all logging goes to stderr.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStderr(cfg.LogLevel, "text")

	chainClient, err := chain.New(chain.Config{
		RPCURL:          cfg.RPCProviderURL,
		PrivateKey:      cfg.WalletPrivateKey,
		ChainID:         cfg.ChainID,
		YieldAggregator: cfg.YieldAggregatorAddr,
		TradeAnalyzer:   cfg.TradeAnalyzerAddr,
		FiatSwap:        cfg.FiatSwapAddr,
		DemoTrading:     cfg.DemoTradingAddr,
	})
	if err != nil {
		logger.Error("failed to create chain client", "error", err)
		os.Exit(1)
	}
	defer chainClient.Close()

	paymentClient := payment.NewClient(payment.Config{
		URL:    cfg.PaymentAPIURL,
		APIKey: cfg.PaymentAPIKey,
	})
	marketClient := market.NewClient(market.Config{
		URL:    cfg.MarketDataURL,
		APIKey: cfg.OraklAPIKey,
	})

	svc := tools.NewService(chainClient, chainClient, chainClient, chainClient, paymentClient, marketClient, logger)
	router := chat.NewRouter(svc, cfg.YieldToken, logger)

	handlers := mcpserver.NewHandlers(svc, router)
	dispatcher := mcpserver.NewDispatcher(handlers, nil, logger)

	logger.Info("starting MCP server on stdio", "wallet", chainClient.Address(), "chain_id", cfg.ChainID)

	s := mcpserver.NewMCPServer(dispatcher)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
