// KAIA Trade Assistant - HTTP gateway for the on-chain tool suite
package main

import (
	"context"
	"os"

	"github.com/HengJake/KAIATradeAssistantBackend/internal/chain"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/chat"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/config"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/httpserver"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/logging"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/market"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/mcpserver"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/payment"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/tools"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")

	logger.Info("starting kaia trade assistant",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"chain_id", cfg.ChainID,
		"fiat_swap_contract", cfg.FiatSwapAddr,
	)

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

	srv := httpserver.New(cfg, dispatcher, router, httpserver.WithLogger(logger))

	ctx := context.Background()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
