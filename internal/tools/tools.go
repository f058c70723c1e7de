// Package tools implements the capabilities exposed to the AI client.
// Each operation validates its arguments, performs one contract call (or a
// small call sequence), and formats a human-readable string result.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/HengJake/KAIATradeAssistantBackend/internal/chain"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/metrics"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/payment"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/validation"
)

var (
	ErrInvalidAddress  = errors.New("tools: invalid address")
	ErrInvalidAmount   = errors.New("tools: invalid amount")
	ErrInvalidCurrency = errors.New("tools: invalid currency")
)

// -----------------------------------------------------------------------------
// Collaborator interfaces - narrow views over the chain client and the
// external providers so tests can substitute fakes
// -----------------------------------------------------------------------------

// YieldReader reads YieldAggregator state
type YieldReader interface {
	GetBestYield(ctx context.Context, token common.Address) (chain.YieldInfo, error)
	GetYields(ctx context.Context, token common.Address) ([]chain.YieldInfo, error)
	GetAverageAPYAndRisk(ctx context.Context, token common.Address) (*big.Int, *big.Int, error)
}

// TradeReader reads TradeAnalyzer state
type TradeReader interface {
	SuggestStrategy(ctx context.Context, user common.Address) (string, error)
	AnalyzeTrades(ctx context.Context, user common.Address) (*big.Int, *big.Int, error)
	GetTradeCount(ctx context.Context, user common.Address) (*big.Int, error)
	GetAllTrades(ctx context.Context, user common.Address) ([]chain.Trade, error)
}

// SwapContract drives the FiatSwap contract
type SwapContract interface {
	InitiateSwap(ctx context.Context, user common.Address, fiatAmount *big.Int, fiatCurrency string, isDemo bool) (string, error)
	CompleteSwap(ctx context.Context, user common.Address) (string, error)
	CancelSwap(ctx context.Context, user common.Address) (string, error)
	GetFiatRate(ctx context.Context, fiatCurrency string) (*big.Int, error)
	GetAllSwaps(ctx context.Context, user common.Address) ([]chain.Swap, error)
}

// DemoContract drives the DemoTrading contract
type DemoContract interface {
	InitializeDemoAccount(ctx context.Context, user common.Address) (string, error)
	GetDemoAccount(ctx context.Context, user common.Address) (*big.Int, error)
	SimulateTrade(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, amountOut, profitLoss *big.Int) (string, error)
}

// PaymentProvider settles the fiat leg of a swap
type PaymentProvider interface {
	CreateSwap(ctx context.Context, fiatCurrency string, fiatAmount int64, destination string) (*payment.SwapResult, error)
}

// MarketFeed fetches external market data
type MarketFeed interface {
	Snapshot(ctx context.Context) (json.RawMessage, error)
}

// Service holds the collaborators for all tool operations. All state is
// on-chain or remote; the service itself is stateless.
type Service struct {
	yields  YieldReader
	trades  TradeReader
	swaps   SwapContract
	demo    DemoContract
	payment PaymentProvider
	market  MarketFeed
	logger  *slog.Logger
}

// NewService creates the tool service
func NewService(yields YieldReader, trades TradeReader, swaps SwapContract, demo DemoContract, pay PaymentProvider, market MarketFeed, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		yields:  yields,
		trades:  trades,
		swaps:   swaps,
		demo:    demo,
		payment: pay,
		market:  market,
		logger:  logger,
	}
}

// -----------------------------------------------------------------------------
// Core operations
// -----------------------------------------------------------------------------

// GetBestYield reports the best available yield for a token
func (s *Service) GetBestYield(ctx context.Context, token string) (string, error) {
	addr, err := parseAddress("token", token)
	if err != nil {
		return "", err
	}

	info, err := s.yields.GetBestYield(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("fetch best yield: %w", err)
	}

	return fmt.Sprintf("Best yield: %s with %s%% APY (Risk: %d)",
		info.Protocol.Hex(), formatBasisPoints(info.ApyBasisPoints), info.RiskLevel), nil
}

// AnalyzeTrades returns the contract's strategy advice verbatim
func (s *Service) AnalyzeTrades(ctx context.Context, user string) (string, error) {
	addr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}

	suggestion, err := s.trades.SuggestStrategy(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("analyze trades: %w", err)
	}
	return suggestion, nil
}

// InitiateFiatSwap runs the two-phase fiat swap: open the swap on-chain,
// settle the fiat leg with the payment provider, and complete the swap if
// the payment succeeded. A failed payment leaves the swap initiated on-chain;
// there is deliberately no automatic cancel (see cancelFiatSwap for manual
// compensation).
func (s *Service) InitiateFiatSwap(ctx context.Context, user string, fiatAmount int64, fiatCurrency string) (string, error) {
	addr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}
	if fiatAmount <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidAmount, fiatAmount)
	}
	fiatCurrency = strings.ToUpper(strings.TrimSpace(fiatCurrency))
	if !validation.IsValidCurrencyCode(fiatCurrency) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, fiatCurrency)
	}

	txHash, err := s.swaps.InitiateSwap(ctx, addr, big.NewInt(fiatAmount), fiatCurrency, false)
	if err != nil {
		return "", fmt.Errorf("initiate swap: %w", err)
	}
	s.logger.Info("swap initiated", "user", user, "amount", fiatAmount, "currency", fiatCurrency, "tx", txHash)

	succeeded := false
	result, err := s.payment.CreateSwap(ctx, fiatCurrency, fiatAmount, user)
	switch {
	case err != nil:
		// The swap stays initiated on-chain; surface the failure in the
		// result string rather than erroring out of a half-done flow.
		s.logger.Warn("payment request failed, swap left initiated", "user", user, "error", err)
		metrics.PaymentRequestsTotal.WithLabelValues("error").Inc()
	case !result.Success:
		s.logger.Warn("payment declined, swap left initiated", "user", user, "message", result.Message)
		metrics.PaymentRequestsTotal.WithLabelValues("declined").Inc()
	default:
		succeeded = true
		metrics.PaymentRequestsTotal.WithLabelValues("success").Inc()
	}

	status := "Failed"
	if succeeded {
		if _, err := s.swaps.CompleteSwap(ctx, addr); err != nil {
			return "", fmt.Errorf("complete swap: %w", err)
		}
		status = "Completed"
	}

	return fmt.Sprintf("Initiated swap: %d %s to KAIA. Payment status: %s", fiatAmount, fiatCurrency, status), nil
}

// InitializeDemoAccount provisions a demo trading account
func (s *Service) InitializeDemoAccount(ctx context.Context, user string) (string, error) {
	addr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}

	if _, err := s.demo.InitializeDemoAccount(ctx, addr); err != nil {
		return "", fmt.Errorf("initialize demo account: %w", err)
	}
	return fmt.Sprintf("Demo account initialized for %s", user), nil
}

// SuggestTrade returns strategy advice for a token. The market snapshot is
// best-effort and not yet folded into the suggestion.
func (s *Service) SuggestTrade(ctx context.Context, user, token string) (string, error) {
	userAddr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}
	if _, err := parseAddress("token", token); err != nil {
		return "", err
	}

	if _, err := s.market.Snapshot(ctx); err != nil {
		s.logger.Debug("market data fetch failed", "error", err)
	}

	suggestion, err := s.trades.SuggestStrategy(ctx, userAddr)
	if err != nil {
		return "", fmt.Errorf("suggest trade: %w", err)
	}

	return fmt.Sprintf("Trading suggestion for %s: %s (market data integration pending)", token, suggestion), nil
}

// -----------------------------------------------------------------------------
// Extended operations
// -----------------------------------------------------------------------------

// GetYieldOverview lists every tracked protocol's yield for a token plus
// the cross-protocol averages
func (s *Service) GetYieldOverview(ctx context.Context, token string) (string, error) {
	addr, err := parseAddress("token", token)
	if err != nil {
		return "", err
	}

	yields, err := s.yields.GetYields(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("fetch yields: %w", err)
	}
	if len(yields) == 0 {
		return fmt.Sprintf("No yields tracked for %s.", token), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Yields for %s:\n", token)
	for i, y := range yields {
		fmt.Fprintf(&sb, "%d. %s: %s%% APY, liquidity %s, risk %d\n",
			i+1, y.Protocol.Hex(), formatBasisPoints(y.ApyBasisPoints), y.Liquidity.String(), y.RiskLevel)
	}

	avgAPY, avgRisk, err := s.yields.GetAverageAPYAndRisk(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("fetch yield averages: %w", err)
	}
	fmt.Fprintf(&sb, "Average: %s%% APY, risk %s", formatBasisPoints(avgAPY), avgRisk.String())

	return sb.String(), nil
}

// GetTradeStats summarizes a user's recorded trades
func (s *Service) GetTradeStats(ctx context.Context, user string) (string, error) {
	addr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}

	totalPL, count, err := s.trades.AnalyzeTrades(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("analyze trades: %w", err)
	}

	return fmt.Sprintf("Trade stats for %s: %s trade(s), total P/L %s", user, count.String(), totalPL.String()), nil
}

// GetTradeHistory lists a user's recorded trades. The count is read first
// so an empty history skips the full trade fetch.
func (s *Service) GetTradeHistory(ctx context.Context, user string) (string, error) {
	addr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}

	count, err := s.trades.GetTradeCount(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("fetch trade count: %w", err)
	}
	if count.Sign() == 0 {
		return fmt.Sprintf("No trades recorded for %s.", user), nil
	}

	trades, err := s.trades.GetAllTrades(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("fetch trades: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d trade(s) for %s:\n", len(trades), user)
	for i, tr := range trades {
		mode := "live"
		if tr.IsDemo {
			mode = "demo"
		}
		fmt.Fprintf(&sb, "%d. %s %s -> %s %s (%s, P/L: %s)\n",
			i+1, tr.AmountIn.String(), tr.TokenIn.Hex(), tr.AmountOut.String(), tr.TokenOut.Hex(), mode, tr.ProfitLoss.String())
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// GetSwapHistory lists a user's fiat swaps with their settlement status
func (s *Service) GetSwapHistory(ctx context.Context, user string) (string, error) {
	addr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}

	swaps, err := s.swaps.GetAllSwaps(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("fetch swaps: %w", err)
	}
	if len(swaps) == 0 {
		return fmt.Sprintf("No swaps found for %s.", user), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d swap(s) for %s:\n", len(swaps), user)
	for i, sw := range swaps {
		status := "pending"
		switch {
		case sw.Completed:
			status = "completed"
		case sw.Cancelled:
			status = "cancelled"
		}
		fmt.Fprintf(&sb, "%d. %s %s to KAIA - %s\n", i+1, sw.FiatAmount.String(), sw.FiatCurrency, status)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// GetDemoBalance returns the user's virtual trading balance
func (s *Service) GetDemoBalance(ctx context.Context, user string) (string, error) {
	addr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}

	balance, err := s.demo.GetDemoAccount(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("fetch demo balance: %w", err)
	}
	return fmt.Sprintf("Demo balance for %s: %s", user, balance.String()), nil
}

// GetFiatRate returns the on-chain conversion rate for a currency
func (s *Service) GetFiatRate(ctx context.Context, fiatCurrency string) (string, error) {
	fiatCurrency = strings.ToUpper(strings.TrimSpace(fiatCurrency))
	if !validation.IsValidCurrencyCode(fiatCurrency) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, fiatCurrency)
	}

	rate, err := s.swaps.GetFiatRate(ctx, fiatCurrency)
	if err != nil {
		return "", fmt.Errorf("fetch fiat rate: %w", err)
	}
	return fmt.Sprintf("Fiat rate for %s: %s", fiatCurrency, rate.String()), nil
}

// CancelFiatSwap cancels the user's pending swap. This is the manual
// compensation path for swaps whose payment leg failed.
func (s *Service) CancelFiatSwap(ctx context.Context, user string) (string, error) {
	addr, err := parseAddress("user", user)
	if err != nil {
		return "", err
	}

	txHash, err := s.swaps.CancelSwap(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("cancel swap: %w", err)
	}
	s.logger.Info("swap cancelled", "user", user, "tx", txHash)
	return fmt.Sprintf("Swap cancelled for %s", user), nil
}

// SimulateDemoTrade records a simulated trade against the demo balance
func (s *Service) SimulateDemoTrade(ctx context.Context, tokenIn, tokenOut string, amountIn, amountOut, profitLoss int64) (string, error) {
	inAddr, err := parseAddress("tokenIn", tokenIn)
	if err != nil {
		return "", err
	}
	outAddr, err := parseAddress("tokenOut", tokenOut)
	if err != nil {
		return "", err
	}
	if amountIn <= 0 || amountOut < 0 {
		return "", fmt.Errorf("%w: amountIn=%d amountOut=%d", ErrInvalidAmount, amountIn, amountOut)
	}

	if _, err := s.demo.SimulateTrade(ctx, inAddr, outAddr, big.NewInt(amountIn), big.NewInt(amountOut), big.NewInt(profitLoss)); err != nil {
		return "", fmt.Errorf("simulate trade: %w", err)
	}
	return fmt.Sprintf("Simulated trade recorded: %d %s -> %d %s (P/L: %d)", amountIn, tokenIn, amountOut, tokenOut, profitLoss), nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func parseAddress(field, value string) (common.Address, error) {
	normalized := validation.SanitizeAddress(value)
	if !validation.IsValidEthAddress(normalized) {
		return common.Address{}, fmt.Errorf("%w: %s %q", ErrInvalidAddress, field, value)
	}
	return common.HexToAddress(normalized), nil
}

// formatBasisPoints renders basis points as a percentage, trimming
// trailing zeros (550 -> "5.5")
func formatBasisPoints(bp *big.Int) string {
	f, _ := new(big.Float).SetInt(bp).Float64()
	return strconv.FormatFloat(f/100, 'f', -1, 64)
}
