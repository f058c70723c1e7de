// Package chat routes free-form chat messages to tool operations by
// substring intent matching. Rules are ordered and the first match wins.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/HengJake/KAIATradeAssistantBackend/internal/metrics"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/validation"
)

// Exact strings the client relies on.
const (
	swapUsageHint = `Please specify amount, fiat currency, and crypto token (e.g., "swap 100 USD to KAIA").`
	fallbackReply = "How can I assist you with yields, trades, or fiat swaps?"
)

var swapPattern = regexp.MustCompile(`swap (\d+) (\w+) to (\w+)`)

// ToolRunner is the slice of the tool service the router drives.
type ToolRunner interface {
	InitiateFiatSwap(ctx context.Context, user string, fiatAmount int64, fiatCurrency string) (string, error)
	GetBestYield(ctx context.Context, token string) (string, error)
	AnalyzeTrades(ctx context.Context, user string) (string, error)
}

type rule struct {
	intent string
	match  func(message string) bool
	handle func(ctx context.Context, message, userAddress string) (string, error)
}

// Router dispatches chat messages by intent.
type Router struct {
	tools        ToolRunner
	defaultToken string
	logger       *slog.Logger
	rules        []rule
}

// NewRouter creates a chat router. defaultToken is the token address used
// when a yield question names no token.
func NewRouter(tools ToolRunner, defaultToken string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		tools:        tools,
		defaultToken: defaultToken,
		logger:       logger,
	}
	r.rules = []rule{
		{
			intent: "fiat_swap",
			match:  func(m string) bool { return strings.Contains(m, "swap to fiat") },
			handle: r.handleSwap,
		},
		{
			intent: "yield",
			match:  func(m string) bool { return strings.Contains(m, "yield") },
			handle: func(ctx context.Context, _, _ string) (string, error) {
				return r.tools.GetBestYield(ctx, r.defaultToken)
			},
		},
		{
			intent: "trade_analysis",
			match:  func(m string) bool { return strings.Contains(m, "trade analysis") },
			handle: func(ctx context.Context, _, userAddress string) (string, error) {
				return r.tools.AnalyzeTrades(ctx, userAddress)
			},
		},
	}
	return r
}

// Handle routes a message through the rule list. Unmatched messages get a
// fixed guidance reply, never an error. The message is sanitized before
// matching so padding and control bytes cannot dodge a rule.
func (r *Router) Handle(ctx context.Context, message, userAddress string) (string, error) {
	message = validation.SanitizeString(message, validation.MaxStringLength)
	for _, rl := range r.rules {
		if !rl.match(message) {
			continue
		}
		metrics.ChatMessagesTotal.WithLabelValues(rl.intent).Inc()
		r.logger.Debug("chat intent matched", "intent", rl.intent)
		return rl.handle(ctx, message, userAddress)
	}

	metrics.ChatMessagesTotal.WithLabelValues("fallback").Inc()
	return fallbackReply, nil
}

// handleSwap parses "swap <amount> <currency> to <token>" out of the message.
// Anything that does not parse, or targets a token other than KAIA, gets the
// usage hint rather than an error.
func (r *Router) handleSwap(ctx context.Context, message, userAddress string) (string, error) {
	m := swapPattern.FindStringSubmatch(message)
	if m == nil {
		return swapUsageHint, nil
	}

	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return swapUsageHint, nil
	}
	currency, token := m[2], m[3]

	if !strings.EqualFold(token, "KAIA") {
		return swapUsageHint, nil
	}

	reply, err := r.tools.InitiateFiatSwap(ctx, userAddress, amount, currency)
	if err != nil {
		return "", fmt.Errorf("chat swap: %w", err)
	}
	return reply, nil
}
