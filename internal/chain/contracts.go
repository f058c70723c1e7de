package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal ABIs for the four deployed contracts. Only the methods this
// adapter calls are declared; the deployed contracts carry more.

const yieldAggregatorABI = `[
	{"inputs":[{"name":"token","type":"address"}],"name":"getBestYield","outputs":[{"components":[{"name":"protocol","type":"address"},{"name":"apyBasisPoints","type":"uint256"},{"name":"liquidity","type":"uint256"},{"name":"riskLevel","type":"uint8"}],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"token","type":"address"}],"name":"getYields","outputs":[{"components":[{"name":"protocol","type":"address"},{"name":"apyBasisPoints","type":"uint256"},{"name":"liquidity","type":"uint256"},{"name":"riskLevel","type":"uint8"}],"name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"token","type":"address"}],"name":"getAverageAPYAndRisk","outputs":[{"name":"avgAPY","type":"uint256"},{"name":"avgRisk","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const tradeAnalyzerABI = `[
	{"inputs":[{"name":"user","type":"address"}],"name":"suggestStrategy","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"analyzeTrades","outputs":[{"name":"totalPL","type":"int256"},{"name":"count","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"getTradeCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"getAllTrades","outputs":[{"components":[{"name":"user","type":"address"},{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"amountOut","type":"uint256"},{"name":"timestamp","type":"uint256"},{"name":"isDemo","type":"bool"},{"name":"profitLoss","type":"int256"}],"name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"}
]`

const fiatSwapABI = `[
	{"inputs":[{"name":"user","type":"address"},{"name":"fiatAmount","type":"uint256"},{"name":"fiatCurrency","type":"string"},{"name":"isDemo","type":"bool"}],"name":"initiateSwap","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"completeSwap","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"cancelSwap","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"fiatCurrency","type":"string"}],"name":"getFiatRate","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"getAllSwaps","outputs":[{"components":[{"name":"user","type":"address"},{"name":"fiatAmount","type":"uint256"},{"name":"fiatCurrency","type":"string"},{"name":"tokenAmount","type":"uint256"},{"name":"token","type":"address"},{"name":"isDemo","type":"bool"},{"name":"completed","type":"bool"},{"name":"cancelled","type":"bool"},{"name":"timestamp","type":"uint256"}],"name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"}
]`

const demoTradingABI = `[
	{"inputs":[{"name":"user","type":"address"}],"name":"initializeDemoAccount","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"user","type":"address"}],"name":"getDemoAccount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"amountOut","type":"uint256"},{"name":"profitLoss","type":"int256"}],"name":"simulateTrade","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// -----------------------------------------------------------------------------
// Value shapes - read-only projections of contract storage
// -----------------------------------------------------------------------------

// YieldInfo is one protocol's yield snapshot for a token
type YieldInfo struct {
	Protocol       common.Address
	ApyBasisPoints *big.Int
	Liquidity      *big.Int
	RiskLevel      uint8
}

// Trade is one recorded trade. Created and mutated only via contract
// calls; this adapter only reads it.
type Trade struct {
	User       common.Address
	TokenIn    common.Address
	TokenOut   common.Address
	AmountIn   *big.Int
	AmountOut  *big.Int
	Timestamp  *big.Int
	IsDemo     bool
	ProfitLoss *big.Int
}

// Swap is one fiat-to-token swap record
type Swap struct {
	User         common.Address
	FiatAmount   *big.Int
	FiatCurrency string
	TokenAmount  *big.Int
	Token        common.Address
	IsDemo       bool
	Completed    bool
	Cancelled    bool
	Timestamp    *big.Int
}

// -----------------------------------------------------------------------------
// YieldAggregator
// -----------------------------------------------------------------------------

// GetBestYield returns the highest-APY protocol snapshot for a token
func (c *Client) GetBestYield(ctx context.Context, token common.Address) (YieldInfo, error) {
	out, err := c.call(ctx, c.yieldAggregator, "getBestYield", token)
	if err != nil {
		return YieldInfo{}, err
	}
	return *abi.ConvertType(out[0], new(YieldInfo)).(*YieldInfo), nil
}

// GetYields returns every tracked protocol's yield snapshot for a token
func (c *Client) GetYields(ctx context.Context, token common.Address) ([]YieldInfo, error) {
	out, err := c.call(ctx, c.yieldAggregator, "getYields", token)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]YieldInfo)).(*[]YieldInfo), nil
}

// GetAverageAPYAndRisk returns the average APY (basis points) and risk across protocols
func (c *Client) GetAverageAPYAndRisk(ctx context.Context, token common.Address) (*big.Int, *big.Int, error) {
	out, err := c.call(ctx, c.yieldAggregator, "getAverageAPYAndRisk", token)
	if err != nil {
		return nil, nil, err
	}
	avgAPY := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	avgRisk := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	return avgAPY, avgRisk, nil
}

// -----------------------------------------------------------------------------
// TradeAnalyzer
// -----------------------------------------------------------------------------

// SuggestStrategy returns the contract's strategy advice for a user
func (c *Client) SuggestStrategy(ctx context.Context, user common.Address) (string, error) {
	out, err := c.call(ctx, c.tradeAnalyzer, "suggestStrategy", user)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// AnalyzeTrades returns total profit/loss and trade count for a user
func (c *Client) AnalyzeTrades(ctx context.Context, user common.Address) (*big.Int, *big.Int, error) {
	out, err := c.call(ctx, c.tradeAnalyzer, "analyzeTrades", user)
	if err != nil {
		return nil, nil, err
	}
	totalPL := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	count := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	return totalPL, count, nil
}

// GetTradeCount returns the number of recorded trades for a user
func (c *Client) GetTradeCount(ctx context.Context, user common.Address) (*big.Int, error) {
	out, err := c.call(ctx, c.tradeAnalyzer, "getTradeCount", user)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// GetAllTrades returns every recorded trade for a user
func (c *Client) GetAllTrades(ctx context.Context, user common.Address) ([]Trade, error) {
	out, err := c.call(ctx, c.tradeAnalyzer, "getAllTrades", user)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]Trade)).(*[]Trade), nil
}

// -----------------------------------------------------------------------------
// FiatSwap
// -----------------------------------------------------------------------------

// InitiateSwap opens a fiat-to-token swap on-chain and waits for the
// transaction to be mined, so the payment leg only starts once the swap
// escrow exists.
func (c *Client) InitiateSwap(ctx context.Context, user common.Address, fiatAmount *big.Int, fiatCurrency string, isDemo bool) (string, error) {
	txHash, err := c.transact(ctx, c.fiatSwap, "initiateSwap", user, fiatAmount, fiatCurrency, isDemo)
	if err != nil {
		return "", err
	}
	if err := c.waitForReceipt(ctx, c.fiatSwap, "initiateSwap", txHash, DefaultConfirmationTimeout); err != nil {
		return txHash, err
	}
	return txHash, nil
}

// CompleteSwap marks the user's pending swap as settled
func (c *Client) CompleteSwap(ctx context.Context, user common.Address) (string, error) {
	return c.transact(ctx, c.fiatSwap, "completeSwap", user)
}

// CancelSwap cancels the user's pending swap
func (c *Client) CancelSwap(ctx context.Context, user common.Address) (string, error) {
	return c.transact(ctx, c.fiatSwap, "cancelSwap", user)
}

// GetFiatRate returns the on-chain conversion rate for a fiat currency
func (c *Client) GetFiatRate(ctx context.Context, fiatCurrency string) (*big.Int, error) {
	out, err := c.call(ctx, c.fiatSwap, "getFiatRate", fiatCurrency)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// GetAllSwaps returns every swap recorded for a user
func (c *Client) GetAllSwaps(ctx context.Context, user common.Address) ([]Swap, error) {
	out, err := c.call(ctx, c.fiatSwap, "getAllSwaps", user)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]Swap)).(*[]Swap), nil
}

// -----------------------------------------------------------------------------
// DemoTrading
// -----------------------------------------------------------------------------

// InitializeDemoAccount provisions a virtual balance for risk-free trading
func (c *Client) InitializeDemoAccount(ctx context.Context, user common.Address) (string, error) {
	return c.transact(ctx, c.demoTrading, "initializeDemoAccount", user)
}

// GetDemoAccount returns the user's virtual balance
func (c *Client) GetDemoAccount(ctx context.Context, user common.Address) (*big.Int, error) {
	out, err := c.call(ctx, c.demoTrading, "getDemoAccount", user)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// SimulateTrade records a simulated trade against the demo balance
func (c *Client) SimulateTrade(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, amountOut, profitLoss *big.Int) (string, error) {
	return c.transact(ctx, c.demoTrading, "simulateTrade", tokenIn, tokenOut, amountIn, amountOut, profitLoss)
}
