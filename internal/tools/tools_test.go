package tools

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HengJake/KAIATradeAssistantBackend/internal/chain"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/logging"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/payment"
)

const (
	testUser  = "0x1111111111111111111111111111111111111111"
	testToken = "0x2222222222222222222222222222222222222222"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeYields struct {
	best    chain.YieldInfo
	bestErr error
	yields  []chain.YieldInfo
	avgAPY  *big.Int
	avgRisk *big.Int
}

func (f *fakeYields) GetBestYield(_ context.Context, _ common.Address) (chain.YieldInfo, error) {
	return f.best, f.bestErr
}

func (f *fakeYields) GetYields(_ context.Context, _ common.Address) ([]chain.YieldInfo, error) {
	return f.yields, nil
}

func (f *fakeYields) GetAverageAPYAndRisk(_ context.Context, _ common.Address) (*big.Int, *big.Int, error) {
	return f.avgAPY, f.avgRisk, nil
}

type fakeTrades struct {
	suggestion      string
	suggestErr      error
	totalPL         *big.Int
	count           *big.Int
	countErr        error
	trades          []chain.Trade
	allTradesCalled bool
}

func (f *fakeTrades) SuggestStrategy(_ context.Context, _ common.Address) (string, error) {
	return f.suggestion, f.suggestErr
}

func (f *fakeTrades) AnalyzeTrades(_ context.Context, _ common.Address) (*big.Int, *big.Int, error) {
	return f.totalPL, f.count, nil
}

func (f *fakeTrades) GetTradeCount(_ context.Context, _ common.Address) (*big.Int, error) {
	return f.count, f.countErr
}

func (f *fakeTrades) GetAllTrades(_ context.Context, _ common.Address) ([]chain.Trade, error) {
	f.allTradesCalled = true
	return f.trades, nil
}

type fakeSwaps struct {
	initiateErr   error
	completeErr   error
	cancelErr     error
	rate          *big.Int
	swaps         []chain.Swap
	initiated     bool
	completed     bool
	cancelled     bool
	initiatedWith struct {
		amount   *big.Int
		currency string
		isDemo   bool
	}
}

func (f *fakeSwaps) InitiateSwap(_ context.Context, _ common.Address, fiatAmount *big.Int, fiatCurrency string, isDemo bool) (string, error) {
	if f.initiateErr != nil {
		return "", f.initiateErr
	}
	f.initiated = true
	f.initiatedWith.amount = fiatAmount
	f.initiatedWith.currency = fiatCurrency
	f.initiatedWith.isDemo = isDemo
	return "0xabc", nil
}

func (f *fakeSwaps) CompleteSwap(_ context.Context, _ common.Address) (string, error) {
	if f.completeErr != nil {
		return "", f.completeErr
	}
	f.completed = true
	return "0xdef", nil
}

func (f *fakeSwaps) CancelSwap(_ context.Context, _ common.Address) (string, error) {
	if f.cancelErr != nil {
		return "", f.cancelErr
	}
	f.cancelled = true
	return "0x123", nil
}

func (f *fakeSwaps) GetFiatRate(_ context.Context, _ string) (*big.Int, error) {
	return f.rate, nil
}

func (f *fakeSwaps) GetAllSwaps(_ context.Context, _ common.Address) ([]chain.Swap, error) {
	return f.swaps, nil
}

type fakeDemo struct {
	initErr     error
	balance     *big.Int
	simulateErr error
	simulated   bool
}

func (f *fakeDemo) InitializeDemoAccount(_ context.Context, _ common.Address) (string, error) {
	if f.initErr != nil {
		return "", f.initErr
	}
	return "0xaaa", nil
}

func (f *fakeDemo) GetDemoAccount(_ context.Context, _ common.Address) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeDemo) SimulateTrade(_ context.Context, _, _ common.Address, _, _, _ *big.Int) (string, error) {
	if f.simulateErr != nil {
		return "", f.simulateErr
	}
	f.simulated = true
	return "0xbbb", nil
}

type fakePayment struct {
	result *payment.SwapResult
	err    error
	called bool
}

func (f *fakePayment) CreateSwap(_ context.Context, _ string, _ int64, _ string) (*payment.SwapResult, error) {
	f.called = true
	return f.result, f.err
}

type fakeMarket struct {
	data json.RawMessage
	err  error
}

func (f *fakeMarket) Snapshot(_ context.Context) (json.RawMessage, error) {
	return f.data, f.err
}

type testSetup struct {
	yields  *fakeYields
	trades  *fakeTrades
	swaps   *fakeSwaps
	demo    *fakeDemo
	payment *fakePayment
	market  *fakeMarket
	svc     *Service
}

func newTestSetup() *testSetup {
	s := &testSetup{
		yields:  &fakeYields{},
		trades:  &fakeTrades{},
		swaps:   &fakeSwaps{},
		demo:    &fakeDemo{},
		payment: &fakePayment{result: &payment.SwapResult{Success: true}},
		market:  &fakeMarket{data: json.RawMessage(`{}`)},
	}
	s.svc = NewService(s.yields, s.trades, s.swaps, s.demo, s.payment, s.market, logging.New("error", "json"))
	return s
}

// -----------------------------------------------------------------------------
// Core operations
// -----------------------------------------------------------------------------

func TestGetBestYield(t *testing.T) {
	s := newTestSetup()
	s.yields.best = chain.YieldInfo{
		Protocol:       common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		ApyBasisPoints: big.NewInt(550),
		Liquidity:      big.NewInt(1000),
		RiskLevel:      2,
	}

	got, err := s.svc.GetBestYield(context.Background(), testToken)
	require.NoError(t, err)
	assert.Equal(t, "Best yield: "+s.yields.best.Protocol.Hex()+" with 5.5% APY (Risk: 2)", got)
}

func TestGetBestYieldWholePercent(t *testing.T) {
	s := newTestSetup()
	s.yields.best = chain.YieldInfo{
		Protocol:       common.HexToAddress(testToken),
		ApyBasisPoints: big.NewInt(700),
		Liquidity:      big.NewInt(1),
		RiskLevel:      1,
	}

	got, err := s.svc.GetBestYield(context.Background(), testToken)
	require.NoError(t, err)
	assert.Contains(t, got, "7% APY")
}

func TestGetBestYieldInvalidToken(t *testing.T) {
	s := newTestSetup()
	_, err := s.svc.GetBestYield(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestGetBestYieldContractError(t *testing.T) {
	s := newTestSetup()
	s.yields.bestErr = errors.New("rpc down")

	_, err := s.svc.GetBestYield(context.Background(), testToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch best yield")
}

func TestAnalyzeTrades(t *testing.T) {
	s := newTestSetup()
	s.trades.suggestion = "Hold steady"

	got, err := s.svc.AnalyzeTrades(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "Hold steady", got)
}

func TestAnalyzeTradesInvalidUser(t *testing.T) {
	s := newTestSetup()
	_, err := s.svc.AnalyzeTrades(context.Background(), "0x123")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestInitiateFiatSwapCompleted(t *testing.T) {
	s := newTestSetup()

	got, err := s.svc.InitiateFiatSwap(context.Background(), testUser, 100, "USD")
	require.NoError(t, err)
	assert.Equal(t, "Initiated swap: 100 USD to KAIA. Payment status: Completed", got)
	assert.True(t, s.swaps.initiated)
	assert.True(t, s.swaps.completed)
	assert.Equal(t, "USD", s.swaps.initiatedWith.currency)
	assert.False(t, s.swaps.initiatedWith.isDemo)
}

func TestInitiateFiatSwapPaymentDeclined(t *testing.T) {
	s := newTestSetup()
	s.payment.result = &payment.SwapResult{Success: false, Message: "card declined"}

	got, err := s.svc.InitiateFiatSwap(context.Background(), testUser, 100, "USD")
	require.NoError(t, err)
	assert.Contains(t, got, "Failed")
	assert.True(t, s.swaps.initiated, "swap must stay initiated on payment failure")
	assert.False(t, s.swaps.completed)
	assert.False(t, s.swaps.cancelled)
}

func TestInitiateFiatSwapPaymentTransportError(t *testing.T) {
	s := newTestSetup()
	s.payment.err = errors.New("connection refused")

	got, err := s.svc.InitiateFiatSwap(context.Background(), testUser, 50, "EUR")
	require.NoError(t, err)
	assert.Equal(t, "Initiated swap: 50 EUR to KAIA. Payment status: Failed", got)
	assert.True(t, s.swaps.initiated)
	assert.False(t, s.swaps.completed)
}

func TestInitiateFiatSwapOnChainError(t *testing.T) {
	s := newTestSetup()
	s.swaps.initiateErr = errors.New("execution reverted")

	_, err := s.svc.InitiateFiatSwap(context.Background(), testUser, 100, "USD")
	require.Error(t, err)
	assert.False(t, s.payment.called, "payment must not run if the swap never opened")
}

func TestInitiateFiatSwapCompleteError(t *testing.T) {
	s := newTestSetup()
	s.swaps.completeErr = errors.New("execution reverted")

	_, err := s.svc.InitiateFiatSwap(context.Background(), testUser, 100, "USD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complete swap")
}

func TestInitiateFiatSwapValidation(t *testing.T) {
	s := newTestSetup()

	tests := []struct {
		name     string
		user     string
		amount   int64
		currency string
		wantErr  error
	}{
		{"bad user", "xyz", 100, "USD", ErrInvalidAddress},
		{"zero amount", testUser, 0, "USD", ErrInvalidAmount},
		{"negative amount", testUser, -5, "USD", ErrInvalidAmount},
		{"bad currency", testUser, 100, "U$", ErrInvalidCurrency},
		{"empty currency", testUser, 100, "", ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.svc.InitiateFiatSwap(context.Background(), tt.user, tt.amount, tt.currency)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInitiateFiatSwapNormalizesCurrency(t *testing.T) {
	s := newTestSetup()

	got, err := s.svc.InitiateFiatSwap(context.Background(), testUser, 100, " usd ")
	require.NoError(t, err)
	assert.Contains(t, got, "100 USD to KAIA")
	assert.Equal(t, "USD", s.swaps.initiatedWith.currency)
}

func TestInitializeDemoAccount(t *testing.T) {
	s := newTestSetup()

	got, err := s.svc.InitializeDemoAccount(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "Demo account initialized for "+testUser, got)
}

func TestInitializeDemoAccountError(t *testing.T) {
	s := newTestSetup()
	s.demo.initErr = errors.New("already initialized")

	_, err := s.svc.InitializeDemoAccount(context.Background(), testUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize demo account")
}

func TestSuggestTrade(t *testing.T) {
	s := newTestSetup()
	s.trades.suggestion = "Buy the dip"

	got, err := s.svc.SuggestTrade(context.Background(), testUser, testToken)
	require.NoError(t, err)
	assert.Equal(t, "Trading suggestion for "+testToken+": Buy the dip (market data integration pending)", got)
}

func TestSuggestTradeMarketFailureIsNonFatal(t *testing.T) {
	s := newTestSetup()
	s.trades.suggestion = "Hold"
	s.market.err = errors.New("feed down")

	got, err := s.svc.SuggestTrade(context.Background(), testUser, testToken)
	require.NoError(t, err)
	assert.Contains(t, got, "Hold")
}

// -----------------------------------------------------------------------------
// Extended operations
// -----------------------------------------------------------------------------

func TestGetYieldOverview(t *testing.T) {
	s := newTestSetup()
	s.yields.yields = []chain.YieldInfo{
		{Protocol: common.HexToAddress("0xaa"), ApyBasisPoints: big.NewInt(550), Liquidity: big.NewInt(1000), RiskLevel: 2},
		{Protocol: common.HexToAddress("0xbb"), ApyBasisPoints: big.NewInt(300), Liquidity: big.NewInt(5000), RiskLevel: 1},
	}
	s.yields.avgAPY = big.NewInt(425)
	s.yields.avgRisk = big.NewInt(1)

	got, err := s.svc.GetYieldOverview(context.Background(), testToken)
	require.NoError(t, err)
	assert.Contains(t, got, "5.5% APY")
	assert.Contains(t, got, "3% APY")
	assert.Contains(t, got, "Average: 4.25% APY, risk 1")
}

func TestGetYieldOverviewEmpty(t *testing.T) {
	s := newTestSetup()

	got, err := s.svc.GetYieldOverview(context.Background(), testToken)
	require.NoError(t, err)
	assert.Equal(t, "No yields tracked for "+testToken+".", got)
}

func TestGetTradeStats(t *testing.T) {
	s := newTestSetup()
	s.trades.totalPL = big.NewInt(-120)
	s.trades.count = big.NewInt(4)

	got, err := s.svc.GetTradeStats(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "Trade stats for "+testUser+": 4 trade(s), total P/L -120", got)
}

func TestGetTradeHistory(t *testing.T) {
	s := newTestSetup()
	s.trades.count = big.NewInt(2)
	s.trades.trades = []chain.Trade{
		{
			TokenIn:    common.HexToAddress("0xaa"),
			TokenOut:   common.HexToAddress("0xbb"),
			AmountIn:   big.NewInt(100),
			AmountOut:  big.NewInt(95),
			ProfitLoss: big.NewInt(-5),
		},
		{
			TokenIn:    common.HexToAddress("0xbb"),
			TokenOut:   common.HexToAddress("0xaa"),
			AmountIn:   big.NewInt(50),
			AmountOut:  big.NewInt(60),
			IsDemo:     true,
			ProfitLoss: big.NewInt(10),
		},
	}

	got, err := s.svc.GetTradeHistory(context.Background(), testUser)
	require.NoError(t, err)
	assert.Contains(t, got, "Found 2 trade(s) for "+testUser)
	assert.Contains(t, got, "(live, P/L: -5)")
	assert.Contains(t, got, "(demo, P/L: 10)")
}

func TestGetTradeHistoryEmpty(t *testing.T) {
	s := newTestSetup()
	s.trades.count = big.NewInt(0)

	got, err := s.svc.GetTradeHistory(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "No trades recorded for "+testUser+".", got)
	assert.False(t, s.trades.allTradesCalled, "empty history must skip the full fetch")
}

func TestGetTradeHistoryCountError(t *testing.T) {
	s := newTestSetup()
	s.trades.countErr = errors.New("rpc down")

	_, err := s.svc.GetTradeHistory(context.Background(), testUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch trade count")
}

func TestGetSwapHistory(t *testing.T) {
	s := newTestSetup()
	s.swaps.swaps = []chain.Swap{
		{FiatAmount: big.NewInt(100), FiatCurrency: "USD", Completed: true},
		{FiatAmount: big.NewInt(50), FiatCurrency: "EUR", Cancelled: true},
		{FiatAmount: big.NewInt(25), FiatCurrency: "GBP"},
	}

	got, err := s.svc.GetSwapHistory(context.Background(), testUser)
	require.NoError(t, err)
	assert.Contains(t, got, "Found 3 swap(s)")
	assert.Contains(t, got, "100 USD to KAIA - completed")
	assert.Contains(t, got, "50 EUR to KAIA - cancelled")
	assert.Contains(t, got, "25 GBP to KAIA - pending")
}

func TestGetSwapHistoryEmpty(t *testing.T) {
	s := newTestSetup()

	got, err := s.svc.GetSwapHistory(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "No swaps found for "+testUser+".", got)
}

func TestGetDemoBalance(t *testing.T) {
	s := newTestSetup()
	s.demo.balance = big.NewInt(10000)

	got, err := s.svc.GetDemoBalance(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "Demo balance for "+testUser+": 10000", got)
}

func TestGetFiatRate(t *testing.T) {
	s := newTestSetup()
	s.swaps.rate = big.NewInt(1350)

	got, err := s.svc.GetFiatRate(context.Background(), "usd")
	require.NoError(t, err)
	assert.Equal(t, "Fiat rate for USD: 1350", got)
}

func TestGetFiatRateInvalidCurrency(t *testing.T) {
	s := newTestSetup()
	_, err := s.svc.GetFiatRate(context.Background(), "12")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestCancelFiatSwap(t *testing.T) {
	s := newTestSetup()

	got, err := s.svc.CancelFiatSwap(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "Swap cancelled for "+testUser, got)
	assert.True(t, s.swaps.cancelled)
}

func TestSimulateDemoTrade(t *testing.T) {
	s := newTestSetup()

	got, err := s.svc.SimulateDemoTrade(context.Background(), testToken, testUser, 100, 95, -5)
	require.NoError(t, err)
	assert.True(t, s.demo.simulated)
	assert.Contains(t, got, "100 "+testToken)
	assert.Contains(t, got, "(P/L: -5)")
}

func TestSimulateDemoTradeInvalidAmounts(t *testing.T) {
	s := newTestSetup()

	_, err := s.svc.SimulateDemoTrade(context.Background(), testToken, testUser, 0, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.svc.SimulateDemoTrade(context.Background(), testToken, testUser, 10, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAddressArgumentsAreNormalized(t *testing.T) {
	s := newTestSetup()
	s.demo.balance = big.NewInt(42)

	inputs := []string{
		"  " + testUser + "  ",
		strings.ToUpper(testUser),
		strings.TrimPrefix(testUser, "0x"),
	}
	for _, in := range inputs {
		got, err := s.svc.GetDemoBalance(context.Background(), in)
		require.NoError(t, err, "input %q", in)
		assert.Contains(t, got, ": 42")
	}
}

func TestFormatBasisPoints(t *testing.T) {
	tests := []struct {
		bp   int64
		want string
	}{
		{550, "5.5"},
		{700, "7"},
		{425, "4.25"},
		{0, "0"},
		{10000, "100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBasisPoints(big.NewInt(tt.bp)), "bp %d", tt.bp)
	}
}
