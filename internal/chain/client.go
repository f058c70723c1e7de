// Package chain handles all blockchain interactions with the deployed
// YieldAggregator, TradeAnalyzer, FiatSwap, and DemoTrading contracts.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// -----------------------------------------------------------------------------
// Errors - typed errors for programmatic handling
// -----------------------------------------------------------------------------

var (
	ErrInvalidPrivateKey = errors.New("chain: invalid private key")
	ErrInvalidAddress    = errors.New("chain: invalid address")
	ErrRPCConnection     = errors.New("chain: RPC connection failed")
	ErrTransactionFailed = errors.New("chain: transaction failed")
	ErrTimeout           = errors.New("chain: operation timed out")
)

// CallError wraps contract call failures with context
type CallError struct {
	Contract string // Contract name
	Method   string // Method that failed
	TxHash   string // Transaction hash if available
	Err      error  // Underlying error
}

func (e *CallError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("chain: %s.%s failed (tx: %s): %v", e.Contract, e.Method, e.TxHash, e.Err)
	}
	return fmt.Sprintf("chain: %s.%s failed: %v", e.Contract, e.Method, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// -----------------------------------------------------------------------------
// Interfaces
// -----------------------------------------------------------------------------

// EthClient abstracts go-ethereum client for testing
type EthClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	// DefaultGasLimit for contract writes when estimation fails
	DefaultGasLimit = uint64(300000)

	// DefaultConfirmationTimeout for waiting on transactions
	DefaultConfirmationTimeout = 30 * time.Second

	// ConfirmationPollInterval between receipt checks
	ConfirmationPollInterval = 2 * time.Second
)

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Config for creating a new chain client
type Config struct {
	RPCURL     string
	PrivateKey string // Hex string, 0x prefix optional
	ChainID    int64

	YieldAggregator string
	TradeAnalyzer   string
	FiatSwap        string
	DemoTrading     string
}

// Option configures the client
type Option func(*Client)

// WithEthClient sets a custom Ethereum client (useful for testing)
func WithEthClient(client EthClient) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithPollInterval overrides the receipt poll interval (useful for testing)
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// boundContract pairs a deployed address with its parsed ABI
type boundContract struct {
	name    string
	address common.Address
	abi     abi.ABI
}

// Client holds the wallet key and the four contract bindings
type Client struct {
	client       EthClient
	privateKey   *ecdsa.PrivateKey
	address      common.Address
	chainID      *big.Int
	pollInterval time.Duration

	yieldAggregator boundContract
	tradeAnalyzer   boundContract
	fiatSwap        boundContract
	demoTrading     boundContract
}

// New creates a new chain client bound to the configured contracts
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrInvalidPrivateKey)
	}

	c := &Client{
		privateKey:   privateKey,
		address:      crypto.PubkeyToAddress(*publicKey),
		chainID:      big.NewInt(cfg.ChainID),
		pollInterval: ConfirmationPollInterval,
	}

	bindings := []struct {
		name   string
		addr   string
		rawABI string
		target *boundContract
	}{
		{"YieldAggregator", cfg.YieldAggregator, yieldAggregatorABI, &c.yieldAggregator},
		{"TradeAnalyzer", cfg.TradeAnalyzer, tradeAnalyzerABI, &c.tradeAnalyzer},
		{"FiatSwap", cfg.FiatSwap, fiatSwapABI, &c.fiatSwap},
		{"DemoTrading", cfg.DemoTrading, demoTradingABI, &c.demoTrading},
	}
	for _, b := range bindings {
		parsed, err := abi.JSON(strings.NewReader(b.rawABI))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s ABI: %w", b.name, err)
		}
		*b.target = boundContract{name: b.name, address: common.HexToAddress(b.addr), abi: parsed}
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	// Connect to RPC if no client provided
	if c.client == nil {
		client, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRPCConnection, err)
		}
		c.client = client
	}

	return c, nil
}

func validateConfig(cfg Config) error {
	if cfg.RPCURL == "" {
		return fmt.Errorf("%w: RPC URL required", ErrRPCConnection)
	}
	if cfg.PrivateKey == "" {
		return fmt.Errorf("%w: private key required", ErrInvalidPrivateKey)
	}
	key := strings.TrimPrefix(cfg.PrivateKey, "0x")
	if len(key) != 64 {
		return fmt.Errorf("%w: must be 64 hex characters", ErrInvalidPrivateKey)
	}
	if cfg.ChainID == 0 {
		return fmt.Errorf("chain ID required")
	}
	for name, addr := range map[string]string{
		"YieldAggregator": cfg.YieldAggregator,
		"TradeAnalyzer":   cfg.TradeAnalyzer,
		"FiatSwap":        cfg.FiatSwap,
		"DemoTrading":     cfg.DemoTrading,
	} {
		if addr == "" {
			return fmt.Errorf("%w: %s contract address required", ErrInvalidAddress, name)
		}
	}
	return nil
}

// Address returns the wallet's address
func (c *Client) Address() string {
	return c.address.Hex()
}

// Close closes the client connection
func (c *Client) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

// call performs a read-only contract call and unpacks the result
func (c *Client) call(ctx context.Context, bc boundContract, method string, args ...interface{}) ([]interface{}, error) {
	data, err := bc.abi.Pack(method, args...)
	if err != nil {
		return nil, &CallError{Contract: bc.name, Method: method, Err: err}
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &bc.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, &CallError{Contract: bc.name, Method: method, Err: err}
	}

	out, err := bc.abi.Unpack(method, result)
	if err != nil {
		return nil, &CallError{Contract: bc.name, Method: method, Err: err}
	}
	return out, nil
}

// transact builds, signs, and sends a state-changing transaction.
// It returns the transaction hash without waiting for inclusion.
func (c *Client) transact(ctx context.Context, bc boundContract, method string, args ...interface{}) (string, error) {
	data, err := bc.abi.Pack(method, args...)
	if err != nil {
		return "", &CallError{Contract: bc.name, Method: method, Err: err}
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return "", &CallError{Contract: bc.name, Method: method, Err: err}
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", &CallError{Contract: bc.name, Method: method, Err: err}
	}

	gasLimit, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.address,
		To:    &bc.address,
		Value: big.NewInt(0),
		Data:  data,
	})
	if err != nil {
		// Use default if estimation fails
		gasLimit = DefaultGasLimit
	}

	tx := types.NewTransaction(nonce, bc.address, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.privateKey)
	if err != nil {
		return "", &CallError{Contract: bc.name, Method: method, Err: err}
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", &CallError{Contract: bc.name, Method: method, TxHash: signedTx.Hash().Hex(), Err: err}
	}

	return signedTx.Hash().Hex(), nil
}

// waitForReceipt polls until the transaction is mined or the timeout elapses
func (c *Client) waitForReceipt(ctx context.Context, bc boundContract, method, txHash string, timeout time.Duration) error {
	hash := common.HexToHash(txHash)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: waiting for tx %s", ErrTimeout, txHash)
			}
			return ctx.Err()

		case <-ticker.C:
			receipt, err := c.client.TransactionReceipt(ctx, hash)
			if err != nil {
				// Transaction not yet mined, continue waiting
				continue
			}
			if receipt.Status == 0 {
				return &CallError{Contract: bc.name, Method: method, TxHash: txHash, Err: ErrTransactionFailed}
			}
			return nil
		}
	}
}
