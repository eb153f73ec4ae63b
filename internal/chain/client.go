// Package chain is the single adapter the rest of the backend uses to talk
// to the EVM network: balances, token metadata, gas and nonce lookups,
// read-only contract calls and raw transaction submission.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/kuruswap-bot/backend/internal/metrics"
	"go.uber.org/zap"
)

var (
	// ErrUnreachable is returned when the RPC endpoint cannot be reached
	// (transport failure or timeout, as opposed to a node-side rejection).
	ErrUnreachable = errors.New("chain rpc unreachable")
	// ErrInvalidToken is returned when an address does not expose the
	// expected ERC20 read interface.
	ErrInvalidToken = errors.New("address is not an erc20 token")
	// ErrSubmission is returned when the node rejects a signed transaction.
	ErrSubmission = errors.New("transaction rejected by network")
)

// NativeAsset is the zero-address sentinel the router uses for the chain's
// base currency.
var NativeAsset common.Address

type Config struct {
	RPCURL  string
	ChainID int64
	Timeout time.Duration
}

type TokenMetadata struct {
	Address  common.Address `json:"address"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// Client holds one long-lived RPC connection. Reconnection after transport
// failures happens internally; callers never re-dial.
type Client struct {
	cfg     Config
	log     *zap.Logger
	chainID *big.Int

	mu  sync.RWMutex
	rpc *gethrpc.Client
	eth *ethclient.Client
}

// Dial connects to the configured endpoint and verifies the remote chain id
// matches the configured one.
func Dial(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	rpcClient, err := gethrpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	c := &Client{
		cfg: cfg,
		log: log,
		rpc: rpcClient,
		eth: ethclient.NewClient(rpcClient),
	}

	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	remote, err := c.eth.ChainID(opCtx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	if cfg.ChainID != 0 && remote.Int64() != cfg.ChainID {
		c.Close()
		return nil, fmt.Errorf("chain id mismatch: rpc reports %d, config expects %d", remote.Int64(), cfg.ChainID)
	}
	c.chainID = remote

	log.Info("chain client connected", zap.Int64("chain_id", remote.Int64()))
	return c, nil
}

// ChainID returns the verified chain id, used to pick the transaction signer.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// IsReachable probes the endpoint. A failed probe triggers one redial before
// reporting unreachable.
func (c *Client) IsReachable(ctx context.Context) bool {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	if _, err := c.client().ChainID(opCtx); err == nil {
		return true
	}
	if err := c.reconnect(ctx); err != nil {
		return false
	}
	_, err := c.client().ChainID(opCtx)
	return err == nil
}

func (c *Client) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	balance, err := c.client().BalanceAt(opCtx, addr, nil)
	if err != nil {
		return nil, c.wrapRPC("native balance", err)
	}
	return balance, nil
}

// TokenMetadata reads name/symbol/decimals from an ERC20 contract. Addresses
// without code, or contracts that do not answer the standard read methods,
// fail with ErrInvalidToken.
func (c *Client) TokenMetadata(ctx context.Context, token common.Address) (*TokenMetadata, error) {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	code, err := c.client().CodeAt(opCtx, token, nil)
	if err != nil {
		return nil, c.wrapRPC("token code", err)
	}
	if len(code) == 0 {
		return nil, ErrInvalidToken
	}

	name, err := c.callString(opCtx, token, "name")
	if err != nil {
		return nil, err
	}
	symbol, err := c.callString(opCtx, token, "symbol")
	if err != nil {
		return nil, err
	}

	out, err := c.callERC20(opCtx, token, "decimals")
	if err != nil {
		return nil, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &TokenMetadata{Address: token, Name: name, Symbol: symbol, Decimals: decimals}, nil
}

func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	out, err := c.callERC20(opCtx, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, ErrInvalidToken
	}
	return balance, nil
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	price, err := c.client().SuggestGasPrice(opCtx)
	if err != nil {
		return nil, c.wrapRPC("gas price", err)
	}
	return price, nil
}

func (c *Client) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	nonce, err := c.client().PendingNonceAt(opCtx, addr)
	if err != nil {
		return 0, c.wrapRPC("pending nonce", err)
	}
	return nonce, nil
}

// CallView performs a read-only contract call with pre-packed calldata.
func (c *Client) CallView(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	out, err := c.client().CallContract(opCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, c.wrapRPC("call view", err)
	}
	return out, nil
}

// SendSigned submits a signed transaction. A node-side rejection surfaces as
// ErrSubmission, a transport failure as ErrUnreachable.
func (c *Client) SendSigned(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	if err := c.client().SendTransaction(opCtx, tx); err != nil {
		var rpcErr gethrpc.Error
		if errors.As(err, &rpcErr) {
			return common.Hash{}, fmt.Errorf("send transaction: %w: %v", ErrSubmission, err)
		}
		metrics.RPCErrorsTotal.Inc()
		return common.Hash{}, fmt.Errorf("send transaction: %w: %v", ErrUnreachable, err)
	}
	return tx.Hash(), nil
}

// Receipt returns the receipt for a transaction, or (nil, nil) while the
// transaction is still pending.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	receipt, err := c.client().TransactionReceipt(opCtx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, c.wrapRPC("transaction receipt", err)
	}
	return receipt, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rpc != nil {
		c.rpc.Close()
		c.rpc = nil
		c.eth = nil
	}
}

func (c *Client) client() *ethclient.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.eth
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rpcClient, err := gethrpc.DialContext(ctx, c.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("redial rpc: %w", err)
	}
	if c.rpc != nil {
		c.rpc.Close()
	}
	c.rpc = rpcClient
	c.eth = ethclient.NewClient(rpcClient)
	c.log.Info("chain rpc reconnected")
	return nil
}

func (c *Client) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// wrapRPC distinguishes node-side call errors (the node replied, e.g. a
// revert) from transport failures, which map to ErrUnreachable.
func (c *Client) wrapRPC(op string, err error) error {
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RPCErrorsTotal.Inc()
	return fmt.Errorf("%s: %w: %v", op, ErrUnreachable, err)
}

func (c *Client) callString(ctx context.Context, token common.Address, method string) (string, error) {
	out, err := c.callERC20(ctx, token, method)
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", ErrInvalidToken
	}
	return s, nil
}

func (c *Client) callERC20(ctx context.Context, token common.Address, method string, args ...any) ([]any, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	ret, err := c.client().CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, c.wrapRPC("erc20 "+method, err)
	}
	if len(ret) == 0 {
		return nil, ErrInvalidToken
	}

	out, err := erc20ABI.Unpack(method, ret)
	if err != nil || len(out) == 0 {
		return nil, ErrInvalidToken
	}
	return out, nil
}
