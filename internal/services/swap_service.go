package services

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kuruswap-bot/backend/internal/chain"
	"github.com/kuruswap-bot/backend/internal/config"
	"github.com/kuruswap-bot/backend/internal/events"
	"github.com/kuruswap-bot/backend/internal/keystore"
	"github.com/kuruswap-bot/backend/internal/kuru"
	"github.com/kuruswap-bot/backend/internal/metrics"
	"github.com/kuruswap-bot/backend/internal/models"
	"go.uber.org/zap"
)

// ChainBackend is the slice of chain.Client the services depend on.
type ChainBackend interface {
	ChainID() *big.Int
	NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	TokenMetadata(ctx context.Context, token common.Address) (*chain.TokenMetadata, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
	SendSigned(ctx context.Context, tx *types.Transaction) (common.Hash, error)
}

// PoolResolver locates the tradeable pool for a token pair.
type PoolResolver interface {
	FindPool(ctx context.Context, base, quote common.Address) (common.Address, error)
}

// RateQuoter obtains the expected exchange rate for a pool.
type RateQuoter interface {
	ExpectedRate(ctx context.Context, pool common.Address, isBuy bool) (*big.Int, error)
}

// TransactionStore is the slice of the transaction repository the swap path
// uses. *repositories.TransactionRepo implements it.
type TransactionStore interface {
	Append(ctx context.Context, t *models.Transaction) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error)
}

// nativeDecimals is the precision of the chain's base currency.
const nativeDecimals = 18

// SwapQuote is the preview shown before the user confirms a swap. It is
// valid for a single attempt: the executing swap re-resolves and re-quotes.
type SwapQuote struct {
	Pool        common.Address
	Token       *chain.TokenMetadata
	AmountWei   *big.Int
	Rate        *big.Int
	ExpectedOut *big.Int
	MinOut      *big.Int
	SlippageBPS int64
}

// SwapResult is returned once a swap transaction has been accepted by the
// network. Confirmation happens asynchronously.
type SwapResult struct {
	TxHash      string
	ExplorerURL string
	Pool        common.Address
	AmountWei   *big.Int
	MinOut      *big.Int
}

// SwapService orchestrates a swap of the native asset into a token: pool
// discovery, quote, safety bound, transaction construction, signing,
// submission and bookkeeping. Each step is a hard dependency on the previous
// one; the first failure aborts the whole operation.
type SwapService struct {
	wallets   WalletStore
	txs       TransactionStore
	audit     AuditStore
	chain     ChainBackend
	resolver  PoolResolver
	quoter    RateQuoter
	keys      *keystore.Keystore
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger

	router common.Address

	// Per-wallet submission locks: concurrent swaps from one wallet would
	// fetch the same nonce and collide at the node, so same-wallet
	// submissions serialize here. Different wallets proceed in parallel.
	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

func NewSwapService(
	wallets WalletStore,
	txs TransactionStore,
	audit AuditStore,
	chainClient ChainBackend,
	resolver PoolResolver,
	quoter RateQuoter,
	keys *keystore.Keystore,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *SwapService {
	return &SwapService{
		wallets:   wallets,
		txs:       txs,
		audit:     audit,
		chain:     chainClient,
		resolver:  resolver,
		quoter:    quoter,
		keys:      keys,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		router:    common.HexToAddress(cfg.RouterAddress),
		locks:     make(map[common.Address]*sync.Mutex),
	}
}

// QuoteSwap runs the read-only half of a swap (validation, balance check,
// pool resolution, rate, minimum output) so the front end can show a
// confirmation prompt. Nothing is cached: the execution re-fetches it all.
func (s *SwapService) QuoteSwap(ctx context.Context, userID int64, tokenAddress, amountText string) (*SwapQuote, error) {
	token, amountWei, err := s.validateSwapInput(tokenAddress, amountText)
	if err != nil {
		return nil, err
	}

	wallet, err := s.wallets.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress(wallet.Address)
	if err != nil {
		return nil, err
	}

	if err := s.checkBalance(ctx, owner, amountWei); err != nil {
		return nil, err
	}

	meta, err := s.chain.TokenMetadata(ctx, token)
	if err != nil {
		return nil, err
	}

	pool, rate, err := s.resolveAndQuote(ctx, token)
	if err != nil {
		return nil, err
	}

	return &SwapQuote{
		Pool:        pool,
		Token:       meta,
		AmountWei:   amountWei,
		Rate:        rate,
		ExpectedOut: kuru.ExpectedOutput(amountWei, rate),
		MinOut:      kuru.MinOutput(amountWei, rate, s.cfg.SlippageBPS),
		SlippageBPS: s.cfg.SlippageBPS,
	}, nil
}

// ExecuteSwap swaps amountText of the native asset into tokenAddress from
// the user's active wallet and records the submitted transaction as pending.
func (s *SwapService) ExecuteSwap(ctx context.Context, userID int64, tokenAddress, amountText string) (*SwapResult, error) {
	token, amountWei, err := s.validateSwapInput(tokenAddress, amountText)
	if err != nil {
		return nil, err
	}

	wallet, err := s.wallets.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress(wallet.Address)
	if err != nil {
		return nil, err
	}

	// Balance gate before any chain write.
	if err := s.checkBalance(ctx, owner, amountWei); err != nil {
		metrics.SwapsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// Same-wallet submissions serialize from here to the node handoff.
	unlock := s.lockWallet(owner)
	defer unlock()

	pool, rate, err := s.resolveAndQuote(ctx, token)
	if err != nil {
		metrics.SwapsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	minOut := kuru.MinOutput(amountWei, rate, s.cfg.SlippageBPS)

	signed, err := s.buildAndSign(ctx, wallet, owner, pool, token, amountWei, minOut)
	if err != nil {
		metrics.SwapsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	hash, err := s.chain.SendSigned(ctx, signed)
	if err != nil {
		metrics.SwapsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.SwapsTotal.WithLabelValues("submitted").Inc()
	if f, _ := new(big.Float).SetInt(amountWei).Float64(); f > 0 {
		metrics.SwapAmountWei.Observe(f)
	}

	result := &SwapResult{
		TxHash:      hash.Hex(),
		ExplorerURL: s.cfg.ExplorerTxURL + hash.Hex(),
		Pool:        pool,
		AmountWei:   amountWei,
		MinOut:      minOut,
	}

	// The swap is on the network now: bookkeeping failures are logged, not
	// surfaced as a swap failure.
	s.recordSubmission(ctx, userID, wallet, token, amountWei, result)

	s.log.Info("swap submitted",
		zap.Int64("user_id", userID),
		zap.String("wallet", wallet.Address),
		zap.String("token", token.Hex()),
		zap.String("amount_wei", amountWei.String()),
		zap.String("min_out", minOut.String()),
		zap.String("tx_hash", result.TxHash),
	)

	return result, nil
}

// History returns the user's recorded transactions, newest first.
func (s *SwapService) History(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error) {
	return s.txs.ListByUser(ctx, userID, limit, offset)
}

// validateSwapInput checks the untrusted token address and amount strings.
func (s *SwapService) validateSwapInput(tokenAddress, amountText string) (common.Address, *big.Int, error) {
	token, err := parseAddress(tokenAddress)
	if err != nil {
		return common.Address{}, nil, err
	}
	if token == chain.NativeAsset {
		return common.Address{}, nil, fmt.Errorf("%w: cannot swap the native asset into itself", ErrInvalidAddress)
	}

	amountWei, err := chain.ParseAmount(amountText, nativeDecimals)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if amountWei.Sign() <= 0 {
		return common.Address{}, nil, ErrInvalidAmount
	}
	return token, amountWei, nil
}

func (s *SwapService) checkBalance(ctx context.Context, owner common.Address, amountWei *big.Int) error {
	balance, err := s.chain.NativeBalance(ctx, owner)
	if err != nil {
		return err
	}
	if amountWei.Cmp(balance) > 0 {
		return fmt.Errorf("%w: have %s wei, want %s wei", ErrInsufficientBalance, balance, amountWei)
	}
	return nil
}

// resolveAndQuote finds the pool for native -> token and quotes it in the
// sell direction. The quote is never reused across attempts.
func (s *SwapService) resolveAndQuote(ctx context.Context, token common.Address) (common.Address, *big.Int, error) {
	pool, err := s.resolver.FindPool(ctx, chain.NativeAsset, token)
	if err != nil {
		if errors.Is(err, kuru.ErrNoPool) {
			metrics.PoolLookupsTotal.WithLabelValues("none").Inc()
		} else {
			metrics.PoolLookupsTotal.WithLabelValues("error").Inc()
		}
		return common.Address{}, nil, err
	}
	metrics.PoolLookupsTotal.WithLabelValues("found").Inc()

	start := time.Now()
	rate, err := s.quoter.ExpectedRate(ctx, pool, false)
	metrics.QuoteLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return common.Address{}, nil, err
	}
	return pool, rate, nil
}

// buildAndSign constructs the router call and signs it with the wallet's
// unsealed key. Gas price and nonce are fetched fresh per attempt; the gas
// limit is a fixed constant, no estimation call.
func (s *SwapService) buildAndSign(ctx context.Context, wallet *models.Wallet, owner, pool, token common.Address, amountWei, minOut *big.Int) (*types.Transaction, error) {
	calldata, err := kuru.BuildSwapCalldata(pool, chain.NativeAsset, token, amountWei, minOut)
	if err != nil {
		return nil, fmt.Errorf("build swap calldata: %w", err)
	}

	gasPrice, err := s.chain.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := s.chain.PendingNonce(ctx, owner)
	if err != nil {
		return nil, err
	}

	key, err := s.unsealKey(ctx, wallet)
	if err != nil {
		return nil, err
	}
	derived := crypto.PubkeyToAddress(key.PublicKey)
	if derived != owner {
		return nil, fmt.Errorf("stored key does not match wallet address %s", wallet.Address)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      s.cfg.SwapGasLimit,
		To:       &s.router,
		Value:    amountWei,
		Data:     calldata,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chain.ChainID()), key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// unsealKey opens the wallet's sealed private key. Rows migrated from the
// legacy plaintext layout are resealed on first use.
func (s *SwapService) unsealKey(ctx context.Context, wallet *models.Wallet) (*ecdsa.PrivateKey, error) {
	privHex, err := s.keys.Open(wallet.KeyCiphertext, wallet.KeyNonce)
	if err != nil {
		return nil, err
	}

	if keystore.IsLegacy(wallet.KeyNonce) {
		if ciphertext, nonce, sealErr := s.keys.Seal(privHex); sealErr == nil {
			if upErr := s.wallets.UpdateKeyMaterial(ctx, wallet.ID, ciphertext, nonce); upErr != nil {
				s.log.Warn("failed to reseal legacy wallet key", zap.String("wallet_id", wallet.ID.String()), zap.Error(upErr))
			}
		}
	}

	if !strings.HasPrefix(privHex, "0x") || len(privHex) != 66 {
		return nil, fmt.Errorf("%w: malformed stored key", ErrInvalidPrivateKey)
	}
	parsed, err := crypto.HexToECDSA(privHex[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return parsed, nil
}

func (s *SwapService) recordSubmission(ctx context.Context, userID int64, wallet *models.Wallet, token common.Address, amountWei *big.Int, result *SwapResult) {
	record := &models.Transaction{
		WalletID:     wallet.ID,
		TxHash:       result.TxHash,
		TxType:       models.TxTypeSwap,
		Amount:       amountWei.String(),
		TokenAddress: token.Hex(),
		Status:       models.TxStatusPending,
	}
	if err := s.txs.Append(ctx, record); err != nil {
		s.log.Error("failed to record submitted swap",
			zap.String("tx_hash", result.TxHash),
			zap.Error(err),
		)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		UserID:     &userID,
		ActorType:  "user",
		Action:     models.AuditSwapSubmitted,
		EntityType: "transaction",
		EntityID:   result.TxHash,
		Meta: map[string]any{
			"token":      token.Hex(),
			"amount_wei": amountWei.String(),
			"pool":       result.Pool.Hex(),
		},
	})

	_ = s.publisher.Publish(ctx, events.StreamSwaps, events.Event{
		Type: events.EventSwapSubmitted,
		Payload: map[string]any{
			"user_id":       userID,
			"wallet_id":     wallet.ID.String(),
			"tx_hash":       result.TxHash,
			"token_address": token.Hex(),
			"amount":        chain.FormatAmount(amountWei, nativeDecimals),
			"explorer_url":  result.ExplorerURL,
		},
	})
}

func (s *SwapService) lockWallet(owner common.Address) func() {
	s.mu.Lock()
	l, ok := s.locks[owner]
	if !ok {
		l = &sync.Mutex{}
		s.locks[owner] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// parseAddress validates an untrusted 0x address string.
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}
