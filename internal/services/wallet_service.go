package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/kuruswap-bot/backend/internal/chain"
	"github.com/kuruswap-bot/backend/internal/config"
	"github.com/kuruswap-bot/backend/internal/events"
	"github.com/kuruswap-bot/backend/internal/keystore"
	"github.com/kuruswap-bot/backend/internal/models"
	"go.uber.org/zap"
)

// WalletStore is the slice of the wallet repository the services use.
// *repositories.WalletRepo implements it.
type WalletStore interface {
	Create(ctx context.Context, w *models.Wallet) error
	GetActive(ctx context.Context, userID int64) (*models.Wallet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Wallet, error)
	SetActive(ctx context.Context, userID int64, walletID uuid.UUID) (*models.Wallet, error)
	UpdateKeyMaterial(ctx context.Context, id uuid.UUID, ciphertext, nonce []byte) error
}

// AuditStore records custody and swap actions. *repositories.AuditRepo
// implements it.
type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// Balances is what the front end shows for the active wallet.
type Balances struct {
	Address       string `json:"address"`
	Native        string `json:"native"`         // decimal string in whole MON
	NativeWei     string `json:"native_wei"`     // smallest units
	TokenAddress  string `json:"token_address,omitempty"`
	TokenSymbol   string `json:"token_symbol,omitempty"`
	TokenBalance  string `json:"token_balance,omitempty"`
	TokenDecimals uint8  `json:"token_decimals,omitempty"`
}

// WalletService owns key custody: generating and importing private keys,
// sealing them at rest, and switching the active wallet. Plaintext keys only
// ever exist in local scope here and in the signer.
type WalletService struct {
	wallets   WalletStore
	audit     AuditStore
	chain     ChainBackend
	keys      *keystore.Keystore
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewWalletService(
	wallets WalletStore,
	audit AuditStore,
	chainClient ChainBackend,
	keys *keystore.Keystore,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *WalletService {
	return &WalletService{
		wallets:   wallets,
		audit:     audit,
		chain:     chainClient,
		keys:      keys,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// CreateWallet generates a fresh secp256k1 keypair for the user. The first
// wallet a user creates becomes active automatically (the store handles the
// flag and pointer atomically).
func (s *WalletService) CreateWallet(ctx context.Context, userID int64, label string) (*models.Wallet, error) {
	label, err := normalizeLabel(label)
	if err != nil {
		return nil, err
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	privHex := "0x" + hex.EncodeToString(crypto.FromECDSA(key))

	wallet, err := s.storeWallet(ctx, userID, label, address, privHex)
	if err != nil {
		return nil, err
	}

	s.logWalletEvent(ctx, userID, wallet, models.AuditWalletCreated, events.EventWalletCreated)
	return wallet, nil
}

// ImportWallet stores an externally supplied private key after re-deriving
// its address. A key that fails validation leaves the store untouched.
func (s *WalletService) ImportWallet(ctx context.Context, userID int64, label, privHex string) (*models.Wallet, error) {
	label, err := normalizeLabel(label)
	if err != nil {
		return nil, err
	}

	privHex = strings.TrimSpace(privHex)
	if !strings.HasPrefix(privHex, "0x") || len(privHex) != 66 {
		return nil, fmt.Errorf("%w: expected 0x-prefixed 64 hex characters", ErrInvalidPrivateKey)
	}
	key, err := crypto.HexToECDSA(privHex[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	wallet, err := s.storeWallet(ctx, userID, label, address, privHex)
	if err != nil {
		return nil, err
	}

	s.logWalletEvent(ctx, userID, wallet, models.AuditWalletImported, events.EventWalletImported)
	return wallet, nil
}

// SetActiveWallet switches the user's default wallet. Ownership is checked
// by the store; the switch is atomic.
func (s *WalletService) SetActiveWallet(ctx context.Context, userID int64, walletID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.wallets.SetActive(ctx, userID, walletID)
	if err != nil {
		return nil, err
	}

	s.logWalletEvent(ctx, userID, wallet, models.AuditWalletSwitched, events.EventWalletSwitched)
	return wallet, nil
}

func (s *WalletService) ListWallets(ctx context.Context, userID int64) ([]models.Wallet, error) {
	return s.wallets.ListByUser(ctx, userID)
}

func (s *WalletService) GetActiveWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	return s.wallets.GetActive(ctx, userID)
}

// ActiveBalance reports the active wallet's native balance, plus one token's
// balance when tokenAddress is supplied.
func (s *WalletService) ActiveBalance(ctx context.Context, userID int64, tokenAddress string) (*Balances, error) {
	wallet, err := s.wallets.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	owner, err := parseAddress(wallet.Address)
	if err != nil {
		return nil, err
	}
	native, err := s.chain.NativeBalance(ctx, owner)
	if err != nil {
		return nil, err
	}

	balances := &Balances{
		Address:   wallet.Address,
		Native:    chain.FormatAmount(native, 18),
		NativeWei: native.String(),
	}

	if tokenAddress != "" {
		token, err := parseAddress(tokenAddress)
		if err != nil {
			return nil, err
		}
		meta, err := s.chain.TokenMetadata(ctx, token)
		if err != nil {
			return nil, err
		}
		amount, err := s.chain.TokenBalance(ctx, token, owner)
		if err != nil {
			return nil, err
		}
		balances.TokenAddress = meta.Address.Hex()
		balances.TokenSymbol = meta.Symbol
		balances.TokenDecimals = meta.Decimals
		balances.TokenBalance = chain.FormatAmount(amount, int(meta.Decimals))
	}

	return balances, nil
}

func (s *WalletService) storeWallet(ctx context.Context, userID int64, label, address, privHex string) (*models.Wallet, error) {
	ciphertext, nonce, err := s.keys.Seal(privHex)
	if err != nil {
		return nil, fmt.Errorf("seal wallet key: %w", err)
	}

	wallet := &models.Wallet{
		UserID:        userID,
		Label:         label,
		Address:       address,
		KeyCiphertext: ciphertext,
		KeyNonce:      nonce,
	}
	if err := s.wallets.Create(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *WalletService) logWalletEvent(ctx context.Context, userID int64, wallet *models.Wallet, action, eventType string) {
	_ = s.audit.Log(ctx, models.AuditLog{
		UserID:     &userID,
		ActorType:  "user",
		Action:     action,
		EntityType: "wallet",
		EntityID:   wallet.ID.String(),
		Meta:       map[string]any{"address": wallet.Address, "label": wallet.Label},
	})

	_ = s.publisher.Publish(ctx, events.StreamSwaps, events.Event{
		Type: eventType,
		Payload: map[string]any{
			"user_id":   userID,
			"wallet_id": wallet.ID.String(),
			"address":   wallet.Address,
			"label":     wallet.Label,
			"is_active": wallet.IsActive,
		},
	})

	s.log.Info("wallet event",
		zap.String("action", action),
		zap.Int64("user_id", userID),
		zap.String("address", wallet.Address),
	)
}

func normalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if len(label) < models.WalletLabelMinLen || len(label) > models.WalletLabelMaxLen {
		return "", ErrInvalidLabel
	}
	return label, nil
}
