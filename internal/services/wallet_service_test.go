package services

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/kuruswap-bot/backend/internal/events"
	"github.com/kuruswap-bot/backend/internal/keystore"
	"github.com/kuruswap-bot/backend/internal/repositories"
	"go.uber.org/zap"
)

type walletFixture struct {
	svc     *WalletService
	ks      *keystore.Keystore
	wallets *fakeWalletStore
	audit   *fakeAudit
	chain   *fakeChain
	pub     *fakePublisher
}

func newWalletFixture(t *testing.T) *walletFixture {
	t.Helper()

	f := &walletFixture{
		ks:      testKeystore(t),
		wallets: newFakeWalletStore(),
		audit:   &fakeAudit{},
		chain:   newFakeChain(mon(10)),
		pub:     &fakePublisher{},
	}
	f.svc = NewWalletService(f.wallets, f.audit, f.chain, f.ks, f.pub, testConfig(), zap.NewNop())
	return f
}

func TestCreateWallet_FirstBecomesActive(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateWallet(ctx, testUserID, "Main Wallet")
	if err != nil {
		t.Fatalf("create first wallet: %v", err)
	}
	if !first.IsActive {
		t.Error("first wallet must be active")
	}

	second, err := f.svc.CreateWallet(ctx, testUserID, "Trading")
	if err != nil {
		t.Fatalf("create second wallet: %v", err)
	}
	if second.IsActive {
		t.Error("second wallet must not steal the active flag")
	}

	active, err := f.svc.GetActiveWallet(ctx, testUserID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != first.ID {
		t.Errorf("active wallet = %s, want first wallet %s", active.ID, first.ID)
	}
	if f.wallets.activeCount(testUserID) != 1 {
		t.Error("exactly one wallet may be active per user")
	}
}

func TestCreateWallet_KeySealedAtRest(t *testing.T) {
	f := newWalletFixture(t)

	wallet, err := f.svc.CreateWallet(context.Background(), testUserID, "Main Wallet")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	if keystore.IsLegacy(wallet.KeyNonce) {
		t.Fatal("new wallets must be sealed, not stored in the legacy layout")
	}

	privHex, err := f.ks.Open(wallet.KeyCiphertext, wallet.KeyNonce)
	if err != nil {
		t.Fatalf("open sealed key: %v", err)
	}
	if !strings.HasPrefix(privHex, "0x") || len(privHex) != 66 {
		t.Fatalf("stored key has unexpected shape (len %d)", len(privHex))
	}

	// Stored ciphertext must not leak the plaintext key.
	if strings.Contains(string(wallet.KeyCiphertext), privHex[2:]) {
		t.Error("ciphertext contains the plaintext key")
	}

	// The sealed key must control the advertised address.
	parsed, err := crypto.HexToECDSA(privHex[2:])
	if err != nil {
		t.Fatalf("parse unsealed key: %v", err)
	}
	if got := crypto.PubkeyToAddress(parsed.PublicKey).Hex(); got != wallet.Address {
		t.Errorf("unsealed key derives %s, wallet claims %s", got, wallet.Address)
	}
}

func TestCreateWallet_LabelValidation(t *testing.T) {
	tests := []struct {
		name  string
		label string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", strings.Repeat("x", 51)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWalletFixture(t)

			_, err := f.svc.CreateWallet(context.Background(), testUserID, tt.label)
			if !errors.Is(err, ErrInvalidLabel) {
				t.Fatalf("expected ErrInvalidLabel, got %v", err)
			}
			if len(f.wallets.wallets) != 0 {
				t.Error("rejected label must not create a wallet")
			}
		})
	}
}

func TestCreateWallet_LabelTrimmed(t *testing.T) {
	f := newWalletFixture(t)

	wallet, err := f.svc.CreateWallet(context.Background(), testUserID, "  Main Wallet  ")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if wallet.Label != "Main Wallet" {
		t.Errorf("label = %q, want trimmed", wallet.Label)
	}
}

func TestImportWallet_RederivesAddress(t *testing.T) {
	f := newWalletFixture(t)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	privHex := "0x" + hex.EncodeToString(crypto.FromECDSA(key))
	want := crypto.PubkeyToAddress(key.PublicKey).Hex()

	wallet, err := f.svc.ImportWallet(context.Background(), testUserID, "Imported", privHex)
	if err != nil {
		t.Fatalf("import wallet: %v", err)
	}
	if wallet.Address != want {
		t.Errorf("address = %s, want %s (derived from the key, never caller-supplied)", wallet.Address, want)
	}
	if !wallet.IsActive {
		t.Error("first wallet must be active even when imported")
	}

	// Surrounding whitespace in the pasted key is tolerated.
	f2 := newWalletFixture(t)
	if _, err := f2.svc.ImportWallet(context.Background(), testUserID, "Imported", "  "+privHex+"\n"); err != nil {
		t.Errorf("padded key should import cleanly: %v", err)
	}
}

func TestImportWallet_InvalidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"missing prefix", strings.Repeat("ab", 32)},
		{"too short", "0x" + strings.Repeat("ab", 31)},
		{"too long", "0x" + strings.Repeat("ab", 33)},
		{"not hex", "0x" + strings.Repeat("zz", 32)},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWalletFixture(t)

			_, err := f.svc.ImportWallet(context.Background(), testUserID, "Imported", tt.key)
			if !errors.Is(err, ErrInvalidPrivateKey) {
				t.Fatalf("expected ErrInvalidPrivateKey, got %v", err)
			}
			if len(f.wallets.wallets) != 0 {
				t.Error("rejected key must leave the store untouched")
			}
			if len(f.audit.entries) != 0 {
				t.Error("rejected key must not be audited")
			}
		})
	}
}

func TestSetActiveWallet_Switches(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()

	first, _ := f.svc.CreateWallet(ctx, testUserID, "Main Wallet")
	second, _ := f.svc.CreateWallet(ctx, testUserID, "Trading")

	switched, err := f.svc.SetActiveWallet(ctx, testUserID, second.ID)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if !switched.IsActive {
		t.Error("switched wallet must report active")
	}

	active, err := f.svc.GetActiveWallet(ctx, testUserID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("active = %s, want %s", active.ID, second.ID)
	}
	if f.wallets.activeCount(testUserID) != 1 {
		t.Error("switch must leave exactly one active wallet")
	}
	_ = first
}

func TestSetActiveWallet_OwnershipEnforced(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()

	wallet, _ := f.svc.CreateWallet(ctx, testUserID, "Main Wallet")

	_, err := f.svc.SetActiveWallet(ctx, testUserID+1, wallet.ID)
	if !errors.Is(err, repositories.ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got %v", err)
	}

	_, err = f.svc.SetActiveWallet(ctx, testUserID, uuid.New())
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWalletEvents_NeverCarryKeyMaterial(t *testing.T) {
	f := newWalletFixture(t)

	wallet, err := f.svc.CreateWallet(context.Background(), testUserID, "Main Wallet")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	privHex, err := f.ks.Open(wallet.KeyCiphertext, wallet.KeyNonce)
	if err != nil {
		t.Fatalf("open sealed key: %v", err)
	}

	created := f.pub.byType(events.EventWalletCreated)
	if len(created) != 1 {
		t.Fatalf("expected one wallet_created event, got %d", len(created))
	}
	for k, v := range created[0].Payload {
		s, ok := v.(string)
		if ok && strings.Contains(s, privHex[2:]) {
			t.Errorf("event payload field %q leaks key material", k)
		}
	}
	if len(f.audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(f.audit.entries))
	}
	if meta, ok := f.audit.entries[0].Meta.(map[string]any); ok {
		for k, v := range meta {
			if s, ok := v.(string); ok && strings.Contains(s, privHex[2:]) {
				t.Errorf("audit meta field %q leaks key material", k)
			}
		}
	}
}

func TestActiveBalance(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateWallet(ctx, testUserID, "Main Wallet"); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	f.chain.balance = new(big.Int).Mul(big.NewInt(15), big.NewInt(1e17)) // 1.5 MON

	balances, err := f.svc.ActiveBalance(ctx, testUserID, "")
	if err != nil {
		t.Fatalf("active balance: %v", err)
	}
	if balances.Native != "1.5" {
		t.Errorf("native = %q, want 1.5", balances.Native)
	}
	if balances.NativeWei != "1500000000000000000" {
		t.Errorf("native wei = %q", balances.NativeWei)
	}
	if balances.TokenSymbol != "" {
		t.Errorf("no token requested, got symbol %q", balances.TokenSymbol)
	}

	withToken, err := f.svc.ActiveBalance(ctx, testUserID, testToken.Hex())
	if err != nil {
		t.Fatalf("active balance with token: %v", err)
	}
	if withToken.TokenSymbol != "TST" {
		t.Errorf("token symbol = %q, want TST", withToken.TokenSymbol)
	}
	if withToken.TokenAddress != testToken.Hex() {
		t.Errorf("token address = %q, want %s", withToken.TokenAddress, testToken.Hex())
	}
}

func TestActiveBalance_NoActiveWallet(t *testing.T) {
	f := newWalletFixture(t)

	_, err := f.svc.ActiveBalance(context.Background(), testUserID, "")
	if !errors.Is(err, repositories.ErrNoActiveWallet) {
		t.Fatalf("expected ErrNoActiveWallet, got %v", err)
	}
}
