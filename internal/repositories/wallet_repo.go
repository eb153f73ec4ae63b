package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kuruswap-bot/backend/internal/models"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create stores a wallet. The first wallet a user creates becomes active and
// the user's active-wallet pointer is set in the same transaction. The user
// row is locked for the duration so concurrent creates and switches by the
// same user serialize.
func (r *WalletRepo) Create(ctx context.Context, w *models.Wallet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockUser(ctx, tx, w.UserID); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO wallets (user_id, label, address, key_ciphertext, key_nonce, is_active)
		VALUES ($1, $2, $3, $4, $5, NOT EXISTS (SELECT 1 FROM wallets WHERE user_id = $1))
		RETURNING id, is_active, created_at
	`, w.UserID, w.Label, w.Address, w.KeyCiphertext, w.KeyNonce).Scan(&w.ID, &w.IsActive, &w.CreatedAt)
	if err != nil {
		return err
	}

	if w.IsActive {
		if _, err := tx.Exec(ctx, `UPDATE users SET active_wallet_id = $1 WHERE id = $2`, w.ID, w.UserID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// SetActive switches the user's active wallet: clears the previous flag, sets
// the new one and repoints users.active_wallet_id, all in one transaction.
func (r *WalletRepo) SetActive(ctx context.Context, userID int64, walletID uuid.UUID) (*models.Wallet, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	var w models.Wallet
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, label, address, is_active, created_at
		FROM wallets WHERE id = $1
	`, walletID).Scan(&w.ID, &w.UserID, &w.Label, &w.Address, &w.IsActive, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, ErrNotOwned
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET is_active = false WHERE user_id = $1 AND is_active`, userID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE wallets SET is_active = true WHERE id = $1`, walletID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET active_wallet_id = $1 WHERE id = $2`, walletID, userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	w.IsActive = true
	return &w, nil
}

// GetActive resolves the user's active wallet through the pointer on the user
// row. Key material is included: this is the lookup the signer uses.
func (r *WalletRepo) GetActive(ctx context.Context, userID int64) (*models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx, `
		SELECT w.id, w.user_id, w.label, w.address, w.key_ciphertext, w.key_nonce, w.is_active, w.created_at
		FROM wallets w
		JOIN users u ON u.active_wallet_id = w.id
		WHERE u.id = $1
	`, userID).Scan(&w.ID, &w.UserID, &w.Label, &w.Address, &w.KeyCiphertext, &w.KeyNonce, &w.IsActive, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveWallet
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByID returns a wallet without its key material.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, label, address, is_active, created_at
		FROM wallets WHERE id = $1
	`, id).Scan(&w.ID, &w.UserID, &w.Label, &w.Address, &w.IsActive, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListByUser returns the user's wallets in creation order, without key
// material.
func (r *WalletRepo) ListByUser(ctx context.Context, userID int64) ([]models.Wallet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, label, address, is_active, created_at
		FROM wallets WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Label, &w.Address, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// UpdateKeyMaterial replaces a wallet's sealed key, used to re-encrypt rows
// migrated from the legacy plaintext layout.
func (r *WalletRepo) UpdateKeyMaterial(ctx context.Context, id uuid.UUID, ciphertext, nonce []byte) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE wallets SET key_ciphertext = $1, key_nonce = $2 WHERE id = $3
	`, ciphertext, nonce, id)
	return err
}

func lockUser(ctx context.Context, tx pgx.Tx, userID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
