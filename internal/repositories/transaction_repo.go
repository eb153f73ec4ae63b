package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kuruswap-bot/backend/internal/models"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Append records a submitted transaction. History is append-only: the API
// never updates rows here, only the confirmation monitor flips status.
func (r *TransactionRepo) Append(ctx context.Context, t *models.Transaction) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO transactions (wallet_id, tx_hash, tx_type, amount, token_address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, t.WalletID, t.TxHash, t.TxType, t.Amount, t.TokenAddress, t.Status).Scan(&t.ID, &t.CreatedAt)
}

func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, wallet_id, tx_hash, tx_type, amount, token_address, status, created_at
		FROM transactions WHERE wallet_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *TransactionRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.wallet_id, t.tx_hash, t.tx_type, t.amount, t.token_address, t.status, t.created_at
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListPending returns the oldest pending transactions joined with wallet
// ownership so the monitor can address notifications.
func (r *TransactionRepo) ListPending(ctx context.Context, limit int) ([]models.PendingTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.wallet_id, t.tx_hash, t.tx_type, t.amount, t.token_address, t.status, t.created_at,
		       w.user_id, w.address
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE t.status = 'pending'
		ORDER BY t.created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []models.PendingTransaction
	for rows.Next() {
		var p models.PendingTransaction
		if err := rows.Scan(
			&p.ID, &p.WalletID, &p.TxHash, &p.TxType, &p.Amount, &p.TokenAddress, &p.Status, &p.CreatedAt,
			&p.UserID, &p.WalletAddress,
		); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, status, id)
	return err
}

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.TxHash, &t.TxType, &t.Amount, &t.TokenAddress, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
