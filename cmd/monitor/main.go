package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/kuruswap-bot/backend/internal/chain"
	"github.com/kuruswap-bot/backend/internal/config"
	"github.com/kuruswap-bot/backend/internal/db"
	"github.com/kuruswap-bot/backend/internal/events"
	"github.com/kuruswap-bot/backend/internal/models"
	"github.com/kuruswap-bot/backend/internal/repositories"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Confirmation monitor: the API only ever writes transaction records as
// pending; this process polls receipts and owns the transitions to
// confirmed/failed, announcing each flip on the event stream.

const (
	redisAnnounced = "monitor:announced:"
	announcedTTL   = 7 * 24 * time.Hour
	pendingBatch   = 100
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	chainClient, err := chain.Dial(ctx, chain.Config{
		RPCURL:  cfg.RPCURL,
		ChainID: cfg.ChainID,
		Timeout: cfg.RPCTimeout,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to chain rpc", zap.Error(err))
	}
	defer chainClient.Close()

	txRepo := repositories.NewTransactionRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)

	mon := &monitor{
		chain:     chainClient,
		txs:       txRepo,
		publisher: publisher,
		rdb:       rdb,
		cfg:       cfg,
		log:       log,
	}

	log.Info("confirmation monitor started",
		zap.Duration("interval", cfg.MonitorInterval),
		zap.Duration("pending_deadline", cfg.PendingDeadline),
	)

	ticker := time.NewTicker(cfg.MonitorInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := mon.poll(ctx); err != nil {
				log.Error("poll cycle failed", zap.Error(err))
			}
		case <-sigCh:
			log.Info("shutting down confirmation monitor")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

type monitor struct {
	chain     *chain.Client
	txs       *repositories.TransactionRepo
	publisher events.Publisher
	rdb       *redis.Client
	cfg       *config.Config
	log       *zap.Logger
}

// poll runs a single cycle: fetch the receipt for each pending record and
// settle its status. A missing receipt leaves the record pending unless it
// has outlived the deadline, in which case it is written off as failed.
func (m *monitor) poll(ctx context.Context) error {
	pending, err := m.txs.ListPending(ctx, pendingBatch)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	for _, rec := range pending {
		receipt, err := m.chain.Receipt(ctx, common.HexToHash(rec.TxHash))
		if err != nil {
			m.log.Warn("receipt lookup failed",
				zap.String("tx_hash", rec.TxHash),
				zap.Error(err),
			)
			continue
		}

		switch {
		case receipt == nil:
			if time.Since(rec.CreatedAt) > m.cfg.PendingDeadline {
				m.settle(ctx, rec, models.TxStatusFailed, "timeout")
			}
		case receipt.Status == types.ReceiptStatusSuccessful:
			m.settle(ctx, rec, models.TxStatusConfirmed, "")
		default:
			m.settle(ctx, rec, models.TxStatusFailed, "reverted")
		}
	}

	return nil
}

// settle flips the record's status and announces the flip exactly once; a
// Redis key guards the announcement across restarts.
func (m *monitor) settle(ctx context.Context, rec models.PendingTransaction, status, reason string) {
	if err := m.txs.UpdateStatus(ctx, rec.ID, status); err != nil {
		m.log.Error("failed to update transaction status",
			zap.String("tx_hash", rec.TxHash),
			zap.String("status", status),
			zap.Error(err),
		)
		return
	}

	key := redisAnnounced + rec.TxHash + ":" + status
	ok, err := m.rdb.SetNX(ctx, key, "1", announcedTTL).Result()
	if err == nil && !ok {
		return // already announced before a restart
	}

	eventType := events.EventSwapConfirmed
	if status == models.TxStatusFailed {
		eventType = events.EventSwapFailed
	}

	payload := map[string]any{
		"user_id":       rec.UserID,
		"wallet_id":     rec.WalletID.String(),
		"tx_hash":       rec.TxHash,
		"token_address": rec.TokenAddress,
		"amount":        formatWei(rec.Amount),
		"status":        status,
		"explorer_url":  m.cfg.ExplorerTxURL + rec.TxHash,
	}
	if reason != "" {
		payload["reason"] = reason
	}

	if err := m.publisher.Publish(ctx, events.StreamSwaps, events.Event{
		Type:    eventType,
		Payload: payload,
	}); err != nil {
		m.log.Error("failed to publish settlement event",
			zap.String("tx_hash", rec.TxHash),
			zap.Error(err),
		)
	}

	m.log.Info("transaction settled",
		zap.String("tx_hash", rec.TxHash),
		zap.String("status", status),
		zap.String("reason", reason),
		zap.Int64("user_id", rec.UserID),
	)
}

// formatWei renders a stored wei amount as whole native units for
// human-facing notifications.
func formatWei(amount string) string {
	wei, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return amount
	}
	return chain.FormatAmount(wei, 18)
}
