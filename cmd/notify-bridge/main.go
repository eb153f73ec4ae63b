package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuruswap-bot/backend/internal/config"
	"github.com/kuruswap-bot/backend/internal/db"
	"github.com/kuruswap-bot/backend/internal/events"
	"github.com/kuruswap-bot/backend/internal/services"
	"go.uber.org/zap"
)

// Notify bridge: subscribes to swap events on Redis and forwards them to the
// messaging front end's internal notify endpoint so the bot can message the
// user. Delivery is best-effort; the WS stream and the history endpoint
// remain the source of truth.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	bot := services.NewBotClient(cfg.BotInternalURL, log)

	log.Info("notify bridge started", zap.String("bot_url", cfg.BotInternalURL))

	_ = subscriber.Subscribe(ctx, events.StreamSwaps, func(event events.Event) {
		userID, ok := event.UserID()
		if !ok {
			return
		}
		text := formatEvent(event)
		if text == "" {
			return
		}
		if err := bot.SendNotification(ctx, userID, text); err != nil {
			log.Warn("failed to deliver notification",
				zap.String("type", event.Type),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify bridge")
	cancel()
}

// formatEvent renders the user-facing message for an event. Wallet events
// return empty: those actions are answered synchronously by the API, only
// the asynchronous swap lifecycle needs a push.
func formatEvent(event events.Event) string {
	str := func(key string) string {
		v, _ := event.Payload[key].(string)
		return v
	}

	switch event.Type {
	case events.EventSwapSubmitted:
		return fmt.Sprintf("Swap submitted: %s MON for token %s\n%s",
			str("amount"), str("token_address"), str("explorer_url"))
	case events.EventSwapConfirmed:
		return fmt.Sprintf("Swap confirmed: %s MON for token %s\n%s",
			str("amount"), str("token_address"), str("explorer_url"))
	case events.EventSwapFailed:
		msg := fmt.Sprintf("Swap failed: %s MON for token %s",
			str("amount"), str("token_address"))
		if reason := str("reason"); reason != "" {
			msg += " (" + reason + ")"
		}
		return msg + "\n" + str("explorer_url")
	default:
		return ""
	}
}
