package events

import "context"

// StreamSwaps is the pub/sub channel carrying every swap and wallet event.
const StreamSwaps = "events:swap"

// Event types
const (
	EventSwapSubmitted  = "swap_submitted"
	EventSwapConfirmed  = "swap_confirmed"
	EventSwapFailed     = "swap_failed"
	EventWalletCreated  = "wallet_created"
	EventWalletImported = "wallet_imported"
	EventWalletSwitched = "wallet_switched"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// UserID extracts the target user from an event payload; JSON round trips
// numbers as float64, so both representations are handled.
func (e Event) UserID() (int64, bool) {
	v, ok := e.Payload["user_id"]
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case int64:
		return id, true
	case float64:
		return int64(id), true
	default:
		return 0, false
	}
}
