package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSlots streams slot updates. The channel is closed on Close.
	SubscribeSlots(ctx context.Context) (<-chan SlotNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SlotNotification is one slotNotification payload.
type SlotNotification struct {
	Slot   int64
	Parent int64
	Root   int64
}
