package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TransactionSender submits wire transactions.
type TransactionSender interface {
	SendTransaction(ctx context.Context, txBase64 string) (string, error)
}

// Broadcaster signs staged payloads with the bot's key shard (if any) and
// submits them. It never retries; the confirming human can press again.
type Broadcaster struct {
	sender  TransactionSender
	key     *Keypair
	timeout time.Duration
	logger  zerolog.Logger
}

// NewBroadcaster creates a broadcaster. key may be nil for payloads that
// are already fully signed elsewhere.
func NewBroadcaster(sender TransactionSender, key *Keypair, timeout time.Duration, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		sender:  sender,
		key:     key,
		timeout: timeout,
		logger:  logger.With().Str("component", "broadcaster").Logger(),
	}
}

// Broadcast partially signs payload and sends it, returning the signature.
func (b *Broadcaster) Broadcast(ctx context.Context, payload string) (string, error) {
	tx := payload
	if b.key != nil {
		signed, err := b.key.PartialSign(payload)
		if err != nil {
			return "", fmt.Errorf("partial sign: %w", err)
		}
		tx = signed
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	sig, err := b.sender.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	b.logger.Info().Str("signature", sig).Msg("transaction broadcast")
	return sig, nil
}
