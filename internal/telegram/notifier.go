package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/notify"
)

// Notifier posts stage notifications to a chat or channel.
type Notifier struct {
	client *Client
	chatID string
	logger zerolog.Logger
}

var _ notify.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier posting to chatID.
func NewNotifier(client *Client, chatID string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		client: client,
		chatID: chatID,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}
}

// BuyReady posts the buy message with a "Broadcast Buy" button.
func (n *Notifier) BuyReady(ctx context.Context, p *domain.Position) error {
	ref := domain.ActionRef{Kind: domain.ActionBuy, Mint: p.Mint}
	msg, err := n.client.SendMessage(ctx, n.chatID, BuyText(p), singleButton("✅ Broadcast Buy", ref.Key()))
	if err != nil {
		return fmt.Errorf("send buy message %s: %w", p.Mint, err)
	}
	n.logger.Info().Str("mint", p.Mint).Int("message_id", msg.MessageID).Msg("buy message sent")
	return nil
}

// SellReady posts the checkpoint message with a "Broadcast N% Sell" button.
func (n *Notifier) SellReady(ctx context.Context, _ *domain.Position, e *domain.CheckpointExecution) error {
	ref := domain.ActionRef{Kind: domain.ActionSell, Mint: e.Mint, CheckpointPct: e.CheckpointPct}
	label := fmt.Sprintf("Broadcast %d%% Sell", e.CheckpointPct)
	msg, err := n.client.SendMessage(ctx, n.chatID, SellText(e), singleButton(label, ref.Key()))
	if err != nil {
		return fmt.Errorf("send sell message %s@%d: %w", e.Mint, e.CheckpointPct, err)
	}
	n.logger.Info().Str("mint", e.Mint).Int("checkpoint", e.CheckpointPct).Int("message_id", msg.MessageID).Msg("sell message sent")
	return nil
}

// BuyText renders the buy notification.
func BuyText(p *domain.Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 <b>MEME</b>  risk=%d%%  users=%d\n", p.Score, len(p.Contributors))
	fmt.Fprintf(&b, "Aggregate buy %s SOL\n", domain.LamportsToSOL(p.SpentLamports).StringFixed(3))
	fmt.Fprintf(&b, "<code>%s</code>", html.EscapeString(p.Mint))
	return b.String()
}

// SellText renders the checkpoint notification.
func SellText(e *domain.CheckpointExecution) string {
	return fmt.Sprintf("🎯 Checkpoint %d%% hit for <code>%s</code>\nUsers %d  gain ≈ %.1f%%",
		e.CheckpointPct, html.EscapeString(e.Mint), len(e.Sellers), e.GainPct)
}
