package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// Confirmer runs the confirm phase of a staged action.
type Confirmer interface {
	Confirm(ctx context.Context, ref domain.ActionRef, by int64) (string, error)
}

// BotOptions tune the update loop.
type BotOptions struct {
	PollTimeout   time.Duration // getUpdates long-poll timeout
	HandleTimeout time.Duration // per-update deadline
	MaxBackoff    time.Duration
}

// Bot handles profile commands and confirm buttons.
type Bot struct {
	client    *Client
	users     storage.UserStore
	confirmer Confirmer
	opts      BotOptions
	now       func() time.Time
	logger    zerolog.Logger
}

// NewBot creates a bot.
func NewBot(client *Client, users storage.UserStore, confirmer Confirmer, opts BotOptions, logger zerolog.Logger) *Bot {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.HandleTimeout <= 0 {
		opts.HandleTimeout = 30 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	return &Bot{
		client:    client,
		users:     users,
		confirmer: confirmer,
		opts:      opts,
		now:       time.Now,
		logger:    logger.With().Str("component", "telegram_bot").Logger(),
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	backoff := time.Second

	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn().Err(err).Dur("backoff", backoff).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, b.opts.MaxBackoff)
			continue
		}
		backoff = time.Second

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

// HandleUpdate processes one update. Failures are logged, never returned.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.HandleTimeout)
	defer cancel()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.From != nil && strings.HasPrefix(u.Message.Text, "/"):
		reply := b.handleCommand(ctx, u.Message.From.ID, u.Message.Text)
		if reply == "" {
			return
		}
		if _, err := b.client.SendMessage(ctx, strconv.FormatInt(u.Message.Chat.ID, 10), reply, nil); err != nil {
			b.logger.Warn().Err(err).Int64("user", u.Message.From.ID).Msg("reply failed")
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, userID int64, text string) string {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	args := fields[1:]

	switch cmd {
	case "/start":
		if _, err := b.ensureProfile(ctx, userID); err != nil {
			return b.internalError(userID, err)
		}
		return "Welcome! Use /risk <0-100> and /cashout <0-300> to set your levels. " +
			"Then wait for signals."

	case "/risk":
		v, ok := intArg(args)
		if !ok {
			return "Usage: /risk 80"
		}
		if domain.ValidateRiskThreshold(v) != nil {
			return "Risk must be 0-100"
		}
		if err := b.updateProfile(ctx, userID, func(p *domain.UserProfile) { p.RiskThreshold = v }); err != nil {
			return b.internalError(userID, err)
		}
		return fmt.Sprintf("Risk set to %d %%", v)

	case "/cashout":
		v, ok := intArg(args)
		if !ok {
			return "Usage: /cashout 150"
		}
		if domain.ValidateCashoutTarget(v) != nil {
			return "Cash-out must be 0-300 %"
		}
		if err := b.updateProfile(ctx, userID, func(p *domain.UserProfile) { p.CashoutTarget = v }); err != nil {
			return b.internalError(userID, err)
		}
		return fmt.Sprintf("Cash-out target set to %d %%", v)

	case "/me":
		p, err := b.users.Get(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return "No profile yet. Send /start first."
		}
		if err != nil {
			return b.internalError(userID, err)
		}
		return fmt.Sprintf("Risk: %d %%\nCash-out: %d %%", p.RiskThreshold, p.CashoutTarget)

	default:
		return "Commands: /start, /risk <0-100>, /cashout <0-300>, /me"
	}
}

// ensureProfile creates a default profile unless one exists.
func (b *Bot) ensureProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	p := domain.NewUserProfile(userID, b.now().UnixMilli())
	err := b.users.Create(ctx, p)
	if err == nil {
		b.logger.Info().Int64("user", userID).Msg("profile created")
		return p, nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return nil, err
	}
	return b.users.Get(ctx, userID)
}

func (b *Bot) updateProfile(ctx context.Context, userID int64, mutate func(*domain.UserProfile)) error {
	p, err := b.ensureProfile(ctx, userID)
	if err != nil {
		return err
	}
	mutate(p)
	p.UpdatedAt = b.now().UnixMilli()
	return b.users.Update(ctx, p)
}

func (b *Bot) internalError(userID int64, err error) string {
	b.logger.Error().Err(err).Int64("user", userID).Msg("command failed")
	return "Something went wrong, try again later."
}

func (b *Bot) handleCallback(ctx context.Context, q *CallbackQuery) {
	ref, err := domain.ParseActionRef(q.Data)
	if err != nil {
		b.answer(ctx, q, "Expired", true)
		return
	}

	sig, err := b.confirmer.Confirm(ctx, ref, q.From.ID)
	switch {
	case errors.Is(err, domain.ErrStaleReference):
		b.answer(ctx, q, "Expired", true)
		return
	case err != nil:
		b.answer(ctx, q, "Failed ❌ "+err.Error(), true)
		return
	}

	if ref.Kind == domain.ActionSell {
		b.answer(ctx, q, fmt.Sprintf("%d%% sell broadcast ✅", ref.CheckpointPct), false)
	} else {
		b.answer(ctx, q, "Buy broadcast ✅", false)
	}

	if q.Message == nil {
		return
	}
	text := html.EscapeString(q.Message.Text) + "\nSig: <code>" + html.EscapeString(sig) + "</code>"
	if err := b.client.EditMessageText(ctx, q.Message.Chat.ID, q.Message.MessageID, text); err != nil {
		b.logger.Warn().Err(err).Str("action", ref.Key()).Msg("edit message failed")
	}
}

func (b *Bot) answer(ctx context.Context, q *CallbackQuery, text string, alert bool) {
	if err := b.client.AnswerCallbackQuery(ctx, q.ID, text, alert); err != nil {
		b.logger.Warn().Err(err).Str("callback", q.Data).Msg("answer callback failed")
	}
}

func intArg(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, false
	}
	return v, true
}
