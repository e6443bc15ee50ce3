package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/aggregation"
	"solana-risk-ladder/internal/checkpoint"
	"solana-risk-ladder/internal/confirm"
	"solana-risk-ladder/internal/discovery"
	"solana-risk-ladder/internal/jupiter"
	"solana-risk-ladder/internal/notify"
	"solana-risk-ladder/internal/observability"
	"solana-risk-ladder/internal/orchestrator"
	"solana-risk-ladder/internal/risk"
	"solana-risk-ladder/internal/scheduler"
	"solana-risk-ladder/internal/solana"
	"solana-risk-ladder/internal/storage"
	"solana-risk-ladder/internal/telegram"
)

// Engine is the fully wired runtime.
type Engine struct {
	Stores       storage.Stores
	Ledger       storage.ScoreLedger
	RPC          *solana.HTTPClient
	Slots        *solana.SlotClock
	Confirm      *confirm.Service
	Orchestrator *orchestrator.Orchestrator
	Telegram     *telegram.Client // nil when disabled
}

// BuildEngine wires every component onto already opened stores.
func (a *App) BuildEngine(stores storage.Stores, ledger storage.ScoreLedger) (*Engine, error) {
	cfg := a.Config

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL,
		solana.WithTimeout(cfg.Solana.CallTimeout),
		solana.WithMaxRetries(0),
	)
	slots := solana.NewSlotClock(rpc, 5*time.Second, a.Logger)

	var key *solana.Keypair
	wallet := cfg.Solana.Wallet
	if cfg.Solana.PrivateKey != "" {
		k, err := solana.LoadKeypair(cfg.Solana.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("load bot key: %w", err)
		}
		key = k
		if wallet == "" {
			wallet = k.PublicKey()
		}
	}
	if wallet != "" {
		if _, err := solana.ParsePublicKey(wallet); err != nil {
			return nil, fmt.Errorf("solana.wallet: %w", err)
		}
	}

	candidates := discovery.NewRaydiumSource(rpc, discovery.RaydiumConfig{
		MinLiquidity: decimal.NewFromFloat(cfg.Discovery.MinLiquidity),
		MaxPoolAge:   cfg.Discovery.MaxPoolAge,
		Limit:        cfg.Discovery.Limit,
	}, a.Logger)

	var holders discovery.HolderSource = discovery.NewRPCHolderSource(rpc)
	if cfg.Discovery.Holders == "solscan" {
		holders = discovery.NewSolscanHolderSource(discovery.SolscanConfig{
			BaseURL:   cfg.Discovery.Solscan.BaseURL,
			APIKey:    cfg.Discovery.Solscan.APIKey,
			RateLimit: cfg.Discovery.Solscan.RateLimit,
			Timeout:   cfg.Discovery.Solscan.Timeout,
		})
	}
	age := a.ageSource(slots)

	quotes := jupiter.NewClient(jupiter.Options{
		QuoteURL:      cfg.Jupiter.QuoteURL,
		SwapURL:       cfg.Jupiter.SwapURL,
		UserPublicKey: wallet,
		SlippageBps:   cfg.Jupiter.SlippageBps,
		RateLimit:     cfg.Jupiter.RateLimit,
		Timeout:       cfg.Jupiter.Timeout,
	}, a.Logger)

	notifiers := notify.Multi{notify.NewLogNotifier(a.Logger)}
	var tg *telegram.Client
	if cfg.Telegram.Enabled {
		tg = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIBase, cfg.Telegram.PollTimeout+10*time.Second)
		notifiers = append(notifiers, telegram.NewNotifier(tg, cfg.Telegram.ChatID, a.Logger))
	}

	broadcaster := solana.NewBroadcaster(rpc, key, cfg.Solana.CallTimeout, a.Logger)
	confirmSvc := confirm.NewService(stores, broadcaster, cfg.Engine.ConfirmTTL, a.Logger)

	orch := orchestrator.New(orchestrator.Options{
		Candidates: candidates,
		Holders:    holders,
		Age:        age,
		Scorer:     risk.NewScorer(decimal.NewFromFloat(cfg.Discovery.MinLiquidity)),
		Aggregator: aggregation.New(stores.Positions, quotes, notifiers,
			decimal.NewFromInt(cfg.Engine.ContributionLamports), a.Logger),
		Engine: checkpoint.NewEngine(stores.Checkpoints, quotes, notifiers,
			decimal.NewFromInt(cfg.Engine.ProbeLamports), a.Logger),
		Expirer:     confirmSvc,
		Stores:      stores,
		Ledger:      ledger,
		Ladder:      cfg.Ladder(),
		CallTimeout: cfg.Solana.CallTimeout,
		Logger:      a.Logger,
	})

	return &Engine{
		Stores:       stores,
		Ledger:       ledger,
		RPC:          rpc,
		Slots:        slots,
		Confirm:      confirmSvc,
		Orchestrator: orch,
		Telegram:     tg,
	}, nil
}

// ageSource picks the age signal fed to the scorer. The slot window proxy is
// the default; open_time measures minutes since the pool opened and falls
// back to the proxy when the open time is unknown.
func (a *App) ageSource(slots solana.SlotGetter) discovery.AgeSource {
	proxy := discovery.NewSlotAgeSource(slots, a.Config.Discovery.AgeWindowSlots)
	if a.Config.Discovery.AgeSource == "open_time" {
		return discovery.NewPoolOpenTimeAge(proxy)
	}
	return proxy
}

// Run executes the long-running service: both sweeps, the slot clock, the
// Telegram bot and the metrics server.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stores, closeStores, err := a.OpenStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	ledger, closeLedger, err := a.OpenLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()

	eng, err := a.BuildEngine(stores, ledger)
	if err != nil {
		return err
	}

	discoverySched := scheduler.New(scheduler.Options{
		Name:       "discovery",
		Interval:   a.Config.Discovery.Interval,
		RunOnStart: true,
	}, a.Logger)
	checkpointSched := scheduler.New(scheduler.Options{
		Name:       "checkpoint",
		Interval:   a.Config.Engine.CheckpointInterval,
		RunOnStart: true,
	}, a.Logger)
	discoverySched.OnSkip = observability.RecordSweepSkipped
	checkpointSched.OnSkip = observability.RecordSweepSkipped

	started := time.Now()
	status := func() any {
		return map[string]any{
			"status":     "running",
			"uptime":     time.Since(started).Truncate(time.Second).String(),
			"discovery":  discoverySched.Stats(),
			"checkpoint": checkpointSched.Stats(),
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 5)
	spawn := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	spawn("discovery", func(ctx context.Context) error {
		return discoverySched.Run(ctx, func(ctx context.Context) error {
			_, err := eng.Orchestrator.DiscoverySweep(ctx)
			return err
		})
	})
	spawn("checkpoint", func(ctx context.Context) error {
		return checkpointSched.Run(ctx, func(ctx context.Context) error {
			_, err := eng.Orchestrator.CheckpointSweep(ctx)
			return err
		})
	})
	spawn("http", observability.NewServer(a.Config.HTTP.Addr, status, a.Logger).Run)

	if a.Config.Solana.WSURL != "" {
		spawn("slot_clock", func(ctx context.Context) error {
			return a.runSlotClock(ctx, eng.Slots)
		})
	}
	if eng.Telegram != nil {
		bot := telegram.NewBot(eng.Telegram, stores.Users, eng.Confirm, telegram.BotOptions{
			PollTimeout: a.Config.Telegram.PollTimeout,
		}, a.Logger)
		spawn("telegram", bot.Run)
	}

	a.Logger.Info().
		Str("store", a.Config.Store.Driver).
		Ints("ladder", a.Config.Ladder()).
		Bool("telegram", eng.Telegram != nil).
		Msg("engine started")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		cancel()
	}
	wg.Wait()

	a.Logger.Info().Msg("shutdown complete")
	return runErr
}

// runSlotClock keeps the slot subscription alive. A dropped stream is not
// fatal: the clock falls back to getSlot until the next connection.
func (a *App) runSlotClock(ctx context.Context, clock *solana.SlotClock) error {
	backoff := time.Second
	for {
		ws, err := solana.NewWSClient(ctx, a.Config.Solana.WSURL, nil, a.Logger)
		if err == nil {
			err = clock.Run(ctx, ws)
			ws.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.Logger.Warn().Err(err).Dur("backoff", backoff).Msg("slot clock stopped, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 30*time.Second)
	}
}
