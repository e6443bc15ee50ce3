// Package config loads runtime configuration from a YAML file, RISKLADDER_*
// environment variables, a .env file and defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RISKLADDER"

// Config materialises application configuration.
type Config struct {
	Logging   logging.Config  `mapstructure:"logging"`
	Solana    SolanaConfig    `mapstructure:"solana"`
	Store     StoreConfig     `mapstructure:"store"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Jupiter   JupiterConfig   `mapstructure:"jupiter"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// SolanaConfig covers chain access and the bot key shard.
type SolanaConfig struct {
	RPCURL      string        `mapstructure:"rpc_url"`
	WSURL       string        `mapstructure:"ws_url"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	// PrivateKey is a base58 secret key or JSON byte array; empty disables
	// partial signing.
	PrivateKey string `mapstructure:"private_key"`
	// Wallet receives the swaps Jupiter builds.
	Wallet string `mapstructure:"wallet"`
}

// StoreConfig selects the transactional backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory | sqlite | postgres
	Path   string `mapstructure:"path"`   // sqlite file
	DSN    string `mapstructure:"dsn"`    // postgres
}

// LedgerConfig selects the score ledger sink.
type LedgerConfig struct {
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // empty keeps it in memory
	MemoryLimit   int    `mapstructure:"memory_limit"`
}

// DiscoveryConfig governs the discovery sweep.
type DiscoveryConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	MinLiquidity   float64       `mapstructure:"min_liquidity_sol"`
	MaxPoolAge     time.Duration `mapstructure:"max_pool_age"`
	Limit          int           `mapstructure:"limit"`
	AgeWindowSlots int64         `mapstructure:"age_window_slots"`
	AgeSource      string        `mapstructure:"age_source"` // slot | open_time
	Holders        string        `mapstructure:"holders"` // rpc | solscan
	Solscan        SolscanConfig `mapstructure:"solscan"`
}

// SolscanConfig captures the public holder API.
type SolscanConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// EngineConfig governs aggregation, checkpoints and confirmation.
type EngineConfig struct {
	ContributionLamports int64         `mapstructure:"contribution_lamports"`
	ProbeLamports        int64         `mapstructure:"probe_lamports"`
	Checkpoints          []int         `mapstructure:"checkpoints"`
	CheckpointInterval   time.Duration `mapstructure:"checkpoint_interval"`
	ConfirmTTL           time.Duration `mapstructure:"confirm_ttl"`
}

// JupiterConfig captures the quote provider.
type JupiterConfig struct {
	QuoteURL    string        `mapstructure:"quote_url"`
	SwapURL     string        `mapstructure:"swap_url"`
	SlippageBps int           `mapstructure:"slippage_bps"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// TelegramConfig describes the bot front-end.
type TelegramConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BotToken    string        `mapstructure:"bot_token"`
	ChatID      string        `mapstructure:"chat_id"`
	APIBase     string        `mapstructure:"api_base"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// HTTPConfig sets the metrics listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load builds configuration from file, environment, and defaults.
// A .env file in the working directory is loaded first; it never
// overrides variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.ws_url", "")
	v.SetDefault("solana.call_timeout", "10s")
	v.SetDefault("solana.private_key", "")
	v.SetDefault("solana.wallet", "")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "riskladder.db")
	v.SetDefault("store.dsn", "")

	v.SetDefault("ledger.clickhouse_dsn", "")
	v.SetDefault("ledger.memory_limit", 10000)

	v.SetDefault("discovery.interval", "3s")
	v.SetDefault("discovery.min_liquidity_sol", 30.0)
	v.SetDefault("discovery.max_pool_age", "2h")
	v.SetDefault("discovery.limit", 50)
	v.SetDefault("discovery.age_window_slots", 7200)
	v.SetDefault("discovery.age_source", "slot")
	v.SetDefault("discovery.holders", "rpc")
	v.SetDefault("discovery.solscan.base_url", "https://public-api.solscan.io")
	v.SetDefault("discovery.solscan.api_key", "")
	v.SetDefault("discovery.solscan.rate_limit", 2.0)
	v.SetDefault("discovery.solscan.timeout", "10s")

	v.SetDefault("engine.contribution_lamports", int64(10_000_000))
	v.SetDefault("engine.probe_lamports", int64(10_000_000))
	v.SetDefault("engine.checkpoints", "7,14,21,28,35,50,75,100")
	v.SetDefault("engine.checkpoint_interval", "15s")
	v.SetDefault("engine.confirm_ttl", "10m")

	v.SetDefault("jupiter.quote_url", "https://quote-api.jup.ag/v6/quote")
	v.SetDefault("jupiter.swap_url", "https://quote-api.jup.ag/v6/swap")
	v.SetDefault("jupiter.slippage_bps", 50)
	v.SetDefault("jupiter.rate_limit", 5.0)
	v.SetDefault("jupiter.timeout", "10s")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.poll_timeout", "30s")

	v.SetDefault("http.addr", ":9090")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Solana.RPCURL == "" {
		return fmt.Errorf("solana.rpc_url is required")
	}
	if c.Solana.CallTimeout <= 0 {
		return fmt.Errorf("solana.call_timeout must be greater than zero")
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be memory, sqlite or postgres, got %q", c.Store.Driver)
	}

	if c.Discovery.Interval <= 0 {
		return fmt.Errorf("discovery.interval must be greater than zero")
	}
	if c.Discovery.MinLiquidity < 0 {
		return fmt.Errorf("discovery.min_liquidity_sol cannot be negative")
	}
	if c.Discovery.AgeWindowSlots <= 0 {
		return fmt.Errorf("discovery.age_window_slots must be greater than zero")
	}
	switch c.Discovery.AgeSource {
	case "slot", "open_time":
	default:
		return fmt.Errorf("discovery.age_source must be slot or open_time, got %q", c.Discovery.AgeSource)
	}
	switch c.Discovery.Holders {
	case "rpc", "solscan":
	default:
		return fmt.Errorf("discovery.holders must be rpc or solscan, got %q", c.Discovery.Holders)
	}

	if c.Engine.ContributionLamports <= 0 {
		return fmt.Errorf("engine.contribution_lamports must be greater than zero")
	}
	if c.Engine.ProbeLamports <= 0 {
		return fmt.Errorf("engine.probe_lamports must be greater than zero")
	}
	if c.Engine.CheckpointInterval <= 0 {
		return fmt.Errorf("engine.checkpoint_interval must be greater than zero")
	}
	if c.Engine.ConfirmTTL <= 0 {
		return fmt.Errorf("engine.confirm_ttl must be greater than zero")
	}
	if err := validateLadder(c.Engine.Checkpoints); err != nil {
		return fmt.Errorf("engine.checkpoints: %w", err)
	}

	if c.Jupiter.SlippageBps < 0 || c.Jupiter.SlippageBps > 10_000 {
		return fmt.Errorf("jupiter.slippage_bps must be 0-10000")
	}
	if c.Jupiter.RateLimit <= 0 {
		return fmt.Errorf("jupiter.rate_limit must be greater than zero")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// Ladder returns the checkpoint ladder, falling back to the default.
func (c *Config) Ladder() []int {
	if len(c.Engine.Checkpoints) == 0 {
		return slices.Clone(domain.DefaultLadder)
	}
	return slices.Clone(c.Engine.Checkpoints)
}

func validateLadder(ladder []int) error {
	for i, pct := range ladder {
		if pct <= 0 {
			return fmt.Errorf("rung %d must be positive", pct)
		}
		if i > 0 && pct <= ladder[i-1] {
			return fmt.Errorf("rungs must be strictly ascending")
		}
	}
	return nil
}
