package discovery

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/solana"
)

// maxAccountsPerCall is the getMultipleAccounts limit.
const maxAccountsPerCall = 100

// RaydiumConfig holds candidate filtering parameters.
type RaydiumConfig struct {
	MinLiquidity decimal.Decimal // SOL in the quote vault
	MaxPoolAge   time.Duration   // 0 disables the open-time filter
	Limit        int             // max candidates per sweep, 0 = unlimited
}

// DefaultRaydiumConfig returns the default filters.
func DefaultRaydiumConfig() RaydiumConfig {
	return RaydiumConfig{
		MinLiquidity: decimal.NewFromInt(30),
		MaxPoolAge:   2 * time.Hour,
		Limit:        50,
	}
}

// RaydiumSource lists AMM v4 pools quoted in WSOL and measures their
// liquidity from the quote vault balance.
type RaydiumSource struct {
	rpc    solana.RPCClient
	config RaydiumConfig
	now    func() time.Time
	logger zerolog.Logger
}

// NewRaydiumSource creates a new candidate source.
func NewRaydiumSource(rpc solana.RPCClient, config RaydiumConfig, logger zerolog.Logger) *RaydiumSource {
	return &RaydiumSource{
		rpc:    rpc,
		config: config,
		now:    time.Now,
		logger: logger.With().Str("component", "raydium_source").Logger(),
	}
}

// Candidates returns pools passing the liquidity and age filters,
// newest first.
func (s *RaydiumSource) Candidates(ctx context.Context) ([]domain.PoolCandidate, error) {
	accounts, err := s.rpc.GetProgramAccounts(ctx, solana.RaydiumAMMV4Program, []solana.AccountFilter{
		{DataSize: solana.RaydiumPoolSize},
		{Memcmp: &solana.Memcmp{Offset: solana.OffsetQuoteMint, Bytes: solana.WSOLMint}},
	})
	if err != nil {
		return nil, fmt.Errorf("list pools: %w: %v", domain.ErrDataUnavailable, err)
	}

	nowSec := s.now().Unix()
	pools := make([]*solana.RaydiumPool, 0, len(accounts))
	for _, acc := range accounts {
		data, err := acc.Account.Bytes()
		if err != nil {
			s.logger.Debug().Err(err).Str("pool", acc.Pubkey).Msg("skip undecodable pool")
			continue
		}
		pool, err := solana.DecodeRaydiumPool(acc.Pubkey, data)
		if err != nil {
			s.logger.Debug().Err(err).Str("pool", acc.Pubkey).Msg("skip malformed pool")
			continue
		}
		if pool.QuoteMint != solana.WSOLMint {
			continue
		}
		if s.tooOld(pool.OpenTime, nowSec) {
			continue
		}
		pools = append(pools, pool)
	}

	sort.SliceStable(pools, func(i, j int) bool {
		if pools[i].OpenTime != pools[j].OpenTime {
			return pools[i].OpenTime > pools[j].OpenTime
		}
		return pools[i].Address < pools[j].Address
	})

	liquidity, err := s.vaultBalances(ctx, pools)
	if err != nil {
		return nil, err
	}

	var out []domain.PoolCandidate
	for _, pool := range pools {
		liq, ok := liquidity[pool.QuoteVault]
		if !ok || liq.LessThan(s.config.MinLiquidity) {
			continue
		}
		out = append(out, domain.PoolCandidate{
			Mint:      pool.BaseMint,
			Pool:      pool.Address,
			Liquidity: liq,
			OpenTime:  pool.OpenTime,
		})
		if s.config.Limit > 0 && len(out) >= s.config.Limit {
			break
		}
	}

	s.logger.Debug().Int("pools", len(accounts)).Int("candidates", len(out)).Msg("discovery scan")
	return out, nil
}

func (s *RaydiumSource) tooOld(openTime, nowSec int64) bool {
	if s.config.MaxPoolAge <= 0 || openTime <= 0 {
		return false
	}
	return time.Duration(nowSec-openTime)*time.Second > s.config.MaxPoolAge
}

// vaultBalances returns SOL balances keyed by quote vault address.
func (s *RaydiumSource) vaultBalances(ctx context.Context, pools []*solana.RaydiumPool) (map[string]decimal.Decimal, error) {
	vaults := make([]string, 0, len(pools))
	for _, p := range pools {
		vaults = append(vaults, p.QuoteVault)
	}

	out := make(map[string]decimal.Decimal, len(vaults))
	for start := 0; start < len(vaults); start += maxAccountsPerCall {
		end := start + maxAccountsPerCall
		if end > len(vaults) {
			end = len(vaults)
		}
		batch := vaults[start:end]

		infos, err := s.rpc.GetMultipleAccounts(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("load vaults: %w: %v", domain.ErrDataUnavailable, err)
		}
		for i, info := range infos {
			if info == nil || i >= len(batch) {
				continue
			}
			data, err := info.Bytes()
			if err != nil {
				continue
			}
			lamports, err := solana.DecodeTokenAccountAmount(data)
			if err != nil {
				continue
			}
			out[batch[i]] = domain.LamportsToSOL(decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), 0))
		}
	}
	return out, nil
}
