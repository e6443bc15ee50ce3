package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"solana-risk-ladder/internal/domain"
)

const (
	defaultSolscanURL = "https://public-api.solscan.io"
	solscanHolderRows = 20

	// solscanMaxBody caps response bodies.
	solscanMaxBody = 4 << 20
)

// SolscanConfig configures the Solscan holder source.
type SolscanConfig struct {
	BaseURL   string
	APIKey    string  // sent as the "token" header when set
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// SolscanHolderSource reads holders from the Solscan public API.
type SolscanHolderSource struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// NewSolscanHolderSource creates a rate-limited Solscan client.
func NewSolscanHolderSource(cfg SolscanConfig) *SolscanHolderSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSolscanURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SolscanHolderSource{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

type solscanHolder struct {
	Address string           `json:"address"`
	Amount  decimal.Decimal  `json:"amount"`
	Supply  *decimal.Decimal `json:"supply,omitempty"`
}

type solscanHolders struct {
	Data  []solscanHolder `json:"data"`
	Total int             `json:"total"`
}

type solscanMeta struct {
	Supply decimal.Decimal `json:"supply"`
}

// Holders returns the top holders and supply of mint, in atoms.
// Supply comes from the holder rows when present, otherwise from token meta.
func (s *SolscanHolderSource) Holders(ctx context.Context, mint string) (*domain.HolderDistribution, error) {
	q := url.Values{}
	q.Set("token", mint)
	q.Set("limit", fmt.Sprint(solscanHolderRows))

	var holders solscanHolders
	if err := s.get(ctx, "/token/holders", q, &holders); err != nil {
		return nil, fmt.Errorf("solscan holders %s: %w: %v", mint, domain.ErrDataUnavailable, err)
	}
	if len(holders.Data) == 0 {
		return nil, fmt.Errorf("solscan holders %s: %w: no holders", mint, domain.ErrDataUnavailable)
	}

	var supply decimal.Decimal
	if holders.Data[0].Supply != nil {
		supply = *holders.Data[0].Supply
	} else {
		mq := url.Values{}
		mq.Set("tokenAddress", mint)
		var meta solscanMeta
		if err := s.get(ctx, "/token/meta", mq, &meta); err != nil {
			return nil, fmt.Errorf("solscan meta %s: %w: %v", mint, domain.ErrDataUnavailable, err)
		}
		supply = meta.Supply
	}

	balances := make([]decimal.Decimal, len(holders.Data))
	for i, h := range holders.Data {
		balances[i] = h.Amount
	}
	rankDesc(balances)

	return &domain.HolderDistribution{Balances: balances, TotalSupply: supply}, nil
}

func (s *SolscanHolderSource) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("token", s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, solscanMaxBody+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(body) > solscanMaxBody {
		return fmt.Errorf("response exceeds %d bytes", solscanMaxBody)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
