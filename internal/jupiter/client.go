// Package jupiter implements quote.Provider against the Jupiter swap API.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/observability"
	"solana-risk-ladder/internal/quote"
	"solana-risk-ladder/internal/solana"
)

const (
	defaultQuoteURL = "https://quote-api.jup.ag/v6/quote"
	defaultSwapURL  = "https://quote-api.jup.ag/v6/swap"

	// maxResponseBytes caps quote and swap bodies.
	maxResponseBytes = 4 << 20
)

// Options parameterise the Jupiter client.
type Options struct {
	QuoteURL      string
	SwapURL       string
	UserPublicKey string // wallet the swap is built for
	SlippageBps   int
	RateLimit     float64 // requests per second across quote and swap
	Timeout       time.Duration
}

// Client is a rate-limited Jupiter v6 client.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

var _ quote.Provider = (*Client)(nil)

// NewClient constructs a Jupiter client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.QuoteURL == "" {
		opts.QuoteURL = defaultQuoteURL
	}
	if opts.SwapURL == "" {
		opts.SwapURL = defaultSwapURL
	}
	if opts.SlippageBps <= 0 {
		opts.SlippageBps = 50
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Client{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 2),
		logger:  logger.With().Str("component", "jupiter").Logger(),
	}
}

type quoteResponse struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

type swapRequest struct {
	UserPublicKey    string          `json:"userPublicKey"`
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

type swapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight int64  `json:"lastValidBlockHeight"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// Quote prices amount of the input side of dir. Every failure wraps
// domain.ErrQuoteUnavailable.
func (c *Client) Quote(ctx context.Context, mint string, dir quote.Direction, amount decimal.Decimal) (*quote.Quote, error) {
	atoms := amount.Floor()
	if atoms.Sign() <= 0 {
		return nil, fmt.Errorf("quote %s %s: amount %s: %w", dir, mint, amount, domain.ErrQuoteUnavailable)
	}

	input, output := solana.WSOLMint, mint
	if dir == quote.Sell {
		input, output = mint, solana.WSOLMint
	}

	q := url.Values{}
	q.Set("inputMint", input)
	q.Set("outputMint", output)
	q.Set("amount", atoms.StringFixed(0))
	q.Set("slippageBps", fmt.Sprint(c.opts.SlippageBps))

	body, err := c.do(ctx, http.MethodGet, c.opts.QuoteURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("quote %s %s: %w: %v", dir, mint, domain.ErrQuoteUnavailable, err)
	}

	var res quoteResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("quote %s %s: decode: %w: %v", dir, mint, domain.ErrQuoteUnavailable, err)
	}
	in, err := decimal.NewFromString(res.InAmount)
	if err != nil {
		return nil, fmt.Errorf("quote %s %s: inAmount %q: %w", dir, mint, res.InAmount, domain.ErrQuoteUnavailable)
	}
	out, err := decimal.NewFromString(res.OutAmount)
	if err != nil {
		return nil, fmt.Errorf("quote %s %s: outAmount %q: %w", dir, mint, res.OutAmount, domain.ErrQuoteUnavailable)
	}

	result := &quote.Quote{
		Mint:      mint,
		Direction: dir,
		InAmount:  in,
		OutAmount: out,
		Route:     body,
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("mint", mint).
		Stringer("direction", dir).
		Str("in", in.String()).
		Str("out", out.String()).
		Msg("quote")
	return result, nil
}

// BuildSwap asks Jupiter for the unsigned swap transaction of q.
func (c *Client) BuildSwap(ctx context.Context, q *quote.Quote) (string, error) {
	if q == nil || len(q.Route) == 0 {
		return "", fmt.Errorf("build swap: missing route: %w", domain.ErrQuoteUnavailable)
	}
	if c.opts.UserPublicKey == "" {
		return "", fmt.Errorf("build swap: user public key not configured: %w", domain.ErrQuoteUnavailable)
	}

	payload, err := json.Marshal(swapRequest{
		UserPublicKey:    c.opts.UserPublicKey,
		QuoteResponse:    q.Route,
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, http.MethodPost, c.opts.SwapURL, payload)
	if err != nil {
		return "", fmt.Errorf("build swap %s: %w: %v", q.Mint, domain.ErrQuoteUnavailable, err)
	}

	var res swapResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("build swap %s: decode: %w: %v", q.Mint, domain.ErrQuoteUnavailable, err)
	}
	if res.SwapTransaction == "" {
		return "", fmt.Errorf("build swap %s: empty transaction: %w", q.Mint, domain.ErrQuoteUnavailable)
	}
	if _, err := base64.StdEncoding.DecodeString(res.SwapTransaction); err != nil {
		return "", fmt.Errorf("build swap %s: transaction is not base64: %w", q.Mint, domain.ErrQuoteUnavailable)
	}
	return res.SwapTransaction, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	label := "quote"
	if method == http.MethodPost {
		label = "swap"
	}
	start := time.Now()
	defer func() { observability.RecordQuoteLatency(label, time.Since(start).Seconds()) }()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("%s: response exceeds %d bytes", endpoint, maxResponseBytes)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error != "" {
		if apiErr.ErrorCode != "" {
			return fmt.Errorf("jupiter api error (%d) %s: %s", status, apiErr.ErrorCode, apiErr.Error)
		}
		return fmt.Errorf("jupiter api error (%d): %s", status, apiErr.Error)
	}
	if len(payload) > 0 {
		return fmt.Errorf("jupiter api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("jupiter api error (%d)", status)
}
