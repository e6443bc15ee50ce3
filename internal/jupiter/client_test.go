package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/quote"
	"solana-risk-ladder/internal/solana"
)

const testMint = "Mint1111111111111111111111111111111111111111"

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		QuoteURL:      srv.URL + "/quote",
		SwapURL:       srv.URL + "/swap",
		UserPublicKey: "Wallet11111111111111111111111111111111111111",
		RateLimit:     1000,
		Timeout:       time.Second,
	}, zerolog.Nop())
}

func TestQuote_Buy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, solana.WSOLMint, q.Get("inputMint"))
		assert.Equal(t, testMint, q.Get("outputMint"))
		assert.Equal(t, "30000000", q.Get("amount"))
		assert.Equal(t, "50", q.Get("slippageBps"))
		_, _ = w.Write([]byte(`{"inputMint":"x","outputMint":"y","inAmount":"30000000","outAmount":"15000000","routePlan":[]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv).Quote(context.Background(), testMint, quote.Buy, decimal.NewFromInt(30_000_000))
	require.NoError(t, err)
	assert.True(t, got.InAmount.Equal(decimal.NewFromInt(30_000_000)))
	assert.True(t, got.OutAmount.Equal(decimal.NewFromInt(15_000_000)))
	assert.True(t, got.PricePerAtom().Equal(decimal.NewFromInt(2)))
	assert.Contains(t, string(got.Route), "routePlan")
}

func TestQuote_SellSwapsMints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, testMint, q.Get("inputMint"))
		assert.Equal(t, solana.WSOLMint, q.Get("outputMint"))
		// fractional atoms are floored
		assert.Equal(t, "1234", q.Get("amount"))
		_, _ = w.Write([]byte(`{"inAmount":"1234","outAmount":"5000"}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv).Quote(context.Background(), testMint, quote.Sell, decimal.RequireFromString("1234.9"))
	require.NoError(t, err)
	assert.Equal(t, quote.Sell, got.Direction)
}

func TestQuote_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"http error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Could not find any route","errorCode":"COULD_NOT_FIND_ANY_ROUTE"}`))
		},
		"zero out": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"inAmount":"100","outAmount":"0"}`))
		},
		"bad amount": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"inAmount":"abc","outAmount":"1"}`))
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := newTestClient(srv).Quote(context.Background(), testMint, quote.Buy, decimal.NewFromInt(100))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrQuoteUnavailable), "got %v", err)
		})
	}
}

func TestQuote_ZeroAmount(t *testing.T) {
	c := NewClient(Options{}, zerolog.Nop())
	_, err := c.Quote(context.Background(), testMint, quote.Buy, decimal.RequireFromString("0.4"))
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestBuildSwap(t *testing.T) {
	var gotBody map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			_, _ = w.Write([]byte(`{"inAmount":"10","outAmount":"20","contextSlot":7}`))
		case "/swap":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"swapTransaction":"AQIDBA==","lastValidBlockHeight":99}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	q, err := c.Quote(context.Background(), testMint, quote.Buy, decimal.NewFromInt(10))
	require.NoError(t, err)

	tx, err := c.BuildSwap(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "AQIDBA==", tx)

	assert.JSONEq(t, `"Wallet11111111111111111111111111111111111111"`, string(gotBody["userPublicKey"]))
	assert.JSONEq(t, `{"inAmount":"10","outAmount":"20","contextSlot":7}`, string(gotBody["quoteResponse"]))
}

func TestBuildSwap_Failures(t *testing.T) {
	cases := map[string]string{
		"empty":      `{"swapTransaction":""}`,
		"not base64": `{"swapTransaction":"%%%"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			q := &quote.Quote{Mint: testMint, InAmount: decimal.NewFromInt(1), OutAmount: decimal.NewFromInt(1), Route: []byte(`{}`)}
			_, err := newTestClient(srv).BuildSwap(context.Background(), q)
			assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
		})
	}

	noKey := NewClient(Options{}, zerolog.Nop())
	_, err := noKey.BuildSwap(context.Background(), &quote.Quote{Route: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)

	_, err = noKey.BuildSwap(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestQuote_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv).Quote(ctx, testMint, quote.Buy, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestQuote_OversizedBodyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// valid JSON, padded past the cap
		_, _ = w.Write([]byte(strings.Repeat(" ", maxResponseBytes)))
		_, _ = w.Write([]byte(`{"inAmount":"100","outAmount":"50"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Quote(context.Background(), testMint, quote.Buy, decimal.NewFromInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
	assert.Contains(t, err.Error(), "exceeds")
}
