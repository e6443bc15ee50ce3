package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/solana"
	"solana-risk-ladder/internal/solana/stub"
)

func TestRPCHolderSource(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.LargestAccounts["mint"] = []solana.TokenAmount{
		{Address: "a", Amount: decimal.NewFromInt(100)},
		{Address: "b", Amount: decimal.NewFromInt(300)},
		{Address: "c", Amount: decimal.NewFromInt(200)},
	}
	rpc.Supplies["mint"] = solana.TokenAmount{Amount: decimal.NewFromInt(1000)}

	h, err := NewRPCHolderSource(rpc).Holders(context.Background(), "mint")
	if err != nil {
		t.Fatalf("Holders: %v", err)
	}
	if !h.TotalSupply.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("unexpected supply %s", h.TotalSupply)
	}
	want := []int64{300, 200, 100}
	for i, w := range want {
		if !h.Balances[i].Equal(decimal.NewFromInt(w)) {
			t.Errorf("rank %d: expected %d, got %s", i, w, h.Balances[i])
		}
	}
}

func TestRPCHolderSource_Unavailable(t *testing.T) {
	rpc := stub.NewRPCClient()

	// no holders
	if _, err := NewRPCHolderSource(rpc).Holders(context.Background(), "mint"); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable for empty holders, got %v", err)
	}

	// holders but no supply
	rpc.LargestAccounts["mint"] = []solana.TokenAmount{{Amount: decimal.NewFromInt(1)}}
	if _, err := NewRPCHolderSource(rpc).Holders(context.Background(), "mint"); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable for missing supply, got %v", err)
	}
}

func TestSolscanHolderSource_SupplyInRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token/holders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "mint" || r.URL.Query().Get("limit") != "20" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("token") != "secret" {
			t.Errorf("missing api key header")
		}
		_, _ = w.Write([]byte(`{"data":[{"address":"a","amount":"400","supply":"1000"},{"address":"b","amount":600}],"total":2}`))
	}))
	defer srv.Close()

	src := NewSolscanHolderSource(SolscanConfig{BaseURL: srv.URL, APIKey: "secret", RateLimit: 100})
	h, err := src.Holders(context.Background(), "mint")
	if err != nil {
		t.Fatalf("Holders: %v", err)
	}
	if !h.TotalSupply.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("unexpected supply %s", h.TotalSupply)
	}
	if !h.Balances[0].Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected ranked balances, got %v", h.Balances)
	}
}

func TestSolscanHolderSource_SupplyFromMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token/holders":
			_, _ = w.Write([]byte(`{"data":[{"address":"a","amount":"10"}],"total":1}`))
		case "/token/meta":
			if r.URL.Query().Get("tokenAddress") != "mint" {
				t.Errorf("unexpected meta query %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"supply":"50","decimals":6}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h, err := NewSolscanHolderSource(SolscanConfig{BaseURL: srv.URL, RateLimit: 100}).Holders(context.Background(), "mint")
	if err != nil {
		t.Fatalf("Holders: %v", err)
	}
	if !h.TotalSupply.Equal(decimal.NewFromInt(50)) {
		t.Errorf("unexpected supply %s", h.TotalSupply)
	}
}

func TestSolscanHolderSource_Errors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[],"total":0}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
		"oversized": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat(" ", solscanMaxBody)))
			_, _ = w.Write([]byte(`{"data":[{"address":"a","amount":"400","supply":"1000"}],"total":1}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewSolscanHolderSource(SolscanConfig{BaseURL: srv.URL, RateLimit: 100}).Holders(context.Background(), "mint")
			if !errors.Is(err, domain.ErrDataUnavailable) {
				t.Fatalf("expected ErrDataUnavailable, got %v", err)
			}
		})
	}
}
