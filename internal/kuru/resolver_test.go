package kuru

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	tokenA   = common.HexToAddress("0xe0590015a873bf326bd645c3e1266d4db41c4e6b")
	tokenB   = common.HexToAddress("0x760AfE86e5de5fa0Ee542fc7B7B713e1c5425701")
	poolAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

// discoveryStub answers markets/filtered requests from a fixed directional
// index, mimicking the real service.
func discoveryStub(t *testing.T, index map[[2]common.Address]string, calls *int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.URL.Path != "/api/v1/markets/filtered" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req marketsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Pairs) != 1 {
			t.Errorf("bad request body: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		key := [2]common.Address{
			common.HexToAddress(req.Pairs[0].BaseToken),
			common.HexToAddress(req.Pairs[0].QuoteToken),
		}

		var resp marketsResponse
		if market, ok := index[key]; ok {
			resp.Data = append(resp.Data, struct {
				Market string `json:"market"`
			}{Market: market})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestFindPoolDirectOrder(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(discoveryStub(t, map[[2]common.Address]string{
		{tokenA, tokenB}: poolAddr.Hex(),
	}, &calls))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second, zap.NewNop())
	pool, err := r.FindPool(context.Background(), tokenA, tokenB)
	if err != nil {
		t.Fatalf("FindPool: %v", err)
	}
	if pool != poolAddr {
		t.Errorf("pool = %s, want %s", pool.Hex(), poolAddr.Hex())
	}
	if calls != 1 {
		t.Errorf("expected 1 lookup, got %d", calls)
	}
}

func TestFindPoolReversedFallback(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(discoveryStub(t, map[[2]common.Address]string{
		{tokenB, tokenA}: poolAddr.Hex(), // indexed only in the reversed orientation
	}, &calls))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second, zap.NewNop())
	pool, err := r.FindPool(context.Background(), tokenA, tokenB)
	if err != nil {
		t.Fatalf("FindPool: %v", err)
	}
	if pool != poolAddr {
		t.Errorf("pool = %s, want %s", pool.Hex(), poolAddr.Hex())
	}
	if calls != 2 {
		t.Errorf("expected 2 lookups, got %d", calls)
	}
}

func TestFindPoolNoPool(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(discoveryStub(t, nil, &calls))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second, zap.NewNop())
	if _, err := r.FindPool(context.Background(), tokenA, tokenB); !errors.Is(err, ErrNoPool) {
		t.Errorf("expected ErrNoPool, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected both orientations tried, got %d lookups", calls)
	}
}

func TestFindPoolIgnoresMalformedMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"market":"not-an-address"}]}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second, zap.NewNop())
	if _, err := r.FindPool(context.Background(), tokenA, tokenB); !errors.Is(err, ErrNoPool) {
		t.Errorf("expected ErrNoPool, got %v", err)
	}
}

func TestFindPoolServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second, zap.NewNop())
	if _, err := r.FindPool(context.Background(), tokenA, tokenB); !errors.Is(err, ErrDiscoveryUnavailable) {
		t.Errorf("expected ErrDiscoveryUnavailable, got %v", err)
	}
}

func TestFindPoolTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	r := NewResolver(srv.URL, time.Second, zap.NewNop())
	if _, err := r.FindPool(context.Background(), tokenA, tokenB); !errors.Is(err, ErrDiscoveryUnavailable) {
		t.Errorf("expected ErrDiscoveryUnavailable, got %v", err)
	}
}
