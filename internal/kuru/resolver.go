// Package kuru integrates the Kuru exchange: pool discovery over its HTTP
// API, price quotes over its on-chain route contract, and calldata for its
// router.
package kuru

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	// ErrNoPool is returned when the discovery service knows no pool for the
	// pair in either orientation.
	ErrNoPool = errors.New("no pool for pair")
	// ErrDiscoveryUnavailable is returned on transport failures and non-200
	// discovery responses.
	ErrDiscoveryUnavailable = errors.New("pool discovery unavailable")
)

// Resolver maps token pairs to pool addresses via the exchange's market
// discovery API.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewResolver(baseURL string, timeout time.Duration, log *zap.Logger) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type pairQuery struct {
	BaseToken  string `json:"baseToken"`
	QuoteToken string `json:"quoteToken"`
}

type marketsRequest struct {
	Pairs []pairQuery `json:"pairs"`
}

type marketsResponse struct {
	Data []struct {
		Market string `json:"market"`
	} `json:"data"`
}

// FindPool resolves the pool for a token pair. The discovery service indexes
// pools directionally, so a miss in the given order is retried once with the
// pair reversed; there is no backoff beyond that.
func (r *Resolver) FindPool(ctx context.Context, base, quote common.Address) (common.Address, error) {
	pool, err := r.lookup(ctx, base, quote)
	if err != nil {
		return common.Address{}, err
	}
	if pool != (common.Address{}) {
		return pool, nil
	}

	pool, err = r.lookup(ctx, quote, base)
	if err != nil {
		return common.Address{}, err
	}
	if pool != (common.Address{}) {
		r.log.Debug("pool found with reversed pair",
			zap.String("base", base.Hex()),
			zap.String("quote", quote.Hex()),
			zap.String("pool", pool.Hex()),
		)
		return pool, nil
	}

	return common.Address{}, ErrNoPool
}

func (r *Resolver) lookup(ctx context.Context, base, quote common.Address) (common.Address, error) {
	body, err := json.Marshal(marketsRequest{
		Pairs: []pairQuery{{BaseToken: base.Hex(), QuoteToken: quote.Hex()}},
	})
	if err != nil {
		return common.Address{}, err
	}

	url := r.baseURL + "/api/v1/markets/filtered"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return common.Address{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrDiscoveryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return common.Address{}, fmt.Errorf("%w: discovery returned %d: %s", ErrDiscoveryUnavailable, resp.StatusCode, string(b))
	}

	var markets marketsResponse
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return common.Address{}, fmt.Errorf("%w: decode response: %v", ErrDiscoveryUnavailable, err)
	}

	for _, m := range markets.Data {
		if common.IsHexAddress(m.Market) {
			return common.HexToAddress(m.Market), nil
		}
	}
	return common.Address{}, nil
}
