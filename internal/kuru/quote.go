package kuru

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrQuoteUnavailable is returned when the route contract cannot produce a
// positive rate for a pool.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// DefaultSlippageBPS is the safety margin subtracted from an expected output
// to derive the minimum acceptable one.
const DefaultSlippageBPS = 1500

// rateUnit is the fixed-point scale of prices returned by the route contract.
var rateUnit = big.NewInt(1e18)

const priceRouteJSON = `[
	{"inputs":[{"name":"route","type":"address[]"},{"name":"isBuy","type":"bool[]"}],"name":"calculatePriceOverRoute","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var priceRouteABI = mustABI(priceRouteJSON)

// viewCaller is the read-only slice of the chain client the quoter needs.
type viewCaller interface {
	CallView(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Quoter obtains exchange rates from the on-chain price-route contract.
type Quoter struct {
	caller     viewCaller
	priceRoute common.Address
}

func NewQuoter(caller viewCaller, priceRoute common.Address) *Quoter {
	return &Quoter{caller: caller, priceRoute: priceRoute}
}

// ExpectedRate returns the 1e18-scaled price over a single-pool route. Every
// failure mode, including a zero rate, surfaces as ErrQuoteUnavailable: a
// quote is valid for exactly one swap attempt and is never cached.
func (q *Quoter) ExpectedRate(ctx context.Context, pool common.Address, isBuy bool) (*big.Int, error) {
	data, err := priceRouteABI.Pack("calculatePriceOverRoute", []common.Address{pool}, []bool{isBuy})
	if err != nil {
		return nil, fmt.Errorf("pack route price call: %w", err)
	}

	ret, err := q.caller.CallView(ctx, q.priceRoute, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	out, err := priceRouteABI.Unpack("calculatePriceOverRoute", ret)
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("%w: malformed rate", ErrQuoteUnavailable)
	}
	rate, ok := out[0].(*big.Int)
	if !ok || rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: non-positive rate", ErrQuoteUnavailable)
	}
	return rate, nil
}

// ExpectedOutput is floor(amountIn * rate / 1e18), in the output token's
// smallest unit.
func ExpectedOutput(amountIn, rate *big.Int) *big.Int {
	out := new(big.Int).Mul(amountIn, rate)
	return out.Quo(out, rateUnit)
}

// MinOutput scales the expected output down by the slippage tolerance. Both
// divisions truncate: the bound must round the same way the on-chain
// settlement does.
func MinOutput(amountIn, rate *big.Int, toleranceBps int64) *big.Int {
	expected := ExpectedOutput(amountIn, rate)
	expected.Mul(expected, big.NewInt(10000-toleranceBps))
	return expected.Quo(expected, big.NewInt(10000))
}
