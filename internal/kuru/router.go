package kuru

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const routerJSON = `[
	{"inputs":[
		{"name":"_marketAddresses","type":"address[]"},
		{"name":"_isBuy","type":"bool[]"},
		{"name":"_nativeSend","type":"bool[]"},
		{"name":"_debitToken","type":"address"},
		{"name":"_creditToken","type":"address"},
		{"name":"_amount","type":"uint256"},
		{"name":"_minAmountOut","type":"uint256"}
	],"name":"anyToAnySwap","outputs":[{"name":"","type":"uint256"}],"stateMutability":"payable","type":"function"}
]`

var routerABI = mustABI(routerJSON)

// BuildSwapCalldata encodes router.anyToAnySwap for a single-pool route that
// buys creditToken with the native asset carried in the transaction value.
func BuildSwapCalldata(pool, debitToken, creditToken common.Address, amount, minAmountOut *big.Int) ([]byte, error) {
	return routerABI.Pack("anyToAnySwap",
		[]common.Address{pool},
		[]bool{true}, // buy direction
		[]bool{true}, // amount travels as native value
		debitToken,
		creditToken,
		amount,
		minAmountOut,
	)
}

func mustABI(js string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(js))
	if err != nil {
		panic(err)
	}
	return parsed
}
