package chain

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// The read surface must pack to the canonical ERC20 selectors, otherwise
// every deployed token would reject our calls.
func TestERC20Selectors(t *testing.T) {
	tests := []struct {
		method   string
		selector string
	}{
		{"name", "06fdde03"},
		{"symbol", "95d89b41"},
		{"decimals", "313ce567"},
		{"balanceOf", "70a08231"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m, ok := erc20ABI.Methods[tt.method]
			if !ok {
				t.Fatalf("method %s missing from abi", tt.method)
			}
			want, err := hex.DecodeString(tt.selector)
			if err != nil {
				t.Fatalf("bad golden selector: %v", err)
			}
			if !bytes.Equal(m.ID, want) {
				t.Errorf("selector = %x, want %s", m.ID, tt.selector)
			}
		})
	}
}

func TestERC20BalanceOfCalldata(t *testing.T) {
	owner := common.HexToAddress("0xe0590015a873bf326bd645c3e1266d4db41c4e6b")

	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		t.Fatalf("pack balanceOf: %v", err)
	}
	if len(data) != 4+32 {
		t.Fatalf("calldata length = %d, want 36", len(data))
	}
	// Address occupies the low 20 bytes of the single word.
	if !bytes.Equal(data[16:36], owner.Bytes()) {
		t.Errorf("owner bytes = %x, want %x", data[16:36], owner.Bytes())
	}
	for _, b := range data[4:16] {
		if b != 0 {
			t.Fatalf("padding not zeroed: %x", data[4:16])
		}
	}
}

// Empty returndata means the address did not answer the call at all; the
// unpack must fail so TokenMetadata can report ErrInvalidToken instead of
// fabricating zero values.
func TestERC20UnpackEmptyReturndata(t *testing.T) {
	for _, method := range []string{"name", "symbol", "decimals", "balanceOf"} {
		out, err := erc20ABI.Unpack(method, nil)
		if err == nil && len(out) > 0 {
			t.Errorf("%s: unpack of empty returndata produced %v, want failure", method, out)
		}
	}
}
