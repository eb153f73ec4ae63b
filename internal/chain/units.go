package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseAmount converts a user-entered decimal string into the token's
// smallest unit. Digits beyond the token's precision are truncated, matching
// the floor semantics used by the swap math. Negative and malformed inputs
// are rejected.
func ParseAmount(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.ContainsAny(s, "+-") {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > decimals {
		frac = frac[:decimals]
	}
	for len(frac) < decimals {
		frac += "0"
	}

	amount, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	return amount, nil
}

// FormatAmount renders a smallest-unit amount as a decimal string with
// trailing zeros trimmed.
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, rem := new(big.Int).QuoRem(amount, unit, new(big.Int))

	fracDigits := rem.String()
	for len(fracDigits) < decimals {
		fracDigits = "0" + fracDigits
	}
	frac := strings.TrimRight(fracDigits, "0")
	if frac == "" {
		return whole.String()
	}
	return whole.String() + "." + frac
}
