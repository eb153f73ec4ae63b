package dto

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type MeResponse struct {
	User         any `json:"user"`
	ActiveWallet any `json:"active_wallet"` // null until the user has a wallet
}

// QuoteResponse carries the swap preview. All amounts are decimal strings in
// smallest units; the rate is 1e18-scaled.
type QuoteResponse struct {
	Pool          string `json:"pool"`
	TokenAddress  string `json:"token_address"`
	TokenName     string `json:"token_name"`
	TokenSymbol   string `json:"token_symbol"`
	TokenDecimals uint8  `json:"token_decimals"`
	AmountWei     string `json:"amount_wei"`
	Rate          string `json:"rate"`
	ExpectedOut   string `json:"expected_out"`
	MinOut        string `json:"min_out"`
	SlippageBPS   int64  `json:"slippage_bps"`
}

type SwapResponse struct {
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url"`
}
