package dto

type AuthTelegramRequest struct {
	InitData string `json:"init_data"`
}

type CreateWalletRequest struct {
	Label string `json:"label"`
}

type ImportWalletRequest struct {
	Label      string `json:"label"`
	PrivateKey string `json:"private_key"`
}

type SwapRequest struct {
	TokenAddress string `json:"token_address"`
	Amount       string `json:"amount"` // native amount, decimal string
}

type UpdateSessionRequest struct {
	State        string `json:"state"`
	Mode         string `json:"mode,omitempty"`
	WalletLabel  string `json:"wallet_label,omitempty"`
	TokenAddress string `json:"token_address,omitempty"`
	PoolAddress  string `json:"pool_address,omitempty"`
	Amount       string `json:"amount,omitempty"`
}
