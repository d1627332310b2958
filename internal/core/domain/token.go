package domain

// TokenInfo is ERC-20 metadata. Decimals is nil when it could not be resolved.
type TokenInfo struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals *int   `json:"decimals,omitempty"`
}
