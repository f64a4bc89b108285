package asset

import (
	"sort"
	"strings"
)

// Family identifies which chain adapter serves an asset.
type Family string

const (
	FamilyUTXO     Family = "utxo"
	FamilyEthereum Family = "ethereum"
	FamilyERC20    Family = "erc20"
	FamilyXRPL     Family = "xrpl"
	FamilyTron     Family = "tron"
	FamilyTRC20    Family = "trc20"
	FamilyPrivate  Family = "private"
)

// Asset is immutable reference data for one supported currency.
type Asset struct {
	Code           string
	Name           string
	Family         Family
	ProviderSymbol string // market-data ticker versus the reference currency
	Pegged         bool   // 1:1 to the reference currency, never quoted upstream
	Contract       string // token contract address, token assets only
	Decimals       int
	MinAmount      float64
	MaxAmount      float64

	// RequiredConfirmations gates when a detected deposit may proceed.
	RequiredConfirmations int64
	// AmountTolerance is the absolute slack allowed when matching an observed
	// deposit against an expected amount.
	AmountTolerance float64
}

// Registry resolves currency codes to reference data. Loaded once at startup
// and read-only afterwards.
type Registry struct {
	byCode map[string]Asset
}

// NewRegistry builds a registry from the given asset table.
func NewRegistry(assets []Asset) *Registry {
	byCode := make(map[string]Asset, len(assets))
	for _, a := range assets {
		byCode[strings.ToUpper(a.Code)] = a
	}
	return &Registry{byCode: byCode}
}

// Lookup returns the asset for a currency code, case-insensitively.
func (r *Registry) Lookup(code string) (Asset, bool) {
	a, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

// Codes returns all supported currency codes, sorted.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// DefaultRegistry returns the production asset table.
func DefaultRegistry() *Registry {
	return NewRegistry([]Asset{
		{
			Code: "BTC", Name: "Bitcoin", Family: FamilyUTXO,
			ProviderSymbol: "BTC-USDT", Decimals: 8,
			MinAmount: 0.001, MaxAmount: 10.0,
			RequiredConfirmations: 2, AmountTolerance: 0.0001,
		},
		{
			Code: "ETH", Name: "Ethereum", Family: FamilyEthereum,
			ProviderSymbol: "ETH-USDT", Decimals: 18,
			MinAmount: 0.01, MaxAmount: 100.0,
			RequiredConfirmations: 12, AmountTolerance: 0.001,
		},
		{
			Code: "XMR", Name: "Monero", Family: FamilyPrivate,
			ProviderSymbol: "XMR-USDT", Decimals: 12,
			MinAmount: 0.1, MaxAmount: 50.0,
			RequiredConfirmations: 10, AmountTolerance: 0.0001,
		},
		{
			Code: "LTC", Name: "Litecoin", Family: FamilyUTXO,
			ProviderSymbol: "LTC-USDT", Decimals: 8,
			MinAmount: 0.1, MaxAmount: 100.0,
			RequiredConfirmations: 6, AmountTolerance: 0.0001,
		},
		{
			Code: "XRP", Name: "Ripple", Family: FamilyXRPL,
			ProviderSymbol: "XRP-USDT", Decimals: 6,
			MinAmount: 10.0, MaxAmount: 10000.0,
			RequiredConfirmations: 200, AmountTolerance: 0.001,
		},
		{
			Code: "DOGE", Name: "Dogecoin", Family: FamilyUTXO,
			ProviderSymbol: "DOGE-USDT", Decimals: 8,
			MinAmount: 100.0, MaxAmount: 100000.0,
			RequiredConfirmations: 10, AmountTolerance: 0.01,
		},
		{
			Code: "USDT-ERC20", Name: "Tether USD (ERC20)", Family: FamilyERC20,
			ProviderSymbol: "USDT-USD", Pegged: true,
			Contract: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6,
			MinAmount: 10.0, MaxAmount: 50000.0,
			RequiredConfirmations: 12, AmountTolerance: 0.01,
		},
		{
			Code: "USDC-ERC20", Name: "USD Coin (ERC20)", Family: FamilyERC20,
			ProviderSymbol: "USDC-USDT",
			Contract: "0xA0b86a33E6411a3ce648D8B8a7b5a2cF5b7B2b2b", Decimals: 6,
			MinAmount: 10.0, MaxAmount: 50000.0,
			RequiredConfirmations: 12, AmountTolerance: 0.01,
		},
		{
			Code: "USDT-TRX", Name: "Tether USD (TRC20)", Family: FamilyTRC20,
			ProviderSymbol: "USDT-USD", Pegged: true,
			Contract: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", Decimals: 6,
			MinAmount: 10.0, MaxAmount: 50000.0,
			RequiredConfirmations: 19, AmountTolerance: 0.01,
		},
		{
			Code: "TRX", Name: "Tron", Family: FamilyTron,
			ProviderSymbol: "TRX-USDT", Decimals: 6,
			MinAmount: 100.0, MaxAmount: 1000000.0,
			RequiredConfirmations: 19, AmountTolerance: 0.01,
		},
	})
}
