package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCaseInsensitive(t *testing.T) {
	registry := DefaultRegistry()

	a, ok := registry.Lookup("btc")
	require.True(t, ok)
	assert.Equal(t, "BTC", a.Code)

	a, ok = registry.Lookup("  usdt-erc20 ")
	require.True(t, ok)
	assert.Equal(t, "USDT-ERC20", a.Code)

	_, ok = registry.Lookup("SHIB")
	assert.False(t, ok)
}

func TestDefaultRegistryComplete(t *testing.T) {
	registry := DefaultRegistry()
	codes := registry.Codes()
	assert.Len(t, codes, 10)

	for _, code := range codes {
		a, ok := registry.Lookup(code)
		require.True(t, ok)
		assert.NotEmpty(t, a.Family, code)
		assert.NotEmpty(t, a.ProviderSymbol, code)
		assert.Positive(t, a.RequiredConfirmations, code)
		assert.Positive(t, a.AmountTolerance, code)
		assert.Less(t, a.MinAmount, a.MaxAmount, code)
	}
}

func TestTokenAssetsCarryContracts(t *testing.T) {
	registry := DefaultRegistry()

	for _, code := range []string{"USDT-ERC20", "USDC-ERC20", "USDT-TRX"} {
		a, ok := registry.Lookup(code)
		require.True(t, ok)
		assert.NotEmpty(t, a.Contract, code)
		assert.Equal(t, 6, a.Decimals, code)
	}
}

func TestPeggedAssets(t *testing.T) {
	registry := DefaultRegistry()

	for _, code := range registry.Codes() {
		a, _ := registry.Lookup(code)
		pegged := code == "USDT-ERC20" || code == "USDT-TRX"
		assert.Equal(t, pegged, a.Pegged, code)
	}
}
