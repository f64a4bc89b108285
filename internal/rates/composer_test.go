package rates

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/market"
	"github.com/exchnew/cartel-v1-demo/internal/model"
)

type stubSource struct {
	mu          sync.Mutex
	prices      map[string]float64
	tickers     []market.Ticker
	spotCalls   map[string]int
	tickerCalls int
}

func newStubSource(prices map[string]float64) *stubSource {
	return &stubSource{prices: prices, spotCalls: make(map[string]int)}
}

func (s *stubSource) SpotPrice(_ context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spotCalls[symbol]++
	price, ok := s.prices[symbol]
	if !ok {
		return 0, market.ErrUnavailable
	}
	return price, nil
}

func (s *stubSource) AllTickers(_ context.Context) ([]market.Ticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickerCalls++
	if len(s.tickers) == 0 {
		return nil, market.ErrUnavailable
	}
	return s.tickers, nil
}

func (s *stubSource) calls(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spotCalls[symbol]
}

func newTestComposer(cfg Config, source PriceSource) *Composer {
	return NewComposer(cfg, asset.DefaultRegistry(), source, market.NewPriceCache(30*time.Second), nil)
}

func TestQuoteFeeTiers(t *testing.T) {
	source := newStubSource(map[string]float64{
		"BTC-USDT": 60000,
		"ETH-USDT": 3600,
	})
	composer := newTestComposer(Config{}, source)

	floatQuote, err := composer.Quote(context.Background(), "BTC", "ETH", model.FeeTierFloat, nil)
	require.NoError(t, err)
	assert.Equal(t, 16.66666667, floatQuote.BaseRate)
	assert.Equal(t, 16.5, floatQuote.Rate)
	assert.Equal(t, 1.0, floatQuote.FeePercent)
	assert.Equal(t, SourceLive, floatQuote.Source)

	fixedQuote, err := composer.Quote(context.Background(), "BTC", "ETH", model.FeeTierFixed, nil)
	require.NoError(t, err)
	assert.Equal(t, 16.33333333, fixedQuote.Rate)
	assert.Equal(t, 2.0, fixedQuote.FeePercent)

	assert.Less(t, fixedQuote.Rate, floatQuote.Rate)
}

func TestQuoteSameCurrency(t *testing.T) {
	source := newStubSource(nil)
	composer := newTestComposer(Config{}, source)

	for _, code := range asset.DefaultRegistry().Codes() {
		_, err := composer.Quote(context.Background(), code, code, model.FeeTierFloat, nil)
		assert.ErrorIs(t, err, ErrSameCurrency, code)
	}
}

func TestQuoteUnsupportedAsset(t *testing.T) {
	source := newStubSource(map[string]float64{"BTC-USDT": 60000})
	composer := newTestComposer(Config{}, source)

	_, err := composer.Quote(context.Background(), "BTC", "SHIB", model.FeeTierFloat, nil)
	assert.ErrorIs(t, err, ErrUnsupportedAsset)

	_, err = composer.Quote(context.Background(), "SHIB", "BTC", model.FeeTierFloat, nil)
	assert.ErrorIs(t, err, ErrUnsupportedAsset)
}

func TestQuoteUpstreamFailureAbortsWholeQuote(t *testing.T) {
	// ETH price is missing: the quote must fail entirely, never fall back to
	// a partial or synthetic rate.
	source := newStubSource(map[string]float64{"BTC-USDT": 60000})
	composer := newTestComposer(Config{}, source)

	_, err := composer.Quote(context.Background(), "BTC", "ETH", model.FeeTierFloat, nil)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestQuoteCrossRateReciprocity(t *testing.T) {
	source := newStubSource(map[string]float64{
		"BTC-USDT": 60000,
		"LTC-USDT": 85.5,
	})
	composer := newTestComposer(Config{}, source)

	forward, err := composer.Quote(context.Background(), "BTC", "LTC", model.FeeTierFloat, nil)
	require.NoError(t, err)
	backward, err := composer.Quote(context.Background(), "LTC", "BTC", model.FeeTierFloat, nil)
	require.NoError(t, err)

	assert.InEpsilon(t, 1.0, forward.BaseRate*backward.BaseRate, 1e-6)
}

func TestQuoteUsesCacheWithinFreshnessWindow(t *testing.T) {
	source := newStubSource(map[string]float64{
		"BTC-USDT": 60000,
		"ETH-USDT": 3600,
	})
	composer := newTestComposer(Config{}, source)

	_, err := composer.Quote(context.Background(), "BTC", "ETH", model.FeeTierFloat, nil)
	require.NoError(t, err)
	_, err = composer.Quote(context.Background(), "BTC", "ETH", model.FeeTierFixed, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls("BTC-USDT"))
	assert.Equal(t, 1, source.calls("ETH-USDT"))
}

func TestQuotePeggedAssetSkipsProvider(t *testing.T) {
	source := newStubSource(map[string]float64{"BTC-USDT": 60000})
	composer := newTestComposer(Config{}, source)

	quote, err := composer.Quote(context.Background(), "BTC", "USDT-ERC20", model.FeeTierFloat, nil)
	require.NoError(t, err)
	assert.Equal(t, 60000.0, quote.BaseRate)

	inverse, err := composer.Quote(context.Background(), "USDT-ERC20", "BTC", model.FeeTierFloat, nil)
	require.NoError(t, err)
	assert.InEpsilon(t, 1.0/60000.0, inverse.BaseRate, 1e-9)

	assert.Equal(t, 0, source.calls("USDT-USD"))
}

func TestQuoteMarkup(t *testing.T) {
	source := newStubSource(map[string]float64{
		"BTC-USDT": 60000,
		"ETH-USDT": 3600,
	})
	composer := newTestComposer(Config{MarkupPercent: 10}, source)

	quote, err := composer.Quote(context.Background(), "BTC", "ETH", model.FeeTierFloat, nil)
	require.NoError(t, err)

	base := 60000.0 / 3600.0
	assert.Equal(t, round(base), quote.BaseRate)
	assert.Equal(t, round(base*1.10*0.99), quote.Rate)
	assert.Equal(t, 10.0, quote.MarkupPercent)
}

func TestQuotePartnerPricing(t *testing.T) {
	source := newStubSource(map[string]float64{
		"BTC-USDT": 60000,
		"ETH-USDT": 3600,
	})
	composer := newTestComposer(Config{PartnerRateDifference: 0.5}, source)

	partner := &model.PartnerContext{ID: "p-1", CommissionRate: 30}
	quote, err := composer.Quote(context.Background(), "BTC", "ETH", model.FeeTierFloat, partner)
	require.NoError(t, err)

	base := 60000.0 / 3600.0
	partnerRate := base * 1.005
	finalRate := partnerRate * 0.99

	assert.Equal(t, round(partnerRate), quote.PartnerRate)
	assert.Equal(t, round(finalRate), quote.Rate)
	assert.Equal(t, round((partnerRate-finalRate)*0.30), quote.PartnerCommission)
}

func TestQuoteWithoutPartnerHasNoCommission(t *testing.T) {
	source := newStubSource(map[string]float64{
		"BTC-USDT": 60000,
		"ETH-USDT": 3600,
	})
	composer := newTestComposer(Config{PartnerRateDifference: 0.5}, source)

	quote, err := composer.Quote(context.Background(), "BTC", "ETH", model.FeeTierFloat, nil)
	require.NoError(t, err)

	// Partner rate difference applies only with a partner context.
	assert.Equal(t, round(60000.0/3600.0*0.99), quote.Rate)
	assert.Zero(t, quote.PartnerRate)
	assert.Zero(t, quote.PartnerCommission)
}

func TestAllRates(t *testing.T) {
	source := newStubSource(nil)
	source.tickers = []market.Ticker{
		{Symbol: "BTC-USDT", Last: "60000"},
		{Symbol: "ETH-USDT", Last: "3600"},
		{Symbol: "XMR-USDT", Last: "160"},
		{Symbol: "LTC-USDT", Last: "85.5"},
		{Symbol: "XRP-USDT", Last: "0.52"},
		{Symbol: "DOGE-USDT", Last: "0.12"},
		{Symbol: "TRX-USDT", Last: "0.11"},
		{Symbol: "USDC-USDT", Last: "0.999"},
		{Symbol: "ZEC-USDT", Last: "30"}, // unsupported, ignored
	}
	composer := newTestComposer(Config{}, source)

	table, err := composer.AllRates(context.Background())
	require.NoError(t, err)

	assert.Len(t, table.Rates, 10)
	assert.Equal(t, 60000.0, table.Rates["BTC"]["USD"])
	assert.InEpsilon(t, 60000.0/3600.0, table.Rates["BTC"]["ETH"], 1e-9)
	assert.Equal(t, 1.0, table.Rates["USDT-ERC20"]["USD"])
	assert.NotContains(t, table.Rates, "ZEC")
	assert.Equal(t, SourceLive, table.Source)

	// Second call is served from the table cache.
	_, err = composer.AllRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.tickerCalls)
}

func TestAllRatesUpstreamFailure(t *testing.T) {
	composer := newTestComposer(Config{}, newStubSource(nil))

	_, err := composer.AllRates(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
