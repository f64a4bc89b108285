package rates

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/market"
	"github.com/exchnew/cartel-v1-demo/internal/metrics"
	"github.com/exchnew/cartel-v1-demo/internal/model"
)

var (
	// ErrSameCurrency rejects a quote between a currency and itself.
	ErrSameCurrency = errors.New("from and to currencies cannot be the same")
	// ErrUnsupportedAsset reports a currency code with no reference data.
	ErrUnsupportedAsset = errors.New("unsupported asset")
	// ErrUpstreamUnavailable reports that a spot price could not be obtained.
	// A quote is never served from stale or synthetic data: a missing price
	// anywhere in the chain fails the whole quote.
	ErrUpstreamUnavailable = errors.New("exchange rate service unavailable")
)

// SourceLive tags quotes derived from live provider data.
const SourceLive = "kucoin_live"

const rateDecimals = 8

// PriceSource is what the composer consumes from the market client.
type PriceSource interface {
	SpotPrice(ctx context.Context, symbol string) (float64, error)
	AllTickers(ctx context.Context) ([]market.Ticker, error)
}

// Config holds the pricing parameters owned by the settings layer.
type Config struct {
	MarkupPercent         float64       // markup applied to every displayed rate
	FloatFeePercent       float64       // float tier fee, percent
	FixedFeePercent       float64       // fixed tier fee, percent
	PartnerRateDifference float64       // percent adjustment for partner callers
	TableTTL              time.Duration // freshness window for the full rate table
}

func (c Config) withDefaults() Config {
	if c.FloatFeePercent == 0 {
		c.FloatFeePercent = 1.0
	}
	if c.FixedFeePercent == 0 {
		c.FixedFeePercent = 2.0
	}
	if c.TableTTL <= 0 {
		c.TableTTL = 30 * time.Second
	}
	return c
}

// Composer derives cross rates from spot prices and applies markup, fee tier,
// and partner adjustments. Safe for concurrent use.
type Composer struct {
	cfg    Config
	assets *asset.Registry
	source PriceSource
	cache  *market.PriceCache
	logger *zap.Logger

	tableMu sync.RWMutex
	table   model.RateTable
	tableAt time.Time
}

// NewComposer builds a composer with its dependencies.
func NewComposer(cfg Config, assets *asset.Registry, source PriceSource, cache *market.PriceCache, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		cfg:    cfg.withDefaults(),
		assets: assets,
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// Quote composes an exchange rate between two supported assets. With a
// partner context it additionally applies the partner rate difference and
// estimates the partner's commission.
func (c *Composer) Quote(ctx context.Context, fromCurrency, toCurrency string, tier model.FeeTier, partner *model.PartnerContext) (model.Quote, error) {
	if strings.EqualFold(strings.TrimSpace(fromCurrency), strings.TrimSpace(toCurrency)) {
		metrics.QuoteErrors.Inc()
		return model.Quote{}, fmt.Errorf("%w: %s", ErrSameCurrency, fromCurrency)
	}
	from, ok := c.assets.Lookup(fromCurrency)
	if !ok {
		metrics.QuoteErrors.Inc()
		return model.Quote{}, fmt.Errorf("%w: %s", ErrUnsupportedAsset, fromCurrency)
	}
	to, ok := c.assets.Lookup(toCurrency)
	if !ok {
		metrics.QuoteErrors.Inc()
		return model.Quote{}, fmt.Errorf("%w: %s", ErrUnsupportedAsset, toCurrency)
	}

	baseRate, err := c.crossRate(ctx, from, to)
	if err != nil {
		metrics.QuoteErrors.Inc()
		return model.Quote{}, err
	}

	markedRate := baseRate * (1 + c.cfg.MarkupPercent/100)

	effectiveRate := markedRate
	if partner != nil {
		effectiveRate = markedRate * (1 + c.cfg.PartnerRateDifference/100)
	}

	feePercent := c.cfg.FloatFeePercent
	if tier == model.FeeTierFixed {
		feePercent = c.cfg.FixedFeePercent
	}
	finalRate := effectiveRate * (1 - feePercent/100)

	quote := model.Quote{
		FromCurrency:  from.Code,
		ToCurrency:    to.Code,
		FeeTier:       tier,
		BaseRate:      round(baseRate),
		MarkupPercent: c.cfg.MarkupPercent,
		FeePercent:    feePercent,
		Rate:          round(finalRate),
		Source:        SourceLive,
		Timestamp:     time.Now().UTC(),
	}
	if partner != nil {
		quote.PartnerRate = round(effectiveRate)
		quote.PartnerCommission = round((effectiveRate - finalRate) * partner.CommissionRate / 100)
	}

	metrics.QuotesTotal.Inc()
	c.logger.Debug("quote composed",
		zap.String("from", from.Code),
		zap.String("to", to.Code),
		zap.String("tier", string(tier)),
		zap.Float64("base_rate", quote.BaseRate),
		zap.Float64("rate", quote.Rate),
	)
	return quote, nil
}

// crossRate resolves the spot cross rate for a pair, consulting the pair
// cache first and re-deriving from the single-symbol entries on a miss.
func (c *Composer) crossRate(ctx context.Context, from, to asset.Asset) (float64, error) {
	pairKey := market.Key{Kind: market.KindPair, Symbol: from.Code + "_" + to.Code}
	if rate, ok := c.cache.Get(pairKey); ok {
		metrics.PriceCacheHits.Inc()
		return rate, nil
	}

	priceFrom, err := c.spot(ctx, from)
	if err != nil {
		return 0, err
	}
	priceTo, err := c.spot(ctx, to)
	if err != nil {
		return 0, err
	}

	rate := priceFrom / priceTo
	c.cache.Put(pairKey, rate)
	return rate, nil
}

// spot returns an asset's spot price against the reference currency. Assets
// pegged 1:1 to the reference currency are priced at exactly 1.0 without a
// provider call.
func (c *Composer) spot(ctx context.Context, a asset.Asset) (float64, error) {
	if a.Pegged {
		return 1.0, nil
	}

	key := market.Key{Kind: market.KindSpot, Symbol: a.ProviderSymbol}
	if price, ok := c.cache.Get(key); ok {
		metrics.PriceCacheHits.Inc()
		return price, nil
	}
	metrics.PriceCacheMisses.Inc()

	price, err := c.source.SpotPrice(ctx, a.ProviderSymbol)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("market").Inc()
		return 0, fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, a.ProviderSymbol, err)
	}

	c.cache.Put(key, price)
	return price, nil
}

// AllRates refreshes the full rate table from the provider's one-shot ticker
// listing: a reference-currency leg per asset plus the cross-rate matrix.
func (c *Composer) AllRates(ctx context.Context) (model.RateTable, error) {
	c.tableMu.RLock()
	if !c.tableAt.IsZero() && time.Since(c.tableAt) < c.cfg.TableTTL {
		table := c.table
		c.tableMu.RUnlock()
		metrics.PriceCacheHits.Inc()
		return table, nil
	}
	c.tableMu.RUnlock()

	tickers, err := c.source.AllTickers(ctx)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("market").Inc()
		return model.RateTable{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	lastBySymbol := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		price, err := strconv.ParseFloat(t.Last, 64)
		if err != nil || price <= 0 {
			continue
		}
		lastBySymbol[t.Symbol] = price
	}

	usdPrices := make(map[string]float64)
	for _, code := range c.assets.Codes() {
		a, _ := c.assets.Lookup(code)
		if a.Pegged {
			usdPrices[a.Code] = 1.0
			continue
		}
		if price, ok := lastBySymbol[a.ProviderSymbol]; ok {
			usdPrices[a.Code] = price
		}
	}

	table := model.RateTable{
		Rates:     make(map[string]map[string]float64, len(usdPrices)),
		Timestamp: time.Now().UTC(),
		Source:    SourceLive,
	}
	for baseCode, basePrice := range usdPrices {
		table.Rates[baseCode] = map[string]float64{"USD": basePrice}
		for quoteCode, quotePrice := range usdPrices {
			if baseCode == quoteCode {
				continue
			}
			table.Rates[baseCode][quoteCode] = basePrice / quotePrice
		}
	}

	c.tableMu.Lock()
	c.table = table
	c.tableAt = time.Now()
	c.tableMu.Unlock()

	c.logger.Info("rate table refreshed", zap.Int("currencies", len(table.Rates)))
	return table, nil
}

// round normalizes rates and commissions to 8 decimal places.
func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(rateDecimals).InexactFloat64()
}
