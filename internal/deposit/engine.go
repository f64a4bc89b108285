package deposit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/metrics"
	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// ErrUnsupportedCurrency reports a deposit check for a currency with no
// adapter.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Default explorer endpoints.
const (
	DefaultBlockCypherURL = "https://api.blockcypher.com"
	DefaultEtherscanURL   = "https://api.etherscan.io"
	DefaultXRPLURL        = "https://s1.ripple.com:51234"
	DefaultTronGridURL    = "https://api.trongrid.io"
)

// Upstreams configures the explorer endpoints shared by all adapters. One
// HTTP client is constructed at startup and shared across adapters; its
// timeout bounds every explorer call.
type Upstreams struct {
	HTTPClient      *http.Client
	BlockCypherURL  string
	EtherscanURL    string
	EtherscanAPIKey string
	XRPLURL         string
	TronGridURL     string

	// Heights overrides the block-height source for account-model chains,
	// e.g. an RPC-backed client. Nil falls back to the explorer proxy.
	Heights HeightSource
}

func (u Upstreams) withDefaults() Upstreams {
	if u.HTTPClient == nil {
		u.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if u.BlockCypherURL == "" {
		u.BlockCypherURL = DefaultBlockCypherURL
	}
	if u.EtherscanURL == "" {
		u.EtherscanURL = DefaultEtherscanURL
	}
	if u.XRPLURL == "" {
		u.XRPLURL = DefaultXRPLURL
	}
	if u.TronGridURL == "" {
		u.TronGridURL = DefaultTronGridURL
	}
	return u
}

// Engine dispatches deposit checks to the adapter registered for a currency
// and applies the required-confirmations policy to the normalized result.
type Engine struct {
	assets   *asset.Registry
	adapters map[string]Adapter
	logger   *zap.Logger
}

// NewEngine builds the currency-to-adapter table from the asset registry.
// Adding a chain means adding one adapter implementation and one registry
// row.
func NewEngine(assets *asset.Registry, ups Upstreams, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ups = ups.withDefaults()

	adapters := make(map[string]Adapter)
	for _, code := range assets.Codes() {
		a, _ := assets.Lookup(code)
		adapter, err := buildAdapter(a, ups)
		if err != nil {
			return nil, err
		}
		adapters[a.Code] = adapter
	}

	return &Engine{assets: assets, adapters: adapters, logger: logger}, nil
}

func buildAdapter(a asset.Asset, ups Upstreams) (Adapter, error) {
	switch a.Family {
	case asset.FamilyUTXO:
		return newBlockCypherAdapter(ups.HTTPClient, ups.BlockCypherURL, a), nil
	case asset.FamilyEthereum, asset.FamilyERC20:
		return newEtherscanAdapter(ups.HTTPClient, ups.EtherscanURL, ups.EtherscanAPIKey, ups.Heights, a), nil
	case asset.FamilyXRPL:
		return newXRPLAdapter(ups.HTTPClient, ups.XRPLURL, a), nil
	case asset.FamilyTron, asset.FamilyTRC20:
		return newTronGridAdapter(ups.HTTPClient, ups.TronGridURL, a), nil
	case asset.FamilyPrivate:
		return newUnmonitoredAdapter(a), nil
	default:
		return nil, fmt.Errorf("no adapter for chain family %q (%s)", a.Family, a.Code)
	}
}

// CheckDeposit asks the currency's adapter whether the address has received
// a deposit and decides, in one place, whether it is confirmed enough to
// proceed. The engine holds no deposit history: every poll re-derives the
// confirmation count from the upstream.
func (e *Engine) CheckDeposit(ctx context.Context, currency, address string, expectedAmount *float64) (model.DepositCheckResult, error) {
	a, ok := e.assets.Lookup(currency)
	if !ok {
		return model.DepositCheckResult{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}

	adapter := e.adapters[a.Code]
	result := adapter.CheckAddress(ctx, address, expectedAmount)

	result.RequiredConfirmations = a.RequiredConfirmations
	result.Confirmed = result.Detected && result.Confirmations >= a.RequiredConfirmations
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}

	metrics.DepositChecks.WithLabelValues(a.Code, outcome(result)).Inc()
	e.logger.Debug("deposit check",
		zap.String("currency", a.Code),
		zap.String("address", address),
		zap.Bool("detected", result.Detected),
		zap.Int64("confirmations", result.Confirmations),
		zap.Bool("confirmed", result.Confirmed),
		zap.String("error_tag", result.Error),
	)
	return result, nil
}

func outcome(r model.DepositCheckResult) string {
	switch {
	case r.Error != "":
		return "error"
	case !r.Detected:
		return "pending"
	case r.Confirmed:
		return "confirmed"
	default:
		return "detected"
	}
}
