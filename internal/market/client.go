package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the KuCoin public market-data API root.
const DefaultBaseURL = "https://api.kucoin.com"

// ErrUnavailable reports that the provider was unreachable, returned a
// malformed payload, or returned a non-positive price. Callers must treat it
// as "no data", never as zero.
var ErrUnavailable = errors.New("market data unavailable")

// Client fetches live spot prices from one market-data provider over HTTP.
// Construct one per process and share it; it is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a market client. Every upstream call is bounded by the
// given timeout; a timeout is reported like any other upstream failure.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Close releases idle upstream connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

type tickerResponse struct {
	Code string `json:"code"`
	Data struct {
		Price string `json:"price"`
	} `json:"data"`
}

// SpotPrice returns the live spot price for a provider ticker symbol.
func (c *Client) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	var resp tickerResponse
	path := "/api/v1/market/orderbook/level1?symbol=" + symbol
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return 0, fmt.Errorf("%w: ticker %s: %v", ErrUnavailable, symbol, err)
	}

	price, err := strconv.ParseFloat(resp.Data.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: ticker %s: bad price %q", ErrUnavailable, symbol, resp.Data.Price)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: ticker %s: non-positive price %v", ErrUnavailable, symbol, price)
	}
	return price, nil
}

// Ticker is one row of the provider's full ticker listing.
type Ticker struct {
	Symbol string `json:"symbol"`
	Last   string `json:"last"`
}

type allTickersResponse struct {
	Data struct {
		Ticker []Ticker `json:"ticker"`
	} `json:"data"`
}

// AllTickers enumerates every ticker the provider publishes in one call.
// Used by the full-table refresh path only.
func (c *Client) AllTickers(ctx context.Context) ([]Ticker, error) {
	var resp allTickersResponse
	if err := c.getJSON(ctx, "/api/v1/market/allTickers", &resp); err != nil {
		return nil, fmt.Errorf("%w: all tickers: %v", ErrUnavailable, err)
	}
	if len(resp.Data.Ticker) == 0 {
		return nil, fmt.Errorf("%w: all tickers: empty listing", ErrUnavailable)
	}
	return resp.Data.Ticker, nil
}

// Ping probes provider connectivity via the server-time endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var resp struct {
		Data int64 `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/v1/timestamp", &resp); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	if resp.Data == 0 {
		return fmt.Errorf("%w: ping: empty server time", ErrUnavailable)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
