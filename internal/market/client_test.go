package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpotPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/market/orderbook/level1", r.URL.Path)
		assert.Equal(t, "BTC-USDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"code":"200000","data":{"price":"60000.1"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	price, err := client.SpotPrice(context.Background(), "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 60000.1, price)
}

func TestSpotPriceNonPositive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":"200000","data":{"price":"0"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.SpotPrice(context.Background(), "BTC-USDT")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSpotPriceMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":"200000","data":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.SpotPrice(context.Background(), "BTC-USDT")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSpotPriceHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.SpotPrice(context.Background(), "BTC-USDT")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAllTickers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/market/allTickers", r.URL.Path)
		w.Write([]byte(`{"data":{"ticker":[{"symbol":"BTC-USDT","last":"60000"},{"symbol":"ETH-USDT","last":"3600"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	tickers, err := client.AllTickers(context.Background())
	require.NoError(t, err)
	require.Len(t, tickers, 2)
	assert.Equal(t, "BTC-USDT", tickers[0].Symbol)
	assert.Equal(t, "3600", tickers[1].Last)
}

func TestAllTickersEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"ticker":[]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.AllTickers(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/timestamp", r.URL.Path)
		w.Write([]byte(`{"code":"200000","data":1700000000000}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	assert.NoError(t, client.Ping(context.Background()))
}
