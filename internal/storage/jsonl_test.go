package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exchnew/cartel-v1-demo/internal/model"
)

func TestJsonlSinkAppendsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "out.jsonl")
	sink := NewJsonlSink(path)
	ctx := context.Background()

	quote := model.Quote{
		FromCurrency: "BTC",
		ToCurrency:   "ETH",
		FeeTier:      model.FeeTierFloat,
		BaseRate:     16.66666667,
		Rate:         16.5,
		Source:       "kucoin_live",
		Timestamp:    time.Now().UTC(),
	}
	require.NoError(t, sink.PutQuote(ctx, quote))

	result := model.DepositCheckResult{
		Currency:      "BTC",
		Detected:      true,
		TxHash:        "abc",
		Amount:        0.5,
		Confirmations: 3,
		Timestamp:     time.Now().UTC(),
	}
	require.NoError(t, sink.PutDepositCheck(ctx, result))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var records []jsonlRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record jsonlRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		records = append(records, record)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, records, 2)
	assert.Equal(t, "quote", records[0].Kind)
	require.NotNil(t, records[0].Quote)
	assert.Equal(t, 16.5, records[0].Quote.Rate)
	assert.Nil(t, records[0].Deposit)

	assert.Equal(t, "deposit_check", records[1].Kind)
	require.NotNil(t, records[1].Deposit)
	assert.Equal(t, "abc", records[1].Deposit.TxHash)
}
