package deposit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/metrics"
	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// satoshiPerCoin converts the smallest unit of Bitcoin-family chains to the
// display unit.
const satoshiPerCoin = 1e8

// blockCypherAdapter reads incoming references for a UTXO-chain address from
// the BlockCypher explorer. Confirmation counts are explorer-provided.
type blockCypherAdapter struct {
	client  *http.Client
	baseURL string
	coin    string
	asset   asset.Asset
}

func newBlockCypherAdapter(client *http.Client, baseURL string, a asset.Asset) *blockCypherAdapter {
	return &blockCypherAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		coin:    strings.ToLower(a.Code),
		asset:   a,
	}
}

type blockCypherAddress struct {
	TxRefs []struct {
		TxHash        string    `json:"tx_hash"`
		Value         int64     `json:"value"`
		Confirmations int64     `json:"confirmations"`
		Confirmed     time.Time `json:"confirmed"`
	} `json:"txrefs"`
}

func (a *blockCypherAdapter) CheckAddress(ctx context.Context, address string, expectedAmount *float64) model.DepositCheckResult {
	url := fmt.Sprintf("%s/v1/%s/main/addrs/%s", a.baseURL, a.coin, address)

	var resp blockCypherAddress
	if err := getJSON(ctx, a.client, url, &resp); err != nil {
		metrics.UpstreamErrors.WithLabelValues("blockcypher").Inc()
		return notDetected(a.asset.Code, model.DepositErrUpstream)
	}
	if len(resp.TxRefs) == 0 {
		return notDetected(a.asset.Code, "")
	}

	latest := resp.TxRefs[0]
	amount := float64(latest.Value) / satoshiPerCoin

	observedAt := latest.Confirmed
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	return model.DepositCheckResult{
		Currency:       a.asset.Code,
		Detected:       true,
		TxHash:         latest.TxHash,
		Amount:         amount,
		Confirmations:  latest.Confirmations,
		ExpectedAmount: expectedAmount,
		AmountMatch:    matchAmount(amount, expectedAmount, a.asset.AmountTolerance),
		Timestamp:      observedAt,
	}
}
