package deposit

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/metrics"
	"github.com/exchnew/cartel-v1-demo/internal/model"
)

const (
	// dropsPerXRP converts the ledger's native drops to XRP.
	dropsPerXRP = 1e6
	// xrplValidatedConfirmations stands in for a confirmation count on a
	// ledger whose validation is effectively final.
	xrplValidatedConfirmations = 500
)

// xrplAdapter queries the XRP Ledger JSON-RPC for the most recent account
// transaction. The ledger has no rolling confirmation count: a validated
// transaction is final, reported as a fixed large count.
type xrplAdapter struct {
	client  *http.Client
	baseURL string
	asset   asset.Asset
}

func newXRPLAdapter(client *http.Client, baseURL string, a asset.Asset) *xrplAdapter {
	return &xrplAdapter{client: client, baseURL: strings.TrimRight(baseURL, "/"), asset: a}
}

type xrplAccountTxRequest struct {
	Method string            `json:"method"`
	Params []xrplAccountTxIn `json:"params"`
}

type xrplAccountTxIn struct {
	Account        string `json:"account"`
	LedgerIndexMin int    `json:"ledger_index_min"`
	LedgerIndexMax int    `json:"ledger_index_max"`
	Limit          int    `json:"limit"`
}

type xrplAccountTxResponse struct {
	Result struct {
		Transactions []struct {
			Validated bool `json:"validated"`
			Tx        struct {
				Hash string `json:"hash"`
				// Amount is a drops string for XRP payments and an object
				// for issued currencies.
				Amount json.RawMessage `json:"Amount"`
			} `json:"tx"`
		} `json:"transactions"`
	} `json:"result"`
}

func (a *xrplAdapter) CheckAddress(ctx context.Context, address string, expectedAmount *float64) model.DepositCheckResult {
	req := xrplAccountTxRequest{
		Method: "account_tx",
		Params: []xrplAccountTxIn{{
			Account:        address,
			LedgerIndexMin: -1,
			LedgerIndexMax: -1,
			Limit:          1,
		}},
	}

	var resp xrplAccountTxResponse
	if err := postJSON(ctx, a.client, a.baseURL+"/", req, &resp); err != nil {
		metrics.UpstreamErrors.WithLabelValues("xrpl").Inc()
		return notDetected(a.asset.Code, model.DepositErrUpstream)
	}
	if len(resp.Result.Transactions) == 0 {
		return notDetected(a.asset.Code, "")
	}

	latest := resp.Result.Transactions[0]
	var dropsText string
	if err := json.Unmarshal(latest.Tx.Amount, &dropsText); err != nil {
		// Issued-currency payments carry an object Amount; those are not
		// XRP deposits.
		return notDetected(a.asset.Code, "")
	}
	drops, err := strconv.ParseFloat(dropsText, 64)
	if err != nil {
		return notDetected(a.asset.Code, "")
	}
	amount := drops / dropsPerXRP

	var confirmations int64
	if latest.Validated {
		confirmations = xrplValidatedConfirmations
	}

	return model.DepositCheckResult{
		Currency:       a.asset.Code,
		Detected:       true,
		TxHash:         latest.Tx.Hash,
		Amount:         amount,
		Confirmations:  confirmations,
		ExpectedAmount: expectedAmount,
		AmountMatch:    matchAmount(amount, expectedAmount, a.asset.AmountTolerance),
		Timestamp:      time.Now().UTC(),
	}
}
