package deposit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/metrics"
	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// tronConfirmations is the fixed count reported for the Tron network, whose
// block finality is effectively instantaneous at 19 solidified blocks.
const tronConfirmations = 19

const sunPerTRX = 1e6

// tronGridAdapter reads an address's recent transactions from the TronGrid
// REST index, either native TRX transfers or TRC-20 token transfers filtered
// by contract.
type tronGridAdapter struct {
	client  *http.Client
	baseURL string
	asset   asset.Asset
	token   bool
}

func newTronGridAdapter(client *http.Client, baseURL string, a asset.Asset) *tronGridAdapter {
	return &tronGridAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		asset:   a,
		token:   a.Family == asset.FamilyTRC20,
	}
}

type tronTxResponse struct {
	Data []struct {
		TxID           string `json:"txID"`
		BlockTimestamp int64  `json:"block_timestamp"`
		RawData        struct {
			Contract []struct {
				Parameter struct {
					Value struct {
						Amount int64 `json:"amount"`
					} `json:"value"`
				} `json:"parameter"`
			} `json:"contract"`
		} `json:"raw_data"`
	} `json:"data"`
}

type tronTRC20Response struct {
	Data []struct {
		TransactionID  string `json:"transaction_id"`
		Value          string `json:"value"`
		BlockTimestamp int64  `json:"block_timestamp"`
		TokenInfo      struct {
			Address string `json:"address"`
		} `json:"token_info"`
	} `json:"data"`
}

func (a *tronGridAdapter) CheckAddress(ctx context.Context, address string, expectedAmount *float64) model.DepositCheckResult {
	if a.token {
		return a.checkTRC20(ctx, address, expectedAmount)
	}
	return a.checkNative(ctx, address, expectedAmount)
}

func (a *tronGridAdapter) checkNative(ctx context.Context, address string, expectedAmount *float64) model.DepositCheckResult {
	url := fmt.Sprintf("%s/v1/accounts/%s/transactions", a.baseURL, address)

	var resp tronTxResponse
	if err := getJSON(ctx, a.client, url, &resp); err != nil {
		metrics.UpstreamErrors.WithLabelValues("trongrid").Inc()
		return notDetected(a.asset.Code, model.DepositErrUpstream)
	}
	if len(resp.Data) == 0 {
		return notDetected(a.asset.Code, "")
	}

	latest := resp.Data[0]
	var sun int64
	if len(latest.RawData.Contract) > 0 {
		sun = latest.RawData.Contract[0].Parameter.Value.Amount
	}
	amount := float64(sun) / sunPerTRX

	return a.result(latest.TxID, amount, latest.BlockTimestamp, expectedAmount)
}

func (a *tronGridAdapter) checkTRC20(ctx context.Context, address string, expectedAmount *float64) model.DepositCheckResult {
	url := fmt.Sprintf("%s/v1/accounts/%s/transactions/trc20?contract_address=%s", a.baseURL, address, a.asset.Contract)

	var resp tronTRC20Response
	if err := getJSON(ctx, a.client, url, &resp); err != nil {
		metrics.UpstreamErrors.WithLabelValues("trongrid").Inc()
		return notDetected(a.asset.Code, model.DepositErrUpstream)
	}
	if len(resp.Data) == 0 {
		return notDetected(a.asset.Code, "")
	}

	latest := resp.Data[0]
	raw, err := strconv.ParseFloat(latest.Value, 64)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("trongrid").Inc()
		return notDetected(a.asset.Code, model.DepositErrUpstream)
	}
	amount := raw / math.Pow10(a.asset.Decimals)

	return a.result(latest.TransactionID, amount, latest.BlockTimestamp, expectedAmount)
}

func (a *tronGridAdapter) result(txHash string, amount float64, blockTimestampMillis int64, expectedAmount *float64) model.DepositCheckResult {
	observedAt := time.Now().UTC()
	if blockTimestampMillis > 0 {
		observedAt = time.UnixMilli(blockTimestampMillis).UTC()
	}

	return model.DepositCheckResult{
		Currency:       a.asset.Code,
		Detected:       true,
		TxHash:         txHash,
		Amount:         amount,
		Confirmations:  tronConfirmations,
		ExpectedAmount: expectedAmount,
		AmountMatch:    matchAmount(amount, expectedAmount, a.asset.AmountTolerance),
		Timestamp:      observedAt,
	}
}
