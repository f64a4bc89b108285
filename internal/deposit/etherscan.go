package deposit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/metrics"
	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// weiPerEther converts wei to the display unit.
const weiPerEther = 1e18

// HeightSource supplies the current chain head, used to derive confirmation
// counts for account-model chains.
type HeightSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// etherscanAdapter reads an address's transaction list from an
// Etherscan-style explorer. Confirmations are computed against the current
// block height, not explorer-provided. With a token contract it filters
// token transfers instead of native transactions.
type etherscanAdapter struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	heights  HeightSource
	asset    asset.Asset
	contract string
}

func newEtherscanAdapter(client *http.Client, baseURL, apiKey string, heights HeightSource, a asset.Asset) *etherscanAdapter {
	adapter := &etherscanAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		heights: heights,
		asset:   a,
	}
	if a.Contract != "" {
		adapter.contract = common.HexToAddress(a.Contract).Hex()
	}
	if adapter.heights == nil {
		adapter.heights = &etherscanHeights{client: client, baseURL: adapter.baseURL, apiKey: apiKey}
	}
	return adapter
}

type etherscanTxList struct {
	Status string `json:"status"`
	Result []struct {
		Hash        string `json:"hash"`
		Value       string `json:"value"`
		BlockNumber string `json:"blockNumber"`
		TimeStamp   string `json:"timeStamp"`
	} `json:"result"`
}

func (a *etherscanAdapter) CheckAddress(ctx context.Context, address string, expectedAmount *float64) model.DepositCheckResult {
	var url string
	if a.contract != "" {
		url = fmt.Sprintf("%s/api?module=account&action=tokentx&contractaddress=%s&address=%s&page=1&offset=1&sort=desc&apikey=%s",
			a.baseURL, a.contract, address, a.apiKey)
	} else {
		url = fmt.Sprintf("%s/api?module=account&action=txlist&address=%s&startblock=0&endblock=99999999&sort=desc&apikey=%s",
			a.baseURL, address, a.apiKey)
	}

	var resp etherscanTxList
	if err := getJSON(ctx, a.client, url, &resp); err != nil {
		metrics.UpstreamErrors.WithLabelValues("etherscan").Inc()
		return notDetected(a.asset.Code, model.DepositErrUpstream)
	}
	if len(resp.Result) == 0 {
		return notDetected(a.asset.Code, "")
	}

	latest := resp.Result[0]
	rawValue, err := strconv.ParseFloat(latest.Value, 64)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("etherscan").Inc()
		return notDetected(a.asset.Code, model.DepositErrUpstream)
	}

	divisor := weiPerEther
	if a.contract != "" {
		divisor = math.Pow10(a.asset.Decimals)
	}
	amount := rawValue / divisor

	confirmations, err := a.confirmations(ctx, latest.BlockNumber)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("etherscan").Inc()
		return notDetected(a.asset.Code, model.DepositErrUpstream)
	}

	observedAt := time.Now().UTC()
	if unix, err := strconv.ParseInt(latest.TimeStamp, 10, 64); err == nil && unix > 0 {
		observedAt = time.Unix(unix, 0).UTC()
	}

	return model.DepositCheckResult{
		Currency:       a.asset.Code,
		Detected:       true,
		TxHash:         latest.Hash,
		Amount:         amount,
		Confirmations:  confirmations,
		ExpectedAmount: expectedAmount,
		AmountMatch:    matchAmount(amount, expectedAmount, a.asset.AmountTolerance),
		Timestamp:      observedAt,
	}
}

func (a *etherscanAdapter) confirmations(ctx context.Context, txBlock string) (int64, error) {
	head, err := a.heights.LatestBlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	block, err := strconv.ParseUint(txBlock, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad block number %q", txBlock)
	}
	if head < block {
		return 0, nil
	}
	return int64(head - block), nil
}

// etherscanHeights derives the chain head from the explorer's proxy
// endpoint. Used when no RPC-backed height source is configured.
type etherscanHeights struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func (h *etherscanHeights) LatestBlockNumber(ctx context.Context) (uint64, error) {
	url := fmt.Sprintf("%s/api?module=proxy&action=eth_blockNumber&apikey=%s", h.baseURL, h.apiKey)

	var resp struct {
		Result string `json:"result"`
	}
	if err := getJSON(ctx, h.client, url, &resp); err != nil {
		return 0, err
	}
	return hexutil.DecodeUint64(resp.Result)
}
