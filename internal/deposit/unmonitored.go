package deposit

import (
	"context"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// unmonitoredAdapter serves private-ledger assets with no public
// address-scoped query (Monero). It never detects anything; monitoring such
// chains requires a private wallet or node integration.
type unmonitoredAdapter struct {
	asset asset.Asset
}

func newUnmonitoredAdapter(a asset.Asset) *unmonitoredAdapter {
	return &unmonitoredAdapter{asset: a}
}

func (a *unmonitoredAdapter) CheckAddress(ctx context.Context, address string, expectedAmount *float64) model.DepositCheckResult {
	return notDetected(a.asset.Code, model.DepositErrUnmonitored)
}
