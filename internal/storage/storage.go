package storage

import (
	"context"

	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// AuditSink records quotes served and deposit checks performed. The core
// never reads these records back; persistence stays the caller's concern.
type AuditSink interface {
	PutQuote(ctx context.Context, quote model.Quote) error
	PutDepositCheck(ctx context.Context, result model.DepositCheckResult) error
}
