package model

import "time"

// Error tags carried on a DepositCheckResult when the adapter could not
// observe the chain. A pending deposit is not an error and carries no tag.
const (
	DepositErrUpstream    = "upstream_unavailable"
	DepositErrUnmonitored = "unmonitored_chain"
)

// DepositCheckResult is the normalized outcome of one address check. It is
// scoped to exactly one (address, currency) pair and is never cached;
// confirmation counts are re-derived from the upstream on every poll.
// When Detected is false the hash and amount fields stay zero.
type DepositCheckResult struct {
	Currency              string    `json:"currency"`
	Detected              bool      `json:"detected"`
	TxHash                string    `json:"tx_hash,omitempty"`
	Amount                float64   `json:"amount,omitempty"`
	Confirmations         int64     `json:"confirmations"`
	RequiredConfirmations int64     `json:"required_confirmations"`
	Confirmed             bool      `json:"confirmed"`
	ExpectedAmount        *float64  `json:"expected_amount,omitempty"`
	AmountMatch           bool      `json:"amount_match"`
	Timestamp             time.Time `json:"timestamp"`
	Error                 string    `json:"error,omitempty"`
}
