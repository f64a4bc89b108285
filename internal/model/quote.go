package model

import "time"

// FeeTier selects the pricing mode for a quote.
type FeeTier string

const (
	// FeeTierFloat charges the smaller fee; the rate may move before settlement.
	FeeTierFloat FeeTier = "float"
	// FeeTierFixed locks the rate and charges the larger fee.
	FeeTierFixed FeeTier = "fixed"
)

// PartnerContext identifies a partner caller. The partner earns
// CommissionRate percent of the fee margin, not of gross volume.
type PartnerContext struct {
	ID             string
	CommissionRate float64
}

// Quote is a composed exchange rate. It is built fresh per request and never
// persisted by the core.
type Quote struct {
	FromCurrency      string    `json:"from_currency"`
	ToCurrency        string    `json:"to_currency"`
	FeeTier           FeeTier   `json:"rate_type"`
	BaseRate          float64   `json:"base_rate"`
	MarkupPercent     float64   `json:"markup_percentage"`
	PartnerRate       float64   `json:"partner_rate,omitempty"`
	FeePercent        float64   `json:"fee_percentage"`
	Rate              float64   `json:"rate"`
	PartnerCommission float64   `json:"estimated_partner_commission,omitempty"`
	Source            string    `json:"source"`
	Timestamp         time.Time `json:"timestamp"`
}
