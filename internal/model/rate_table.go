package model

import "time"

// RateTable holds one full refresh of spot and cross rates for all supported
// currencies, keyed by currency code and then by counter currency (the
// reference currency appears as "USD").
type RateTable struct {
	Rates     map[string]map[string]float64 `json:"rates"`
	Timestamp time.Time                     `json:"timestamp"`
	Source    string                        `json:"source"`
}
