package models

import "time"

// SwapRecord describes one confirmed swap executed through the desk.
type SwapRecord struct {
	Signature   string    `json:"signature"`
	Timestamp   time.Time `json:"timestamp"`
	Pair        string    `json:"pair"` // e.g. "SOL-USDC"
	TokenIn     string    `json:"token_in"`
	TokenOut    string    `json:"token_out"`
	AmountIn    float64   `json:"amount_in"`
	AmountOut   float64   `json:"amount_out"`
	PriceImpact float64   `json:"price_impact"`
	Route       string    `json:"route"` // aggregator route labels, ">"-joined
}
