package server

import "github.com/Resham8/token-swap/internal/swap"

// ErrorResponse is the standard error envelope for every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details any    `json:"details,omitempty"` // dev mode only
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

// StateResponse is the form snapshot plus the derived display values.
type StateResponse struct {
	swap.FormState
	Rate        string `json:"rate,omitempty"`
	PriceImpact string `json:"priceImpact,omitempty"`
}

// AmountRequest sets the input amount text.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// PairRequest selects an asset for one side of the form.
type PairRequest struct {
	Symbol string `json:"symbol"`
}

// SwapResponse reports a confirmed execution.
type SwapResponse struct {
	Signature   string `json:"signature"`
	ExplorerURL string `json:"explorerUrl"`
	TookMs      int64  `json:"took_ms"`
}

type FlagUpsertRequest struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

type FlagUpdateRequest struct {
	Value bool `json:"value"`
}

type AIAskRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"` // optional per-request override
}

type AIAskResponse struct {
	SQL    string `json:"sql"`
	Answer string `json:"answer"`
	TookMs int64  `json:"took_ms"`
}
