package jupiter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// QuoteRequest carries the parameters of a GET /quote call.
type QuoteRequest struct {
	InputMint  string
	OutputMint string
	Amount     string // raw integer in smallest units (uint64 as string)

	SlippageBps uint16
	SwapMode    string // ExactIn | ExactOut, empty for server default
}

// QuoteResponse is the aggregator's quote. Raw holds the undecoded response
// body: the swap endpoint expects the quote object replayed verbatim, so the
// decoded struct is never re-marshalled.
type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          uint16          `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`

	ContextSlot uint64  `json:"contextSlot,omitempty"`
	TimeTaken   float64 `json:"timeTaken,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Validate checks the structural contract of a decoded quote. The response
// schema is a trust boundary; a quote that fails here is treated the same as
// a transport failure.
func (q *QuoteResponse) Validate() error {
	if strings.TrimSpace(q.InputMint) == "" {
		return fmt.Errorf("quote missing inputMint")
	}
	if strings.TrimSpace(q.OutputMint) == "" {
		return fmt.Errorf("quote missing outputMint")
	}
	if _, err := strconv.ParseUint(q.InAmount, 10, 64); err != nil {
		return fmt.Errorf("quote inAmount %q is not a uint64", q.InAmount)
	}
	if _, err := strconv.ParseUint(q.OutAmount, 10, 64); err != nil {
		return fmt.Errorf("quote outAmount %q is not a uint64", q.OutAmount)
	}
	return nil
}

// PriceImpact parses the quote's price impact percentage. Returns 0 when the
// field is absent or unparseable; impact display is informational only.
func (q *QuoteResponse) PriceImpact() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(q.PriceImpactPct), 64)
	if err != nil {
		return 0
	}
	return f
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  *uint8   `json:"percent,omitempty"`
	Bps      uint16   `json:"bps"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label,omitempty"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// SwapRequest is the POST /swap body. QuoteResponse must be the raw quote
// object exactly as the quote endpoint returned it.
type SwapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

// SwapResponse carries the unsigned transaction payload built by the
// aggregator, base64-encoded.
type SwapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight,omitempty"`
}
