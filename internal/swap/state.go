package swap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Resham8/token-swap/internal/jupiter"
	"github.com/Resham8/token-swap/internal/token"
)

// FormState is the swap form as the user sees it at one instant. Snapshot
// returns a copy, so readers never observe a half-applied transition.
type FormState struct {
	AssetIn  token.Asset `json:"assetIn"`
	AssetOut token.Asset `json:"assetOut"`

	// AmountIn is kept as the raw text the user typed. Conversion to base
	// units happens only at the network boundary.
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`

	// Balance is the human-denominated balance of AssetIn for the connected
	// account, zero when no account is connected.
	Balance float64 `json:"balance"`

	Quote *jupiter.QuoteResponse `json:"quote,omitempty"`

	QuoteInFlight bool `json:"quoteInFlight"`
	SwapInFlight  bool `json:"swapInFlight"`

	Connected bool   `json:"connected"`
	LastError string `json:"lastError,omitempty"`
}

// Rate returns the effective output-per-input price with four decimal
// places, or "" when there is no quote to derive it from.
func (s FormState) Rate() string {
	if s.Quote == nil || s.AmountIn == "" || s.AmountOut == "" {
		return ""
	}
	in, err := strconv.ParseFloat(strings.TrimSpace(s.AmountIn), 64)
	if err != nil || in <= 0 {
		return ""
	}
	out, err := strconv.ParseFloat(s.AmountOut, 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%.4f", out/in)
}

// PriceImpact returns the quoted price impact as a percentage string with
// two decimal places, or "" when there is no quote.
func (s FormState) PriceImpact() string {
	if s.Quote == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", s.Quote.PriceImpact())
}

// Pair returns a label like "SOL-USDC" for the current direction.
func (s FormState) Pair() string {
	return fmt.Sprintf("%s-%s", s.AssetIn.Symbol, s.AssetOut.Symbol)
}
