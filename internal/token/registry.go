package token

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Symbol identifies one of the supported assets.
type Symbol string

const (
	SOL  Symbol = "SOL"
	USDC Symbol = "USDC"
)

// Asset describes a supported token: its mint address and decimal precision.
// The registry is fixed at process start; nothing mutates it at runtime.
type Asset struct {
	Symbol   Symbol
	Mint     solana.PublicKey
	Decimals uint8
}

// IsNative reports whether the asset is SOL (balance comes from getBalance
// rather than a token account).
func (a Asset) IsNative() bool {
	return a.Symbol == SOL
}

var registry = map[Symbol]Asset{
	SOL: {
		Symbol:   SOL,
		Mint:     solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"),
		Decimals: 9,
	},
	USDC: {
		Symbol:   USDC,
		Mint:     solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
		Decimals: 6,
	},
}

// Lookup returns the asset for a symbol.
func Lookup(sym Symbol) (Asset, bool) {
	a, ok := registry[sym]
	return a, ok
}

// MustLookup returns the asset for a symbol or panics. Only for the fixed
// symbols declared in this package.
func MustLookup(sym Symbol) Asset {
	a, ok := registry[sym]
	if !ok {
		panic(fmt.Sprintf("token: unknown symbol %q", sym))
	}
	return a
}

// Symbols returns the supported symbols.
func Symbols() []Symbol {
	return []Symbol{SOL, USDC}
}

// ToBaseUnits converts a human-readable amount string to the smallest integer
// unit of the asset. Extra fractional digits are truncated, never rounded up:
// a wire-level amount larger than what the user typed could exceed their
// balance. Conversion is done digit-wise so values like "1.2" at 9 decimals
// come out exact (1200000000) instead of drifting through float math.
func ToBaseUnits(text string, decimals uint8) (uint64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("amount %q is not a number", text)
	}
	if f <= 0 {
		return 0, fmt.Errorf("amount must be > 0")
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		// Signs and exponent notation are not accepted in amount fields.
		return 0, fmt.Errorf("amount %q is not a plain decimal", text)
	}

	// Truncate (floor) fractional digits beyond the asset's precision.
	if len(fracPart) > int(decimals) {
		fracPart = fracPart[:decimals]
	}
	for len(fracPart) < int(decimals) {
		fracPart += "0"
	}

	raw := strings.TrimLeft(intPart+fracPart, "0")
	if raw == "" {
		return 0, fmt.Errorf("amount truncates to zero")
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q out of range: %w", text, err)
	}
	return n, nil
}

// FormatBaseUnits renders a smallest-unit integer amount (as returned by the
// aggregator) in human units with fixed 6-decimal precision.
func FormatBaseUnits(raw string, decimals uint8) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return "", fmt.Errorf("amount %q is not an integer: %w", raw, err)
	}

	// Rescale to exactly 6 fractional digits using integer math.
	const displayDecimals = 6
	var scaled uint64
	if decimals >= displayDecimals {
		scaled = n / pow10(decimals-displayDecimals)
	} else {
		scaled = n * pow10(displayDecimals-decimals)
	}

	return fmt.Sprintf("%d.%06d", scaled/1e6, scaled%1e6), nil
}

func pow10(n uint8) uint64 {
	out := uint64(1)
	for i := uint8(0); i < n; i++ {
		out *= 10
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
