package wallet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// WatchOnly exposes an account's identity without signing capability.
// Balances and quotes work; execution stops at the CanSign gate.
type WatchOnly struct {
	pub solana.PublicKey
}

func NewWatchOnly(address string) (*WatchOnly, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid public key: %w", err)
	}
	return &WatchOnly{pub: pub}, nil
}

func (w *WatchOnly) PublicKey() solana.PublicKey { return w.pub }
func (w *WatchOnly) CanSign() bool               { return false }

func (w *WatchOnly) SignTransaction(tx *solana.Transaction) error {
	return fmt.Errorf("wallet: watch-only account cannot sign")
}
