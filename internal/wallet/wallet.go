package wallet

import (
	"github.com/gagliardetto/solana-go"
)

// Signer is the wallet capability the swap flow depends on: a public
// identifier and the ability to sign a decoded transaction. Any conforming
// provider is acceptable; the orchestration core never assumes a concrete
// implementation.
//
// A provider may expose its identity without being able to sign (watch-only
// wallets, hardware wallets with signing declined); CanSign distinguishes
// that case from "not connected".
type Signer interface {
	PublicKey() solana.PublicKey
	CanSign() bool
	SignTransaction(tx *solana.Transaction) error
}
