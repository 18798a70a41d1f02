package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Keypair is a local private-key signer. It accepts the two key encodings in
// common circulation: a base58 64-byte secret or a solana-keygen JSON array.
type Keypair struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

func NewKeypair(secret string) (*Keypair, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("wallet: private key is required")
	}
	priv, err := parsePrivateKey(secret)
	if err != nil {
		return nil, err
	}
	return &Keypair{priv: priv, pub: priv.PublicKey()}, nil
}

func (k *Keypair) PublicKey() solana.PublicKey { return k.pub }
func (k *Keypair) CanSign() bool               { return true }

// SignTransaction signs the transaction's message and places the signature in
// the keypair's required-signer slot. The transaction arrives fully built by
// the aggregator, so the account list is taken as-is.
func (k *Keypair) SignTransaction(tx *solana.Transaction) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize transaction message: %w", err)
	}

	sig, err := k.priv.Sign(msg)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	numRequired := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) < numRequired {
		sigs := make([]solana.Signature, numRequired)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}

	for i := 0; i < numRequired && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(k.pub) {
			tx.Signatures[i] = sig
			return nil
		}
	}
	return fmt.Errorf("wallet %s is not a required signer of this transaction", k.pub)
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(b))
		}
		return solana.PrivateKey(b), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(raw), nil
}
