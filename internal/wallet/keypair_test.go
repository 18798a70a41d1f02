package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeypair(t *testing.T) {
	w := solana.NewWallet()

	kp, err := NewKeypair(w.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), kp.PublicKey())
	assert.True(t, kp.CanSign())

	_, err = NewKeypair("")
	assert.Error(t, err)

	_, err = NewKeypair("not-base58-!!!!")
	assert.Error(t, err)

	_, err = NewKeypair("[1,2,3]")
	assert.Error(t, err)
}

func TestKeypair_SignTransaction(t *testing.T) {
	w := solana.NewWallet()
	kp, err := NewKeypair(w.PrivateKey.String())
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, w.PublicKey(), solana.NewWallet().PublicKey()).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(w.PublicKey()),
	)
	require.NoError(t, err)

	require.NoError(t, kp.SignTransaction(tx))
	require.NotEmpty(t, tx.Signatures)
	assert.False(t, tx.Signatures[0].IsZero())

	// Signature must verify against the message bytes.
	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, tx.Signatures[0].Verify(w.PublicKey(), msg))
}

func TestKeypair_SignTransaction_NotASigner(t *testing.T) {
	payer := solana.NewWallet()
	other := solana.NewWallet()
	kp, err := NewKeypair(other.PrivateKey.String())
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer.PublicKey(), other.PublicKey()).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	err = kp.SignTransaction(tx)
	assert.ErrorContains(t, err, "not a required signer")
}
