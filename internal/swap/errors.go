package swap

import "errors"

// Precondition errors surfaced to the user before any network effect. Each
// maps to a distinct short message in the presentation layer.
var (
	// ErrWalletNotConnected covers both "no quote yet" and "no account":
	// either way the user-facing resolution is to connect a wallet and let
	// a quote arrive.
	ErrWalletNotConnected = errors.New("connect wallet")

	// ErrBusy means a quote fetch or an execution is already in flight.
	ErrBusy = errors.New("another operation is in progress")

	ErrInvalidAmount       = errors.New("enter a valid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrCannotSign means an account is connected but lacks signing
	// capability. Distinct from ErrWalletNotConnected.
	ErrCannotSign = errors.New("wallet cannot sign transactions")

	ErrClosed = errors.New("swap desk is closed")
)
