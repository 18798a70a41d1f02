package chain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/Resham8/token-swap/internal/rpc"
	"github.com/Resham8/token-swap/internal/token"
)

// Submission policy: the aggregator's transaction was just quoted, so the
// client favors submission speed over pre-validation. Invalid transactions
// fail on-chain instead of in a preflight simulation.
const (
	sendSkipPreflight = true
	sendMaxRetries    = 2
)

// Checkpoint is a network-issued reference point bounding transaction
// validity: a blockhash plus the last block height at which transactions
// referencing it remain valid.
type Checkpoint struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Config holds connection settings for the chain client.
type Config struct {
	RPCURL       string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Commitment   string // processed | confirmed | finalized
	Logger       *logrus.Logger
}

// Client talks to a Solana JSON-RPC node for everything the swap flow needs
// after signing: submission, confirmation and balance reads.
type Client struct {
	rpc        *rpc.Client
	commitment string
	logger     *logrus.Logger
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, fmt.Errorf("chain: RPCURL is required")
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Client{
		rpc: rpc.NewClient(rpc.ClientConfig{
			BaseURL:      cfg.RPCURL,
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       cfg.Logger,
		}),
		commitment: cfg.Commitment,
		logger:     cfg.Logger,
	}, nil
}

// SendRawTransaction submits signed transaction bytes (base64) with preflight
// skipped and a bounded transport-level retry count. Returns the transaction
// signature.
func (c *Client) SendRawTransaction(ctx context.Context, txBase64 string) (string, error) {
	params := []any{
		txBase64,
		map[string]any{
			"encoding":      "base64",
			"skipPreflight": sendSkipPreflight,
			"maxRetries":    sendMaxRetries,
		},
	}

	var resp struct {
		Result string        `json:"result"`
		Error  *rpc.RPCError `json:"error"`
	}
	if err := c.rpc.Call(ctx, "sendTransaction", params, &resp); err != nil {
		return "", fmt.Errorf("sendTransaction RPC failed: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("sendTransaction error: code=%d, message=%s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// LatestBlockhash fetches the most recent blockhash and its expiry height.
func (c *Client) LatestBlockhash(ctx context.Context) (Checkpoint, error) {
	var resp struct {
		Result struct {
			Value struct {
				Blockhash            string `json:"blockhash"`
				LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
			} `json:"value"`
		} `json:"result"`
		Error *rpc.RPCError `json:"error"`
	}

	params := []any{
		map[string]any{"commitment": c.commitment},
	}
	if err := c.rpc.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return Checkpoint{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	if resp.Error != nil {
		return Checkpoint{}, fmt.Errorf("getLatestBlockhash error: %s", resp.Error.Message)
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return Checkpoint{
		Blockhash:            hash,
		LastValidBlockHeight: resp.Result.Value.LastValidBlockHeight,
	}, nil
}

// BlockHeight returns the current block height at the client's commitment.
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	var resp struct {
		Result uint64        `json:"result"`
		Error  *rpc.RPCError `json:"error"`
	}

	params := []any{
		map[string]any{"commitment": c.commitment},
	}
	if err := c.rpc.Call(ctx, "getBlockHeight", params, &resp); err != nil {
		return 0, fmt.Errorf("getBlockHeight failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getBlockHeight error: %s", resp.Error.Message)
	}
	return resp.Result, nil
}

// WaitForConfirmation polls signature status until the transaction reaches
// the client's commitment, the checkpoint expires, or ctx is cancelled. No
// wall-clock timeout is imposed here; expiry is bounded by the checkpoint's
// last valid block height.
func (c *Client) WaitForConfirmation(ctx context.Context, cp Checkpoint, signature string) error {
	backoff := 500 * time.Millisecond
	maxBackoff := 4 * time.Second

	for {
		confirmed, err := c.checkSignatureStatus(ctx, signature)
		if err != nil {
			return fmt.Errorf("failed to check signature: %w", err)
		}
		if confirmed {
			return nil
		}

		// Unconfirmed past the checkpoint's validity window means the
		// transaction will never land with this blockhash.
		if cp.LastValidBlockHeight > 0 {
			height, err := c.BlockHeight(ctx)
			if err == nil && height > cp.LastValidBlockHeight {
				return fmt.Errorf("transaction %s expired: block height %d past %d",
					signature, height, cp.LastValidBlockHeight)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

func (c *Client) checkSignatureStatus(ctx context.Context, signature string) (bool, error) {
	var resp struct {
		Result struct {
			Value []*struct {
				Slot               uint64      `json:"slot"`
				Confirmations      *int        `json:"confirmations"`
				Err                interface{} `json:"err"`
				ConfirmationStatus string      `json:"confirmationStatus"`
			} `json:"value"`
		} `json:"result"`
		Error *rpc.RPCError `json:"error"`
	}

	params := []any{
		[]string{signature},
		map[string]any{"searchTransactionHistory": true},
	}
	if err := c.rpc.Call(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return false, err
	}
	if resp.Error != nil {
		return false, fmt.Errorf("getSignatureStatuses error: %s", resp.Error.Message)
	}
	if len(resp.Result.Value) == 0 || resp.Result.Value[0] == nil {
		return false, nil // not yet processed
	}

	status := resp.Result.Value[0]
	if status.Err != nil {
		return false, fmt.Errorf("transaction failed on-chain: %v", status.Err)
	}

	switch c.commitment {
	case "processed":
		return status.ConfirmationStatus != "", nil
	case "finalized":
		return status.ConfirmationStatus == "finalized", nil
	default: // confirmed
		return status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized", nil
	}
}

// Balance returns the owner's holdings of the asset in human units. Native
// SOL reads the account lamports; SPL assets read the associated token
// account. A missing token account is an ordinary zero balance, not an error.
func (c *Client) Balance(ctx context.Context, owner solana.PublicKey, asset token.Asset) (float64, error) {
	if asset.IsNative() {
		return c.nativeBalance(ctx, owner)
	}
	return c.tokenBalance(ctx, owner, asset)
}

func (c *Client) nativeBalance(ctx context.Context, owner solana.PublicKey) (float64, error) {
	var resp struct {
		Result struct {
			Value uint64 `json:"value"` // lamports
		} `json:"result"`
		Error *rpc.RPCError `json:"error"`
	}

	params := []any{
		owner.String(),
		map[string]any{"commitment": c.commitment},
	}
	if err := c.rpc.Call(ctx, "getBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getBalance error: %s", resp.Error.Message)
	}
	return float64(resp.Result.Value) / 1e9, nil
}

func (c *Client) tokenBalance(ctx context.Context, owner solana.PublicKey, asset token.Asset) (float64, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, asset.Mint)
	if err != nil {
		return 0, fmt.Errorf("failed to derive associated token address: %w", err)
	}

	var resp struct {
		Result struct {
			Value struct {
				Amount   string `json:"amount"`
				Decimals uint8  `json:"decimals"`
			} `json:"value"`
		} `json:"result"`
		Error *rpc.RPCError `json:"error"`
	}

	params := []any{
		ata.String(),
		map[string]any{"commitment": c.commitment},
	}
	if err := c.rpc.Call(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getTokenAccountBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		// An account that was never funded simply doesn't exist yet.
		if strings.Contains(strings.ToLower(resp.Error.Message), "could not find") {
			return 0, nil
		}
		return 0, fmt.Errorf("getTokenAccountBalance error: %s", resp.Error.Message)
	}

	raw, err := strconv.ParseUint(resp.Result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %w", err)
	}

	decimals := resp.Result.Value.Decimals
	if decimals == 0 {
		decimals = asset.Decimals
	}
	div := 1.0
	for i := uint8(0); i < decimals; i++ {
		div *= 10
	}
	return float64(raw) / div, nil
}
