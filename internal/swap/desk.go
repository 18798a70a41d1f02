package swap

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/Resham8/token-swap/internal/chain"
	"github.com/Resham8/token-swap/internal/history"
	"github.com/Resham8/token-swap/internal/jupiter"
	"github.com/Resham8/token-swap/internal/models"
	"github.com/Resham8/token-swap/internal/token"
	"github.com/Resham8/token-swap/internal/wallet"
)

const (
	// DefaultSlippageBps is applied to every quote request.
	DefaultSlippageBps = 50

	// DefaultDebounce is how long the amount field must settle before a
	// quote request goes out.
	DefaultDebounce = 500 * time.Millisecond
)

// QuoteService is the slice of the aggregator API the desk needs.
type QuoteService interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
	Swap(ctx context.Context, req jupiter.SwapRequest) (*jupiter.SwapResponse, error)
}

// Chain is the slice of the RPC surface the desk needs.
type Chain interface {
	Balance(ctx context.Context, owner solana.PublicKey, asset token.Asset) (float64, error)
	SendRawTransaction(ctx context.Context, txBase64 string) (string, error)
	LatestBlockhash(ctx context.Context) (chain.Checkpoint, error)
	WaitForConfirmation(ctx context.Context, cp chain.Checkpoint, signature string) error
}

// Result describes a confirmed swap.
type Result struct {
	Signature string        `json:"signature"`
	Duration  time.Duration `json:"duration"`
}

// ExplorerURL returns the solscan link for the confirmed transaction.
func (r *Result) ExplorerURL() string {
	return "https://solscan.io/tx/" + r.Signature
}

type Config struct {
	Quotes   QuoteService
	Chain    Chain
	Recorder history.Recorder // optional
	Logger   *logrus.Logger

	SlippageBps uint16        // zero means DefaultSlippageBps
	Debounce    time.Duration // zero means DefaultDebounce
}

// Desk drives one swap form: it owns the form state, debounces quote
// fetches, and runs the quote -> sign -> submit -> confirm pipeline.
// All methods are safe for concurrent use.
type Desk struct {
	quotes   QuoteService
	chain    Chain
	recorder history.Recorder
	logger   *logrus.Logger

	slippageBps uint16
	debounce    time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	st     FormState
	signer wallet.Signer

	// quoteSeq is bumped whenever the inputs change. An in-flight fetch
	// carries the seq it was started with and discards its response if the
	// desk has moved on. Only the newest fetch ever publishes.
	quoteSeq     uint64
	quoteFetches int
	timer        *time.Timer
	closed       bool
}

func NewDesk(cfg Config) (*Desk, error) {
	if cfg.Quotes == nil {
		return nil, fmt.Errorf("quote service is required")
	}
	if cfg.Chain == nil {
		return nil, fmt.Errorf("chain client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Desk{
		quotes:      cfg.Quotes,
		chain:       cfg.Chain,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger,
		slippageBps: cfg.SlippageBps,
		debounce:    cfg.Debounce,
		ctx:         ctx,
		cancel:      cancel,
		st: FormState{
			AssetIn:  token.MustLookup(token.SOL),
			AssetOut: token.MustLookup(token.USDC),
		},
	}, nil
}

// Snapshot returns a copy of the current form state.
func (d *Desk) Snapshot() FormState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st
}

// Connect attaches a signer and refreshes the input-asset balance.
func (d *Desk) Connect(s wallet.Signer) {
	d.mu.Lock()
	d.signer = s
	d.st.Connected = s != nil
	d.mu.Unlock()
	d.RefreshBalance()
}

// Disconnect detaches the signer. The balance drops to zero; the form
// fields and any quote are left alone.
func (d *Desk) Disconnect() {
	d.mu.Lock()
	d.signer = nil
	d.st.Connected = false
	d.mu.Unlock()
	d.RefreshBalance()
}

// SetAmount records new input text and schedules a quote fetch once the
// field settles. Text that does not parse as a positive amount clears the
// quote without error and without a network call. Rejected with ErrBusy
// while a swap is executing.
func (d *Desk) SetAmount(text string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.st.SwapInFlight {
		d.mu.Unlock()
		return ErrBusy
	}
	d.st.AmountIn = text
	d.invalidateQuoteLocked()
	d.scheduleFetchLocked()
	d.mu.Unlock()
	return nil
}

// SelectInput changes the input asset. Picking the current output asset
// flips the pair so the two sides never collide.
func (d *Desk) SelectInput(sym token.Symbol) error {
	return d.selectAsset(sym, true)
}

// SelectOutput changes the output asset, flipping the pair when needed.
func (d *Desk) SelectOutput(sym token.Symbol) error {
	return d.selectAsset(sym, false)
}

func (d *Desk) selectAsset(sym token.Symbol, input bool) error {
	asset, ok := token.Lookup(sym)
	if !ok {
		return fmt.Errorf("unknown token %q", sym)
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.st.SwapInFlight || d.quoteFetches > 0 {
		d.mu.Unlock()
		return ErrBusy
	}
	side, other := &d.st.AssetIn, &d.st.AssetOut
	if !input {
		side, other = other, side
	}
	if side.Symbol == sym {
		d.mu.Unlock()
		return nil
	}
	if other.Symbol == sym {
		*other = *side
	}
	*side = asset
	d.invalidateQuoteLocked()
	d.scheduleFetchLocked()
	d.mu.Unlock()
	d.RefreshBalance()
	return nil
}

// ReverseDirection swaps the two assets and the two amount texts, discards
// the direction-specific quote and refetches. Rejected with ErrBusy while a
// fetch or an execution is in flight.
func (d *Desk) ReverseDirection() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.st.SwapInFlight || d.quoteFetches > 0 {
		d.mu.Unlock()
		return ErrBusy
	}
	d.st.AssetIn, d.st.AssetOut = d.st.AssetOut, d.st.AssetIn
	oldIn, oldOut := d.st.AmountIn, d.st.AmountOut
	d.invalidateQuoteLocked()
	// Both amount texts swap sides; the carried-over output text is
	// replaced once the refetched quote lands.
	d.st.AmountIn, d.st.AmountOut = oldOut, oldIn
	d.scheduleFetchLocked()
	d.mu.Unlock()
	d.RefreshBalance()
	return nil
}

// invalidateQuoteLocked supersedes any pending or in-flight fetch and
// clears the quote-derived fields. Caller holds d.mu.
func (d *Desk) invalidateQuoteLocked() {
	d.quoteSeq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.st.Quote = nil
	d.st.AmountOut = ""
	d.st.LastError = ""
}

// scheduleFetchLocked arms the debounce timer if the current input text
// converts to a positive base-unit amount. Caller holds d.mu.
func (d *Desk) scheduleFetchLocked() {
	if _, err := token.ToBaseUnits(d.st.AmountIn, d.st.AssetIn.Decimals); err != nil {
		return
	}
	gen := d.quoteSeq
	d.timer = time.AfterFunc(d.debounce, func() { d.fetchQuote(gen) })
}

func (d *Desk) fetchQuote(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.quoteSeq || d.st.SwapInFlight {
		d.mu.Unlock()
		return
	}
	in, out := d.st.AssetIn, d.st.AssetOut
	raw, err := token.ToBaseUnits(d.st.AmountIn, in.Decimals)
	if err != nil {
		d.mu.Unlock()
		return
	}
	d.quoteFetches++
	d.st.QuoteInFlight = true
	d.mu.Unlock()

	q, err := d.quotes.Quote(d.ctx, jupiter.QuoteRequest{
		InputMint:   in.Mint.String(),
		OutputMint:  out.Mint.String(),
		Amount:      strconv.FormatUint(raw, 10),
		SlippageBps: d.slippageBps,
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.quoteFetches--
	d.st.QuoteInFlight = d.quoteFetches > 0
	if gen != d.quoteSeq {
		// The inputs moved on while this request was on the wire.
		return
	}
	if err != nil {
		d.st.Quote = nil
		d.st.AmountOut = ""
		d.st.LastError = "failed to fetch quote"
		d.logger.WithError(err).Warn("quote fetch failed")
		return
	}
	display, err := token.FormatBaseUnits(q.OutAmount, out.Decimals)
	if err != nil {
		d.st.Quote = nil
		d.st.AmountOut = ""
		d.st.LastError = "failed to fetch quote"
		d.logger.WithError(err).WithField("outAmount", q.OutAmount).Warn("unusable quote")
		return
	}
	d.st.Quote = q
	d.st.AmountOut = display
	d.st.LastError = ""
}

// RefreshBalance re-reads the input-asset balance for the connected
// account. A failed read is logged and zeroes the balance: a stale value
// would feed the insufficient-balance gate, so unknown reads as zero.
func (d *Desk) RefreshBalance() {
	d.mu.Lock()
	signer := d.signer
	asset := d.st.AssetIn
	d.mu.Unlock()

	bal := 0.0
	if signer != nil {
		b, err := d.chain.Balance(d.ctx, signer.PublicKey(), asset)
		if err != nil {
			d.logger.WithError(err).Warn("balance read failed")
		} else {
			bal = b
		}
	}
	d.mu.Lock()
	d.st.Balance = bal
	d.mu.Unlock()
}

// Execute runs the held quote through build, sign, submit and confirm.
// Preconditions are checked before any network call; a failing check
// returns the matching sentinel and touches nothing. On success the form
// resets, the balance refreshes once, and the swap is recorded.
func (d *Desk) Execute(ctx context.Context) (*Result, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	if d.st.SwapInFlight || d.quoteFetches > 0 {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	signer := d.signer
	quote := d.st.Quote
	if signer == nil || quote == nil {
		d.mu.Unlock()
		return nil, ErrWalletNotConnected
	}
	amountIn, err := strconv.ParseFloat(strings.TrimSpace(d.st.AmountIn), 64)
	if err != nil || amountIn <= 0 {
		d.mu.Unlock()
		return nil, ErrInvalidAmount
	}
	if amountIn > d.st.Balance {
		d.mu.Unlock()
		return nil, ErrInsufficientBalance
	}
	if !signer.CanSign() {
		d.mu.Unlock()
		return nil, ErrCannotSign
	}
	in, out := d.st.AssetIn, d.st.AssetOut
	d.st.SwapInFlight = true
	d.st.LastError = ""
	d.mu.Unlock()

	start := time.Now()
	sig, err := d.executeSwap(ctx, signer, quote)

	d.mu.Lock()
	d.st.SwapInFlight = false
	if err != nil {
		// Recoverable: inputs and quote stay so the user can retry.
		d.st.LastError = "swap failed"
		d.mu.Unlock()
		d.logger.WithError(err).WithField("pair", fmt.Sprintf("%s-%s", in.Symbol, out.Symbol)).Error("swap failed")
		return nil, err
	}
	d.st.AmountIn = ""
	d.st.AmountOut = ""
	d.invalidateQuoteLocked()
	d.mu.Unlock()

	d.RefreshBalance()
	d.recordSwap(sig, quote, in, out, amountIn)

	res := &Result{Signature: sig, Duration: time.Since(start)}
	d.logger.WithFields(logrus.Fields{
		"signature": sig,
		"pair":      fmt.Sprintf("%s-%s", in.Symbol, out.Symbol),
		"duration":  res.Duration,
	}).Info("swap confirmed")
	return res, nil
}

func (d *Desk) executeSwap(ctx context.Context, signer wallet.Signer, quote *jupiter.QuoteResponse) (string, error) {
	resp, err := d.quotes.Swap(ctx, jupiter.SwapRequest{
		QuoteResponse:    quote.Raw,
		UserPublicKey:    signer.PublicKey().String(),
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return "", fmt.Errorf("swap request failed: %w", err)
	}

	tx, err := solana.TransactionFromBase64(resp.SwapTransaction)
	if err != nil {
		return "", fmt.Errorf("failed to decode swap transaction: %w", err)
	}

	if err := signer.SignTransaction(tx); err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize signed transaction: %w", err)
	}

	sig, err := d.chain.SendRawTransaction(ctx, base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		return "", fmt.Errorf("failed to submit transaction: %w", err)
	}

	// The checkpoint is read after submission; the node's view of the
	// valid-height window is what bounds the confirmation wait.
	cp, err := d.chain.LatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch blockhash checkpoint: %w", err)
	}

	if err := d.chain.WaitForConfirmation(ctx, cp, sig); err != nil {
		return "", fmt.Errorf("confirmation failed: %w", err)
	}
	return sig, nil
}

func (d *Desk) recordSwap(sig string, quote *jupiter.QuoteResponse, in, out token.Asset, amountIn float64) {
	if d.recorder == nil {
		return
	}
	amountOut := 0.0
	if v, err := strconv.ParseUint(quote.OutAmount, 10, 64); err == nil {
		amountOut = float64(v) / pow10f(out.Decimals)
	}
	rec := &models.SwapRecord{
		Signature:   sig,
		Timestamp:   time.Now().UTC(),
		Pair:        fmt.Sprintf("%s-%s", in.Symbol, out.Symbol),
		TokenIn:     string(in.Symbol),
		TokenOut:    string(out.Symbol),
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		PriceImpact: quote.PriceImpact(),
		Route:       routeLabel(quote),
	}
	if err := d.recorder.Record(d.ctx, rec); err != nil {
		d.logger.WithError(err).Warn("failed to record swap")
	}
}

func routeLabel(quote *jupiter.QuoteResponse) string {
	labels := make([]string, 0, len(quote.RoutePlan))
	for _, step := range quote.RoutePlan {
		labels = append(labels, step.SwapInfo.Label)
	}
	return strings.Join(labels, ">")
}

func pow10f(n uint8) float64 {
	v := 1.0
	for i := uint8(0); i < n; i++ {
		v *= 10
	}
	return v
}

// Close cancels background work. Further mutating calls return ErrClosed.
func (d *Desk) Close() error {
	d.mu.Lock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.cancel()
	return nil
}
