package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Resham8/token-swap/internal/chain"
	"github.com/Resham8/token-swap/internal/config"
	"github.com/Resham8/token-swap/internal/jupiter"
	"github.com/Resham8/token-swap/internal/swap"
	"github.com/Resham8/token-swap/internal/token"
	"github.com/Resham8/token-swap/internal/wallet"
)

// swapdesk is the one-shot CLI: fetch a quote for an amount and, with
// -execute, run the swap through sign, submit and confirm.
func main() {
	var (
		fromSym = flag.String("from", "SOL", "input token symbol")
		toSym   = flag.String("to", "USDC", "output token symbol")
		amount  = flag.String("amount", "", "input amount, human units (required)")
		execute = flag.Bool("execute", false, "execute the swap instead of just quoting")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall deadline")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file, using system environment")
	}

	if strings.TrimSpace(*amount) == "" {
		fmt.Fprintln(os.Stderr, "usage: swapdesk -amount 1.5 [-from SOL] [-to USDC] [-execute]")
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	chainClient, err := chain.New(chain.Config{
		RPCURL:       cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Commitment:   cfg.Commitment,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create chain client")
	}

	desk, err := swap.NewDesk(swap.Config{
		Quotes:      jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey),
		Chain:       chainClient,
		Logger:      logger,
		SlippageBps: uint16(cfg.SlippageBps),
		Debounce:    10 * time.Millisecond, // single shot, nothing to coalesce
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create swap desk")
	}
	defer func() { _ = desk.Close() }()

	if cfg.WalletPrivateKey != "" {
		kp, err := wallet.NewKeypair(cfg.WalletPrivateKey)
		if err != nil {
			logger.WithError(err).Fatal("failed to load wallet")
		}
		desk.Connect(kp)
	} else if *execute {
		logger.Fatal("WALLET_PRIVATE_KEY is required with -execute")
	}

	if err := desk.SelectInput(token.Symbol(strings.ToUpper(*fromSym))); err != nil {
		logger.WithError(err).Fatal("invalid -from token")
	}
	if err := desk.SelectOutput(token.Symbol(strings.ToUpper(*toSym))); err != nil {
		logger.WithError(err).Fatal("invalid -to token")
	}
	if err := desk.SetAmount(*amount); err != nil {
		logger.WithError(err).Fatal("failed to set amount")
	}

	st := waitForQuote(ctx, desk, logger)
	fmt.Printf("quote: %s %s -> %s %s (rate %s, impact %s%%)\n",
		st.AmountIn, st.AssetIn.Symbol, st.AmountOut, st.AssetOut.Symbol,
		st.Rate(), st.PriceImpact())

	if !*execute {
		return
	}

	res, err := desk.Execute(ctx)
	if err != nil {
		logger.WithError(err).Fatal("swap failed")
	}
	fmt.Printf("confirmed in %s\n", res.Duration.Round(time.Millisecond))
	fmt.Println(res.ExplorerURL())
}

func waitForQuote(ctx context.Context, desk *swap.Desk, logger *logrus.Logger) swap.FormState {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Fatal("timed out waiting for quote")
		case <-ticker.C:
			st := desk.Snapshot()
			if st.LastError != "" {
				logger.WithField("error", st.LastError).Fatal("quote failed")
			}
			if st.Quote != nil && !st.QuoteInFlight {
				return st
			}
		}
	}
}
