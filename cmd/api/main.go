package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Resham8/token-swap/internal/ai"
	"github.com/Resham8/token-swap/internal/chain"
	"github.com/Resham8/token-swap/internal/config"
	"github.com/Resham8/token-swap/internal/flags"
	"github.com/Resham8/token-swap/internal/history"
	"github.com/Resham8/token-swap/internal/jupiter"
	"github.com/Resham8/token-swap/internal/server"
	"github.com/Resham8/token-swap/internal/swap"
	"github.com/Resham8/token-swap/internal/wallet"
)

// env bootstrap
func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

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

	// Redis backs both the flags store and the recent-history list. The
	// server still runs without it, minus those two features.
	var flagStore *flags.Store
	var recorders history.Fanout
	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: 0})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, flags and recent history disabled")
		} else {
			flagStore, err = flags.NewStore(rclient)
			if err != nil {
				logger.WithError(err).Fatal("failed to create flags store")
			}
			recorders = append(recorders, history.NewRedisRecorder(rclient, logger))
		}
	}

	if cfg.ClickHouseAddr != "" {
		ch, err := history.NewClickHouseRecorder(ctx, history.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, durable history disabled")
		} else {
			recorders = append(recorders, ch)
			defer func() { _ = ch.Close() }()
		}
	}

	var recorder history.Recorder
	if len(recorders) > 0 {
		recorder = recorders
	}

	desk, err := swap.NewDesk(swap.Config{
		Quotes:      jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey),
		Chain:       chainClient,
		Recorder:    recorder,
		Logger:      logger,
		SlippageBps: uint16(cfg.SlippageBps),
		Debounce:    cfg.QuoteDelay,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create swap desk")
	}
	defer func() { _ = desk.Close() }()

	switch {
	case cfg.WalletPrivateKey != "":
		kp, err := wallet.NewKeypair(cfg.WalletPrivateKey)
		if err != nil {
			logger.WithError(err).Fatal("failed to load wallet")
		}
		desk.Connect(kp)
		logger.WithField("pubkey", kp.PublicKey()).Info("wallet connected")
	case cfg.WalletPublicKey != "":
		w, err := wallet.NewWatchOnly(cfg.WalletPublicKey)
		if err != nil {
			logger.WithError(err).Fatal("invalid watch-only address")
		}
		desk.Connect(w)
		logger.WithField("pubkey", w.PublicKey()).Info("watch-only wallet connected")
	default:
		logger.Info("no wallet configured, quotes only")
	}

	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              cfg.AIModel,
		Logger:             logger,
	}
	if cfg.OpenRouterAPIKey != "" && cfg.ClickHouseAddr != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() { _ = agent.Close() }()
		}
	}

	h := &server.Handlers{
		Desk:         desk,
		History:      recorder,
		Flags:        flagStore,
		AI:           agent,
		AIBaseConfig: aiBase,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
