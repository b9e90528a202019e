package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/dustfolio/solana-dust-recycler/internal/ai"
	"github.com/dustfolio/solana-dust-recycler/internal/cache"
	"github.com/dustfolio/solana-dust-recycler/internal/config"
	"github.com/dustfolio/solana-dust-recycler/internal/denylist"
	"github.com/dustfolio/solana-dust-recycler/internal/jupiter"
	"github.com/dustfolio/solana-dust-recycler/internal/portfolio"
	"github.com/dustfolio/solana-dust-recycler/internal/recycler"
	"github.com/dustfolio/solana-dust-recycler/internal/rpc"
	"github.com/dustfolio/solana-dust-recycler/internal/server"
	"github.com/dustfolio/solana-dust-recycler/internal/tokenlist"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the recycler API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
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

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Redis backs the denylist and the recent-checkout feed
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	checkoutFeed := cache.NewRedisFeed(rclient, logger)

	denyStore, err := denylist.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create denylist store")
	}

	// Chain and router collaborators
	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	router := jupiter.NewClient(jupiter.ClientConfig{
		BaseURL:   cfg.JupiterBaseURL,
		PriceURL:  cfg.JupiterPriceURL,
		TokensURL: cfg.JupiterTokensURL,
		APIKey:    cfg.JupiterAPIKey,
	})

	// One token-directory cache per process, shared by every scan
	directory := tokenlist.NewCache(router, cfg.TokenDirectoryTTL, logger)

	scanner := portfolio.NewScanner(rpcClient, router, directory, logger).
		WithDenylist(denyStore)

	builder := recycler.NewBuilder(router, recycler.BuilderConfig{
		BaseMint:    cfg.BaseMint,
		FeeBps:      cfg.FeeBps,
		FeeAccount:  cfg.FeeAccount,
		SlippageBps: cfg.SlippageBps,
	}, logger)

	// Initialize AI agent for natural language queries (optional)
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              "openai/gpt-4.1-mini",
		Logger:             logger,
	}
	if cfg.OpenRouterAPIKey != "" && cfg.ClickHouseAddr != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close()
			}()
		}
	}

	h := &server.Handlers{
		Scanner:      scanner,
		Builder:      builder,
		Feed:         checkoutFeed,
		Denylist:     denyStore,
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

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
