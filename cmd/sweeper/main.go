package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustfolio/solana-dust-recycler/internal/broadcast"
	"github.com/dustfolio/solana-dust-recycler/internal/cache"
	"github.com/dustfolio/solana-dust-recycler/internal/cart"
	"github.com/dustfolio/solana-dust-recycler/internal/config"
	"github.com/dustfolio/solana-dust-recycler/internal/jupiter"
	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/dustfolio/solana-dust-recycler/internal/portfolio"
	"github.com/dustfolio/solana-dust-recycler/internal/recycler"
	"github.com/dustfolio/solana-dust-recycler/internal/rpc"
	"github.com/dustfolio/solana-dust-recycler/internal/storage"
	"github.com/dustfolio/solana-dust-recycler/internal/tokenlist"
	"github.com/dustfolio/solana-dust-recycler/internal/wallet"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// sweeper runs one full recycling checkout from the command line: scan the
// wallet, fill the cart with every holding below the dust threshold, build
// the fee-bearing swap batch, sign it in one pass, and broadcast
// sequentially. It plays the role the browser wallet plays in production.
func main() {
	maxValue := flag.Float64("max-value", 5.0, "dust threshold in USD; holdings at or below it go in the cart")
	confirmEach := flag.Bool("confirm-each", false, "wait for confirmation before each next submission")
	dryRun := flag.Bool("dry-run", false, "build the batch but do not sign or broadcast")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.WalletPrivateKey == "" {
		logger.Fatal("WALLET_PRIVATE_KEY is required")
	}

	ctx := context.Background()

	w, err := wallet.NewWallet(wallet.Config{
		RPCURL:       cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PrivateKey:   cfg.WalletPrivateKey,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to load wallet")
	}
	owner := w.Address()
	logger.WithField("owner", owner).Info("wallet loaded")

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

	directory := tokenlist.NewCache(router, cfg.TokenDirectoryTTL, logger)
	scanner := portfolio.NewScanner(rpcClient, router, directory, logger)

	holdings, err := scanner.Scan(ctx, owner)
	if err != nil {
		logger.WithError(err).Fatal("scan failed")
	}
	if len(holdings) == 0 {
		logger.Info("wallet holds no fungible tokens, nothing to do")
		return
	}

	// Fill the cart with dust, full balance per item. Never sweep the base
	// asset into itself.
	ct := cart.New()
	for _, h := range holdings {
		if h.Mint == cfg.BaseMint {
			continue
		}
		if h.Value > *maxValue || h.Price == 0 {
			continue
		}
		ct.Add(h)
	}
	if ct.Len() == 0 {
		logger.WithField("max_value", *maxValue).Info("no holdings under the dust threshold")
		return
	}
	logger.WithFields(logrus.Fields{
		"items":       ct.Len(),
		"total_value": fmt.Sprintf("$%.2f", ct.TotalValue()),
	}).Info("cart filled")

	orders := make([]models.SellOrder, 0, ct.Len())
	for _, item := range ct.Items() {
		orders = append(orders, item.SellOrder())
	}

	builder := recycler.NewBuilder(router, recycler.BuilderConfig{
		BaseMint:    cfg.BaseMint,
		FeeBps:      cfg.FeeBps,
		FeeAccount:  cfg.FeeAccount,
		SlippageBps: cfg.SlippageBps,
	}, logger)

	unsigned, err := builder.Build(ctx, owner, orders)
	if err != nil {
		logger.WithError(err).Fatal("recycle build failed")
	}
	logger.WithField("txs", len(unsigned)).Info("swap batch built")

	if *dryRun {
		for _, tx := range unsigned {
			fmt.Printf("%s  %d bytes (base64)\n", tx.Mint, len(tx.SwapTransaction))
		}
		return
	}

	coordinator := broadcast.NewCoordinator(w, w, logger).
		BindCart(ct).
		WithConfirmEach(*confirmEach).
		WithReportSink(buildReportSink(ctx, cfg, logger))

	report, err := coordinator.Execute(ctx, owner, unsigned)
	if err != nil {
		logger.WithError(err).Fatal("checkout aborted")
	}

	for _, res := range report.Results {
		if res.Success {
			fmt.Printf("OK    %s  %s\n", res.Mint, res.Signature)
		} else {
			fmt.Printf("FAIL  %s  %s\n", res.Mint, res.Error)
		}
	}
	fmt.Printf("%d succeeded, %d failed\n", report.Succeeded, report.Failed)

	if report.Failed > 0 {
		os.Exit(1)
	}
}

// buildReportSink wires the optional Redis feed and ClickHouse history. A
// missing backend just means the report is not recorded there.
func buildReportSink(ctx context.Context, cfg *config.Config, logger *logrus.Logger) broadcast.ReportSink {
	sink := &reportSink{logger: logger}

	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, checkout feed disabled")
		} else {
			sink.feed = cache.NewRedisFeed(rclient, logger)
		}
	}

	if cfg.ClickHouseAddr != "" {
		ch, err := storage.NewClickHouseStore(ctx, storage.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Warn("clickhouse unreachable, checkout history disabled")
		} else {
			sink.store = ch
		}
	}

	return sink
}

// reportSink fans one report out to every configured backend.
type reportSink struct {
	feed   storage.CheckoutFeed
	store  storage.CheckoutStore
	logger *logrus.Logger
}

func (s *reportSink) RecordCheckout(ctx context.Context, report *models.CheckoutReport) error {
	if s.feed != nil {
		if err := s.feed.AddRecentCheckout(ctx, report); err != nil {
			s.logger.WithError(err).Warn("failed to push checkout to feed")
		}
		if err := s.feed.PublishCheckout(ctx, report); err != nil {
			s.logger.WithError(err).Warn("failed to publish checkout event")
		}
	}
	if s.store != nil {
		if err := s.store.InsertCheckout(ctx, report); err != nil {
			s.logger.WithError(err).Warn("failed to persist checkout history")
		}
	}
	return nil
}
