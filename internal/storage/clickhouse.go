package storage

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/sirupsen/logrus"
)

// ClickHouseStore persists checkout history for analytics, one row per
// broadcast result.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

// InsertCheckout writes the report as one row per broadcast result.
func (c *ClickHouseStore) InsertCheckout(ctx context.Context, report *models.CheckoutReport) error {
	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO checkouts (
			owner, mint, success, signature, error,
			started_at, finished_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare checkout batch: %w", err)
	}

	for _, res := range report.Results {
		if err := batch.Append(
			report.Owner,
			res.Mint,
			res.Success,
			res.Signature,
			res.Error,
			report.StartedAt,
			report.FinishedAt,
		); err != nil {
			return fmt.Errorf("failed to append checkout row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert checkout: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
