package storage

import (
	"context"
	"io"

	"github.com/dustfolio/solana-dust-recycler/internal/models"
)

// CheckoutFeed defines the cache-side view of finished checkouts.
type CheckoutFeed interface {
	// AddRecentCheckout adds a report to the recent feed
	AddRecentCheckout(ctx context.Context, report *models.CheckoutReport) error

	// GetRecentCheckouts retrieves the most recent reports, newest first
	GetRecentCheckouts(ctx context.Context, limit int64) ([]*models.CheckoutReport, error)

	// PublishCheckout publishes a report to the live Pub/Sub channel
	PublishCheckout(ctx context.Context, report *models.CheckoutReport) error

	// SubscribeCheckouts subscribes to live checkout reports
	SubscribeCheckouts(ctx context.Context) (<-chan *models.CheckoutReport, error)

	// Ping checks if the feed is reachable
	Ping(ctx context.Context) error

	// Close closes the feed connection
	io.Closer
}

// CheckoutStore defines the persistent history of checkout outcomes.
type CheckoutStore interface {
	// InsertCheckout persists one report, one row per broadcast result
	InsertCheckout(ctx context.Context, report *models.CheckoutReport) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}
