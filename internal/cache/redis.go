package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustfolio/solana-dust-recycler/internal/constants"
	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisFeed keeps the rolling list of recent checkout reports and fans them
// out over Pub/Sub for live consumers.
type RedisFeed struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisFeed(client *redis.Client, logger *logrus.Logger) *RedisFeed {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisFeed{client: client, logger: logger}
}

// AddRecentCheckout pushes a report onto the recent feed, trimmed to the
// configured window.
func (r *RedisFeed) AddRecentCheckout(ctx context.Context, report *models.CheckoutReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal checkout report: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentCheckouts, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentCheckouts, 0, constants.MaxRecentCheckouts-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push recent checkout: %w", err)
	}
	return nil
}

// GetRecentCheckouts returns up to limit most recent reports, newest first.
func (r *RedisFeed) GetRecentCheckouts(ctx context.Context, limit int64) ([]*models.CheckoutReport, error) {
	if limit <= 0 || limit > constants.MaxRecentCheckouts {
		limit = constants.MaxRecentCheckouts
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentCheckouts, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent checkouts: %w", err)
	}

	out := make([]*models.CheckoutReport, 0, len(vals))
	for _, v := range vals {
		var report models.CheckoutReport
		if err := json.Unmarshal([]byte(v), &report); err != nil {
			r.logger.WithError(err).Warn("skipping malformed checkout entry")
			continue
		}
		out = append(out, &report)
	}
	return out, nil
}

// PublishCheckout pushes the report to the live channel.
func (r *RedisFeed) PublishCheckout(ctx context.Context, report *models.CheckoutReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal checkout report: %w", err)
	}
	return r.client.Publish(ctx, constants.PubSubChannelCheckouts, data).Err()
}

// SubscribeCheckouts streams live checkout reports until ctx is cancelled.
func (r *RedisFeed) SubscribeCheckouts(ctx context.Context) (<-chan *models.CheckoutReport, error) {
	pubsub := r.client.Subscribe(ctx, constants.PubSubChannelCheckouts)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe checkouts: %w", err)
	}

	out := make(chan *models.CheckoutReport)
	go func() {
		defer close(out)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var report models.CheckoutReport
				if err := json.Unmarshal([]byte(msg.Payload), &report); err != nil {
					r.logger.WithError(err).Warn("skipping malformed checkout event")
					continue
				}
				select {
				case out <- &report:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisFeed) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisFeed) Close() error {
	return r.client.Close()
}
