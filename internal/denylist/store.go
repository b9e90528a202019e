package denylist

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustfolio/solana-dust-recycler/internal/constants"
	"github.com/mr-tron/base58"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidMint rejects entries that are not 32-byte base58 addresses.
var ErrInvalidMint = errors.New("invalid mint address")

// Store is a Redis-backed set of scam mints excluded from portfolio scans.
// Shared across all sessions; read-mostly.
type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

// ValidateMint checks that the string decodes to a 32-byte public key.
func ValidateMint(mint string) error {
	raw, err := base58.Decode(mint)
	if err != nil || len(raw) != 32 {
		return ErrInvalidMint
	}
	return nil
}

// Add puts a mint on the denylist. Idempotent.
func (s *Store) Add(ctx context.Context, mint string) error {
	if err := ValidateMint(mint); err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, constants.RedisKeyDenylist, mint).Err(); err != nil {
		return fmt.Errorf("add denylist mint: %w", err)
	}
	return nil
}

// Remove takes a mint off the denylist. Removing an absent mint is not an
// error.
func (s *Store) Remove(ctx context.Context, mint string) error {
	if err := ValidateMint(mint); err != nil {
		return err
	}
	if err := s.client.SRem(ctx, constants.RedisKeyDenylist, mint).Err(); err != nil {
		return fmt.Errorf("remove denylist mint: %w", err)
	}
	return nil
}

// Contains reports whether a single mint is denylisted.
func (s *Store) Contains(ctx context.Context, mint string) (bool, error) {
	if err := ValidateMint(mint); err != nil {
		return false, err
	}
	ok, err := s.client.SIsMember(ctx, constants.RedisKeyDenylist, mint).Result()
	if err != nil {
		return false, fmt.Errorf("check denylist mint: %w", err)
	}
	return ok, nil
}

// List returns all denylisted mints.
func (s *Store) List(ctx context.Context) ([]string, error) {
	mints, err := s.client.SMembers(ctx, constants.RedisKeyDenylist).Result()
	if err != nil {
		return nil, fmt.Errorf("list denylist: %w", err)
	}
	return mints, nil
}

// Denied returns the denylist as a set, the shape the scanner filters with.
func (s *Store) Denied(ctx context.Context) (map[string]struct{}, error) {
	mints, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(mints))
	for _, m := range mints {
		out[m] = struct{}{}
	}
	return out, nil
}
