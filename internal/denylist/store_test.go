package denylist

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validMintA = "So11111111111111111111111111111111111111112"
	validMintB = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func TestValidateMint(t *testing.T) {
	assert.NoError(t, ValidateMint(validMintA))
	assert.NoError(t, ValidateMint(validMintB))

	invalid := []string{
		"",
		"not-base58-0OIl",
		"abc",                  // too short
		"So111111111111111111", // decodes short of 32 bytes
	}
	for _, mint := range invalid {
		assert.ErrorIs(t, ValidateMint(mint), ErrInvalidMint, "mint %q should be invalid", mint)
	}
}

func TestStore_AddContainsRemove(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	ok, err := store.Contains(ctx, validMintA)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Add(ctx, validMintA))

	ok, err = store.Contains(ctx, validMintA)
	require.NoError(t, err)
	assert.True(t, ok)

	// Adding twice is idempotent.
	require.NoError(t, store.Add(ctx, validMintA))
	mints, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, mints, 1)

	require.NoError(t, store.Remove(ctx, validMintA))
	ok, err = store.Contains(ctx, validMintA)
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent mint is not an error.
	require.NoError(t, store.Remove(ctx, validMintA))
}

func TestStore_Denied(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, validMintA))
	require.NoError(t, store.Add(ctx, validMintB))

	denied, err := store.Denied(ctx)
	require.NoError(t, err)
	assert.Len(t, denied, 2)
	_, ok := denied[validMintA]
	assert.True(t, ok)
	_, ok = denied[validMintB]
	assert.True(t, ok)
}

func TestStore_RejectsInvalidMints(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, store.Add(ctx, "garbage"), ErrInvalidMint)
	assert.ErrorIs(t, store.Remove(ctx, "garbage"), ErrInvalidMint)
	_, err = store.Contains(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidMint)

	mints, listErr := store.List(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, mints)
}

func TestNewStore_NilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}
