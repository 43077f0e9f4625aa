package data

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anonpay/paylink-agent/internal/biz/repo"
)

const receiptPrefix = "receipt:"

// receiptRepo implements the receipt store over Redis
type receiptRepo struct {
	rdb *redis.Client
}

// NewReceiptRepo creates a Redis-backed receipt store
func NewReceiptRepo(addr, password string) (repo.ReceiptRepo, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable at %s: %w", addr, err)
	}

	return &receiptRepo{rdb: rdb}, nil
}

// Put stores receipt JSON under the key with a TTL
func (r *receiptRepo) Put(ctx context.Context, key string, receiptJSON []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, receiptPrefix+key, receiptJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store receipt: %w", err)
	}
	return nil
}

// noopReceiptRepo drops receipts when no Redis is configured
type noopReceiptRepo struct{}

// NewNoopReceiptRepo creates a receipt store that discards everything
func NewNoopReceiptRepo() repo.ReceiptRepo {
	return noopReceiptRepo{}
}

func (noopReceiptRepo) Put(ctx context.Context, key string, receiptJSON []byte, ttl time.Duration) error {
	return nil
}
