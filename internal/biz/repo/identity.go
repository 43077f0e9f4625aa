package repo

import (
	"context"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
)

// IdentityRepo persists identity alias records, keyed by sender identity
type IdentityRepo interface {
	// GetByUser gets a user's identity record, nil if none stored
	GetByUser(ctx context.Context, userID string) (*domain.IdentityRecord, error)

	// Save saves a record (create or update)
	Save(ctx context.Context, record *domain.IdentityRecord) error

	// Delete removes a user's record
	Delete(ctx context.Context, userID string) error

	// ListAll lists all records (admin surface)
	ListAll(ctx context.Context) ([]*domain.IdentityRecord, error)

	// MarkGroupIntroduced records that a group received its one-time
	// introduction; returns true if this call was the first
	MarkGroupIntroduced(ctx context.Context, convID string) (first bool, err error)

	Close() error
}

// ReceiptRepo captures inbound transaction references with a TTL
type ReceiptRepo interface {
	Put(ctx context.Context, key string, receiptJSON []byte, ttl time.Duration) error
}
