package data

import (
	"context"

	"github.com/anonpay/paylink-agent/internal/biz/repo"
	"github.com/anonpay/paylink-agent/internal/infra/payrail"
)

// payRailRepo implements the payment-rail repository over the HTTP client
type payRailRepo struct {
	client *payrail.Client
}

// NewPayRailRepo creates a new payment-rail repository
func NewPayRailRepo(client *payrail.Client) repo.PayRailRepo {
	return &payRailRepo{client: client}
}

// CreateLink mints a payable link
func (r *payRailRepo) CreateLink(ctx context.Context, req *repo.LinkRequest) (string, error) {
	return r.client.CreateLink(ctx, req.ToAddress, req.Amount, req.Currency, req.ChainID, req.Memo)
}
