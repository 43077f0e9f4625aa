package data

import (
	"context"

	"github.com/anonpay/paylink-agent/internal/biz/repo"
	"github.com/anonpay/paylink-agent/internal/infra/fkey"
)

// fkeyRepo implements the resolver repository over the fkey client
type fkeyRepo struct {
	client *fkey.Client
}

// NewResolverRepo creates a new resolver repository
func NewResolverRepo(client *fkey.Client) repo.ResolverRepo {
	return &fkeyRepo{client: client}
}

// Lookup resolves an alias via the fkey HTTP service
func (r *fkeyRepo) Lookup(ctx context.Context, alias string) (*repo.Resolution, error) {
	res, err := r.client.Lookup(ctx, alias)
	if err != nil {
		return nil, err
	}
	return &repo.Resolution{
		Registered:  res.Registered,
		Address:     res.Address,
		Attestation: res.Attestation,
	}, nil
}
