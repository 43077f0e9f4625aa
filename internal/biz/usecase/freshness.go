package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"
)

// ErrNoAlias means the user has no alias on record yet
var ErrNoAlias = errors.New("no alias on record")

// RefreshResult reports the outcome of a live re-resolution
type RefreshResult struct {
	Record         *domain.IdentityRecord
	Address        string
	AddressChanged bool
}

// FreshnessUsecase re-verifies a stored alias before every sensitive
// operation. The bound address for an alias can change out-of-band;
// acting on a cached address would misdirect funds.
type FreshnessUsecase struct {
	identityRepo repo.IdentityRepo
	resolverRepo repo.ResolverRepo
}

// NewFreshnessUsecase creates a new freshness usecase
func NewFreshnessUsecase(identityRepo repo.IdentityRepo, resolverRepo repo.ResolverRepo) *FreshnessUsecase {
	return &FreshnessUsecase{
		identityRepo: identityRepo,
		resolverRepo: resolverRepo,
	}
}

// Refresh performs a live resolver call for the user's stored alias.
// On resolver failure nothing is mutated. On success a drifted address
// is persisted and reported so callers can surface a notice.
func (uc *FreshnessUsecase) Refresh(ctx context.Context, userID string) (*RefreshResult, error) {
	record, err := uc.identityRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if !record.HasAlias() {
		return nil, ErrNoAlias
	}

	res, err := uc.resolverRepo.Lookup(ctx, record.Alias)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", record.Alias, err)
	}
	if !res.Registered || res.Address == "" {
		return nil, fmt.Errorf("alias %s is no longer registered", record.Alias)
	}

	changed := record.Address == "" || !strings.EqualFold(record.Address, res.Address)
	if changed {
		record.Address = res.Address
		record.Attested = res.Attestation != ""
		record.UpdatedAt = time.Now()
		if err := uc.identityRepo.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("persist identity: %w", err)
		}
		fmt.Printf("[Freshness] Address for %s updated to %s\n", record.Alias, res.Address)
	}

	return &RefreshResult{
		Record:         record,
		Address:        record.Address,
		AddressChanged: changed,
	}, nil
}

// SetAlias resolves a candidate alias live and, only on success,
// persists it as the user's identity record.
func (uc *FreshnessUsecase) SetAlias(ctx context.Context, userID, alias string) (*domain.IdentityRecord, error) {
	alias = domain.NormalizeAlias(alias)
	if !domain.ValidAlias(alias) {
		return nil, fmt.Errorf("alias %q has an invalid shape", alias)
	}

	res, err := uc.resolverRepo.Lookup(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", alias, err)
	}
	if !res.Registered || res.Address == "" {
		return nil, fmt.Errorf("alias %s is not registered", alias)
	}

	record := &domain.IdentityRecord{
		UserID:    userID,
		Alias:     alias,
		Address:   res.Address,
		Attested:  res.Attestation != "",
		UpdatedAt: time.Now(),
	}
	if err := uc.identityRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("persist identity: %w", err)
	}
	return record, nil
}

// Record returns the stored record without resolving (non-sensitive reads)
func (uc *FreshnessUsecase) Record(ctx context.Context, userID string) (*domain.IdentityRecord, error) {
	return uc.identityRepo.GetByUser(ctx, userID)
}
