package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
)

func TestRefreshNoAlias(t *testing.T) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	uc := NewFreshnessUsecase(identity, resolver)

	_, err := uc.Refresh(context.Background(), "user-1")
	if !errors.Is(err, ErrNoAlias) {
		t.Errorf("expected ErrNoAlias, got %v", err)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver should not be called without an alias, got %d calls", resolver.calls)
	}
}

func TestRefreshStableAddress(t *testing.T) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	resolver.addresses["alice"] = "0xAbC123"
	uc := NewFreshnessUsecase(identity, resolver)

	if _, err := uc.SetAlias(context.Background(), "user-1", "alice"); err != nil {
		t.Fatalf("SetAlias failed: %v", err)
	}
	savesAfterSet := identity.saves

	for i := 0; i < 2; i++ {
		res, err := uc.Refresh(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if res.AddressChanged {
			t.Errorf("refresh %d: address should not be reported as changed", i+1)
		}
		if res.Address != "0xAbC123" {
			t.Errorf("refresh %d: got address %q", i+1, res.Address)
		}
	}
	if identity.saves != savesAfterSet {
		t.Errorf("stable refreshes should not persist, saves went %d -> %d", savesAfterSet, identity.saves)
	}
}

func TestRefreshDetectsDrift(t *testing.T) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	resolver.addresses["alice"] = "0xOld"
	uc := NewFreshnessUsecase(identity, resolver)

	if _, err := uc.SetAlias(context.Background(), "user-1", "alice"); err != nil {
		t.Fatalf("SetAlias failed: %v", err)
	}

	// Alias rebinds out-of-band
	resolver.addresses["alice"] = "0xNew"

	res, err := uc.Refresh(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !res.AddressChanged {
		t.Error("drifted address should be reported as changed")
	}
	if res.Address != "0xNew" {
		t.Errorf("expected refreshed address 0xNew, got %q", res.Address)
	}

	stored := identity.records["user-1"]
	if stored == nil || stored.Address != "0xNew" {
		t.Errorf("drift should be persisted, stored record: %+v", stored)
	}

	// Second refresh sees the persisted address as current
	res, err = uc.Refresh(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if res.AddressChanged {
		t.Error("address should be stable after drift was persisted")
	}
}

func TestRefreshResolverFailureMutatesNothing(t *testing.T) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	resolver.addresses["alice"] = "0xOld"
	uc := NewFreshnessUsecase(identity, resolver)

	if _, err := uc.SetAlias(context.Background(), "user-1", "alice"); err != nil {
		t.Fatalf("SetAlias failed: %v", err)
	}
	savesBefore := identity.saves

	resolver.err = errors.New("resolver down")
	if _, err := uc.Refresh(context.Background(), "user-1"); err == nil {
		t.Fatal("expected refresh to fail when resolver is down")
	}
	if identity.saves != savesBefore {
		t.Error("failed refresh must not persist anything")
	}
	if identity.records["user-1"].Address != "0xOld" {
		t.Error("stored address must survive a failed refresh")
	}
}

func TestRefreshUnregisteredAlias(t *testing.T) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	uc := NewFreshnessUsecase(identity, resolver)

	identity.records["user-1"] = &domain.IdentityRecord{
		UserID:    "user-1",
		Alias:     "ghost",
		Address:   "0xOld",
		UpdatedAt: time.Now(),
	}

	if _, err := uc.Refresh(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error for an alias that is no longer registered")
	}
	if identity.records["user-1"].Address != "0xOld" {
		t.Error("stored address must survive an unregistered lookup")
	}
}

func TestSetAliasNormalizesInput(t *testing.T) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	resolver.addresses["alice"] = "0xAbC123"
	resolver.attestations["alice"] = "proof"
	uc := NewFreshnessUsecase(identity, resolver)

	record, err := uc.SetAlias(context.Background(), "user-1", "  @Alice.fkey.id  ")
	if err != nil {
		t.Fatalf("SetAlias failed: %v", err)
	}
	if record.Alias != "alice" {
		t.Errorf("expected normalized alias alice, got %q", record.Alias)
	}
	if !record.Attested {
		t.Error("attestation presence should mark the record attested")
	}
}

func TestSetAliasRejectsBadShape(t *testing.T) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	uc := NewFreshnessUsecase(identity, resolver)

	for _, alias := range []string{"a", "has space", "UPPER!", ""} {
		if _, err := uc.SetAlias(context.Background(), "user-1", alias); err == nil {
			t.Errorf("alias %q should be rejected", alias)
		}
	}
	if resolver.calls != 0 {
		t.Errorf("shape rejection must happen before any lookup, got %d calls", resolver.calls)
	}
}

func TestSetAliasUnregisteredNotPersisted(t *testing.T) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	uc := NewFreshnessUsecase(identity, resolver)

	if _, err := uc.SetAlias(context.Background(), "user-1", "nobody"); err == nil {
		t.Fatal("expected error for unregistered alias")
	}
	if identity.saves != 0 {
		t.Error("unregistered alias must not be persisted")
	}
}
