package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"
)

func newTestRepo(t *testing.T) repo.IdentityRepo {
	t.Helper()
	r, err := NewIdentityRepo(filepath.Join(t.TempDir(), "identities.db"))
	if err != nil {
		t.Fatalf("NewIdentityRepo failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSaveAndGetIdentity(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	record := &domain.IdentityRecord{
		UserID:    "user-1",
		Alias:     "alice",
		Address:   "0xAbC123",
		Attested:  true,
		UpdatedAt: time.Now().Truncate(time.Second),
	}
	if err := r.Save(ctx, record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := r.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a stored record")
	}
	if got.Alias != "alice" || got.Address != "0xAbC123" || !got.Attested {
		t.Errorf("round trip mangled the record: %+v", got)
	}
	if !got.UpdatedAt.Equal(record.UpdatedAt) {
		t.Errorf("timestamp drifted: %v vs %v", got.UpdatedAt, record.UpdatedAt)
	}
}

func TestGetMissingIdentity(t *testing.T) {
	r := newTestRepo(t)

	got, err := r.GetByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing record, got %+v", got)
	}
}

func TestSaveOverwrites(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first := &domain.IdentityRecord{UserID: "user-1", Alias: "alice", Address: "0xOld", UpdatedAt: time.Now()}
	if err := r.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second := &domain.IdentityRecord{UserID: "user-1", Alias: "alice", Address: "0xNew", UpdatedAt: time.Now()}
	if err := r.Save(ctx, second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := r.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got.Address != "0xNew" {
		t.Errorf("save should upsert, got address %q", got.Address)
	}

	all, err := r.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("upsert must not duplicate rows, got %d", len(all))
	}
}

func TestDeleteIdentity(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	record := &domain.IdentityRecord{UserID: "user-1", Alias: "alice", UpdatedAt: time.Now()}
	if err := r.Save(ctx, record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := r.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := r.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got != nil {
		t.Error("record should be gone after delete")
	}
}

func TestMarkGroupIntroducedOnce(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first, err := r.MarkGroupIntroduced(ctx, "group-1")
	if err != nil {
		t.Fatalf("MarkGroupIntroduced failed: %v", err)
	}
	if !first {
		t.Error("first call should report first=true")
	}

	again, err := r.MarkGroupIntroduced(ctx, "group-1")
	if err != nil {
		t.Fatalf("second MarkGroupIntroduced failed: %v", err)
	}
	if again {
		t.Error("repeat calls must report first=false")
	}

	other, err := r.MarkGroupIntroduced(ctx, "group-2")
	if err != nil {
		t.Fatalf("MarkGroupIntroduced for group-2 failed: %v", err)
	}
	if !other {
		t.Error("a different group gets its own introduction")
	}
}
