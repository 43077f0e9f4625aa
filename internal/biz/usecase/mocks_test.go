package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"
)

// Mock implementations

type mockIdentityRepo struct {
	mu      sync.Mutex
	records map[string]*domain.IdentityRecord
	intros  map[string]bool
	saves   int
	failGet bool
}

func newMockIdentityRepo() *mockIdentityRepo {
	return &mockIdentityRepo{
		records: make(map[string]*domain.IdentityRecord),
		intros:  make(map[string]bool),
	}
}

func (m *mockIdentityRepo) GetByUser(ctx context.Context, userID string) (*domain.IdentityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("store unavailable")
	}
	if r, ok := m.records[userID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (m *mockIdentityRepo) Save(ctx context.Context, record *domain.IdentityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.records[record.UserID] = &copied
	m.saves++
	return nil
}

func (m *mockIdentityRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
	return nil
}

func (m *mockIdentityRepo) ListAll(ctx context.Context) ([]*domain.IdentityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.IdentityRecord
	for _, r := range m.records {
		result = append(result, r)
	}
	return result, nil
}

func (m *mockIdentityRepo) MarkGroupIntroduced(ctx context.Context, convID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intros[convID] {
		return false, nil
	}
	m.intros[convID] = true
	return true, nil
}

func (m *mockIdentityRepo) Close() error { return nil }

func (m *mockIdentityRepo) record(userID string) *domain.IdentityRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[userID]
}

func (m *mockIdentityRepo) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type mockResolverRepo struct {
	mu           sync.Mutex
	addresses    map[string]string // alias -> address
	attestations map[string]string
	err          error
	calls        int
}

func newMockResolverRepo() *mockResolverRepo {
	return &mockResolverRepo{
		addresses:    make(map[string]string),
		attestations: make(map[string]string),
	}
}

func (m *mockResolverRepo) Lookup(ctx context.Context, alias string) (*repo.Resolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	addr, ok := m.addresses[alias]
	if !ok {
		return &repo.Resolution{Registered: false}, nil
	}
	return &repo.Resolution{
		Registered:  true,
		Address:     addr,
		Attestation: m.attestations[alias],
	}, nil
}

func (m *mockResolverRepo) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockPayRailRepo struct {
	calls []*repo.LinkRequest
	url   string
	err   error
}

func (m *mockPayRailRepo) CreateLink(ctx context.Context, req *repo.LinkRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	if m.url == "" {
		return "https://pay.example/l/abc", nil
	}
	return m.url, nil
}
