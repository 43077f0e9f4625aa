package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
)

func newOnboardingFixture() (*OnboardingUsecase, *mockIdentityRepo, *mockResolverRepo, *ActionSetRegistry) {
	identity := newMockIdentityRepo()
	resolver := newMockResolverRepo()
	registry := NewActionSetRegistry()
	freshness := NewFreshnessUsecase(identity, resolver)
	return NewOnboardingUsecase(freshness, registry), identity, resolver, registry
}

func TestFirstContactOnce(t *testing.T) {
	uc, _, _, registry := newOnboardingFixture()

	reply := uc.FirstContact("user-1")
	if reply == nil {
		t.Fatal("first contact should produce a welcome")
	}
	if reply.Actions == nil || len(reply.Actions.Actions) != 2 {
		t.Fatalf("expected the two-choice entry set, got %+v", reply.Actions)
	}
	if !registry.IsValid("user-1", reply.Actions.ID) {
		t.Error("welcome set should be recorded in the registry")
	}
	if uc.Stage("user-1") != domain.StageWelcomed {
		t.Errorf("expected stage welcomed, got %s", uc.Stage("user-1"))
	}

	if uc.FirstContact("user-1") != nil {
		t.Error("welcome is one-time per user")
	}
}

func TestFullOnboardingFlow(t *testing.T) {
	uc, identity, resolver, _ := newOnboardingFixture()
	resolver.addresses["alice"] = "0xAbC123"
	ctx := context.Background()

	uc.FirstContact("user-1")

	reply, handled := uc.HandleAction(ctx, "user-1", domain.ActionHaveAlias)
	if !handled || reply == nil {
		t.Fatal("have-alias belongs to the onboarding flow")
	}
	if uc.Stage("user-1") != domain.StageAwaitingAlias {
		t.Fatalf("expected awaiting_alias, got %s", uc.Stage("user-1"))
	}

	reply, handled = uc.HandleText(ctx, "user-1", "@Alice.fkey.id")
	if !handled || reply.Actions == nil || len(reply.Actions.Actions) != 2 {
		t.Fatalf("alias-shaped text should yield the confirm set, got %+v", reply)
	}
	if uc.Stage("user-1") != domain.StageConfirming {
		t.Fatalf("expected confirming, got %s", uc.Stage("user-1"))
	}

	reply, handled = uc.HandleAction(ctx, "user-1", domain.ActionConfirmAlias)
	if !handled {
		t.Fatal("confirm-alias belongs to the onboarding flow")
	}
	if !strings.Contains(reply.Text, "alice.fkey.id") || !strings.Contains(reply.Text, "0xAbC123") {
		t.Errorf("completion should name alias and address, got %q", reply.Text)
	}
	if reply.Actions == nil || len(reply.Actions.Actions) != 3 {
		t.Errorf("completion should carry the main menu, got %+v", reply.Actions)
	}
	if uc.Stage("user-1") != domain.StageOnboarded {
		t.Errorf("expected onboarded, got %s", uc.Stage("user-1"))
	}
	if identity.records["user-1"] == nil || identity.records["user-1"].Alias != "alice" {
		t.Errorf("confirmed alias should be persisted: %+v", identity.records["user-1"])
	}
}

func TestHandleTextIgnoresNonAliasInput(t *testing.T) {
	uc, _, _, _ := newOnboardingFixture()
	ctx := context.Background()

	uc.FirstContact("user-1")
	uc.HandleAction(ctx, "user-1", domain.ActionHaveAlias)

	if _, handled := uc.HandleText(ctx, "user-1", "what is an alias?"); handled {
		t.Error("non-alias text should fall through to general handling")
	}
	if uc.Stage("user-1") != domain.StageAwaitingAlias {
		t.Errorf("stage must not move on fall-through, got %s", uc.Stage("user-1"))
	}
}

func TestHandleTextOnlyWhileAwaiting(t *testing.T) {
	uc, _, _, _ := newOnboardingFixture()

	uc.FirstContact("user-1")
	if _, handled := uc.HandleText(context.Background(), "user-1", "alice"); handled {
		t.Error("alias text before awaiting_alias is not the flow's to consume")
	}
}

func TestConfirmFailsWithoutResolver(t *testing.T) {
	uc, identity, resolver, _ := newOnboardingFixture()
	ctx := context.Background()

	uc.FirstContact("user-1")
	uc.HandleAction(ctx, "user-1", domain.ActionHaveAlias)
	uc.HandleText(ctx, "user-1", "alice")

	resolver.err = errors.New("resolver down")
	reply, handled := uc.HandleAction(ctx, "user-1", domain.ActionConfirmAlias)
	if !handled || !strings.Contains(reply.Text, "couldn't verify") {
		t.Fatalf("failed verification should be reported, got %+v", reply)
	}
	if uc.Stage("user-1") != domain.StageConfirming {
		t.Errorf("failed confirm must stay in confirming, got %s", uc.Stage("user-1"))
	}
	if identity.saves != 0 {
		t.Error("nothing may be persisted when the resolver fails")
	}

	// Resolver recovers; the retry completes
	resolver.err = nil
	resolver.addresses["alice"] = "0xAbC123"
	_, handled = uc.HandleAction(ctx, "user-1", domain.ActionConfirmAlias)
	if !handled || uc.Stage("user-1") != domain.StageOnboarded {
		t.Errorf("retry after recovery should complete, got %s", uc.Stage("user-1"))
	}
}

func TestConfirmWithNothingPending(t *testing.T) {
	uc, _, _, _ := newOnboardingFixture()

	reply, handled := uc.HandleAction(context.Background(), "user-1", domain.ActionConfirmAlias)
	if !handled || !strings.Contains(reply.Text, "nothing pending") {
		t.Errorf("expected a nothing-pending reply, got %+v", reply)
	}
}

func TestCancelReturnsToAwaiting(t *testing.T) {
	uc, _, _, _ := newOnboardingFixture()
	ctx := context.Background()

	uc.FirstContact("user-1")
	uc.HandleAction(ctx, "user-1", domain.ActionHaveAlias)
	uc.HandleText(ctx, "user-1", "alice")

	if _, handled := uc.HandleAction(ctx, "user-1", domain.ActionCancelAlias); !handled {
		t.Fatal("cancel-alias belongs to the onboarding flow")
	}
	if uc.Stage("user-1") != domain.StageAwaitingAlias {
		t.Errorf("cancel should return to awaiting_alias, got %s", uc.Stage("user-1"))
	}
}

func TestMarkOnboardedFastForward(t *testing.T) {
	uc, _, _, _ := newOnboardingFixture()

	uc.MarkOnboarded("user-1")
	if uc.Stage("user-1") != domain.StageOnboarded {
		t.Errorf("expected onboarded, got %s", uc.Stage("user-1"))
	}
	if uc.FirstContact("user-1") != nil {
		t.Error("fast-forwarded users get no welcome")
	}
}

// Exercises the flow from many handler goroutines while stage reads and
// sweeps run alongside, the way the worker pool, admin API and reaper
// share the usecase. Meant to run under the race detector.
func TestConcurrentFlowStageAndSweep(t *testing.T) {
	uc, identity, resolver, _ := newOnboardingFixture()
	resolver.addresses["alice"] = "0xAbC123"
	ctx := context.Background()

	const users = 8
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		userID := fmt.Sprintf("user-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			uc.FirstContact(userID)
			uc.HandleAction(ctx, userID, domain.ActionHaveAlias)
			uc.HandleText(ctx, userID, "alice")
			uc.HandleAction(ctx, userID, domain.ActionConfirmAlias)
		}()
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
				for i := 0; i < users; i++ {
					uc.Stage(fmt.Sprintf("user-%d", i))
				}
				uc.Sweep(time.Hour, nil)
			}
		}
	}()

	wg.Wait()
	close(stop)
	readers.Wait()

	for i := 0; i < users; i++ {
		userID := fmt.Sprintf("user-%d", i)
		if uc.Stage(userID) != domain.StageOnboarded {
			t.Errorf("%s: expected onboarded, got %s", userID, uc.Stage(userID))
		}
		if identity.record(userID) == nil {
			t.Errorf("%s: confirmed alias should be persisted", userID)
		}
	}
}

func TestSweepEvictsIdleEntries(t *testing.T) {
	uc, _, _, registry := newOnboardingFixture()

	uc.FirstContact("idle-user")
	uc.FirstContact("active-user")

	// Backdate the idle entry past the cutoff
	uc.mu.Lock()
	uc.entries["idle-user"].LastSeen = time.Now().Add(-2 * time.Hour)
	uc.mu.Unlock()

	evicted := []string{}
	removed := uc.Sweep(time.Hour, func(userID string) {
		evicted = append(evicted, userID)
	})
	if removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if len(evicted) != 1 || evicted[0] != "idle-user" {
		t.Errorf("onEvict should name the idle user, got %v", evicted)
	}
	if uc.Stage("idle-user") != domain.StageUnknown {
		t.Error("evicted user should be back to unknown")
	}
	if uc.Stage("active-user") != domain.StageWelcomed {
		t.Error("active user must survive the sweep")
	}
	registry.mu.Lock()
	_, hasWindow := registry.windows["idle-user"]
	registry.mu.Unlock()
	if hasWindow {
		t.Error("evicted user's registry window should be gone")
	}
}
