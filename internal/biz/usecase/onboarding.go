package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
)

// OnboardingUsecase drives the per-user conversational flow from first
// contact to a confirmed identity. Only direct messages go through it;
// groups are introduced once and otherwise require an explicit mention.
//
// Handlers run on a worker pool while the reaper and the admin API read
// the same entries, so every entry access goes through uc.mu. The one
// blocking call in the flow (alias resolution on confirm) happens with
// the lock released.
type OnboardingUsecase struct {
	freshness *FreshnessUsecase
	registry  *ActionSetRegistry

	mu      sync.Mutex
	entries map[string]*domain.Onboarding
}

// NewOnboardingUsecase creates a new onboarding usecase
func NewOnboardingUsecase(freshness *FreshnessUsecase, registry *ActionSetRegistry) *OnboardingUsecase {
	return &OnboardingUsecase{
		freshness: freshness,
		registry:  registry,
		entries:   make(map[string]*domain.Onboarding),
	}
}

// entry gets or creates the tracking entry for a user and refreshes its
// last-activity time. Callers must hold uc.mu.
func (uc *OnboardingUsecase) entry(userID string) *domain.Onboarding {
	e, ok := uc.entries[userID]
	if !ok {
		e = domain.NewOnboarding(userID)
		uc.entries[userID] = e
	}
	e.Touch()
	return e
}

// Stage reports a user's current stage
func (uc *OnboardingUsecase) Stage(userID string) domain.OnboardingStage {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if e, ok := uc.entries[userID]; ok {
		return e.Stage
	}
	return domain.StageUnknown
}

// MarkOnboarded fast-forwards a user whose identity is already on record
// (e.g. restored from the store after a restart, or set via /set).
func (uc *OnboardingUsecase) MarkOnboarded(userID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	e := uc.entry(userID)
	e.Stage = domain.StageOnboarded
	e.Candidate = ""
}

// FirstContact handles a user's first DM: welcome text plus the
// two-choice entry action set.
func (uc *OnboardingUsecase) FirstContact(userID string) *Reply {
	uc.mu.Lock()
	welcomed := uc.entry(userID).Welcome()
	uc.mu.Unlock()
	if !welcomed {
		return nil
	}

	set := newSet(
		"Welcome! I create anonymous payment links for your alias. Do you already have one?",
		domain.Action{ID: mintActionID(domain.ActionHaveAlias), Label: "I have an alias", Style: domain.StylePrimary},
		domain.Action{ID: mintActionID(domain.ActionNoAlias), Label: "I don't have one", Style: domain.StyleSecondary},
	)
	uc.registry.RecordIssued(userID, set.ID)

	return &Reply{
		Text:    "gm! I'm your anonymous payments agent.",
		Actions: set,
	}
}

// HandleText processes free text while the user is mid-flow. Returns
// (reply, true) when the text was consumed by the state machine.
func (uc *OnboardingUsecase) HandleText(ctx context.Context, userID, text string) (*Reply, bool) {
	alias := domain.NormalizeAlias(text)

	uc.mu.Lock()
	e := uc.entry(userID)
	if e.Stage != domain.StageAwaitingAlias {
		uc.mu.Unlock()
		return nil, false
	}
	if !domain.ValidAlias(alias) {
		// Not alias-shaped; fall through to general handling
		uc.mu.Unlock()
		return nil, false
	}
	e.Propose(alias)
	uc.mu.Unlock()

	set := newSet(
		fmt.Sprintf("Set your alias to %s%s?", alias, domain.AliasSuffix),
		domain.Action{ID: mintActionID(domain.ActionConfirmAlias), Label: "Yes, that's me", Style: domain.StylePrimary},
		domain.Action{ID: mintActionID(domain.ActionCancelAlias), Label: "No, let me retype", Style: domain.StyleDanger},
	)
	uc.registry.RecordIssued(userID, set.ID)
	return &Reply{Actions: set}, true
}

// HandleAction processes onboarding button clicks. Returns (reply, true)
// when the action belongs to this flow.
func (uc *OnboardingUsecase) HandleAction(ctx context.Context, userID string, base domain.BaseAction) (*Reply, bool) {
	switch base {
	case domain.ActionHaveAlias:
		uc.mu.Lock()
		uc.entry(userID).AwaitAlias()
		uc.mu.Unlock()
		return &Reply{Text: fmt.Sprintf("Great - what's your alias? You can paste it with or without the %s suffix.", domain.AliasSuffix)}, true

	case domain.ActionNoAlias:
		uc.mu.Lock()
		uc.entry(userID)
		uc.mu.Unlock()
		return &Reply{Text: fmt.Sprintf("No problem. Claim one first, then come back and tell me the name (for example yourname%s).", domain.AliasSuffix)}, true

	case domain.ActionCancelAlias:
		uc.mu.Lock()
		uc.entry(userID).AwaitAlias()
		uc.mu.Unlock()
		return &Reply{Text: "Okay, scrapped that. What's your alias?"}, true

	case domain.ActionConfirmAlias:
		uc.mu.Lock()
		e := uc.entry(userID)
		if e.Stage != domain.StageConfirming || e.Candidate == "" {
			uc.mu.Unlock()
			return &Reply{Text: "There's nothing pending to confirm. Send your alias or use /set <alias>."}, true
		}
		candidate := e.Candidate
		uc.mu.Unlock()

		// Resolve with the lock released; this is a network call
		record, err := uc.freshness.SetAlias(ctx, userID, candidate)
		if err != nil {
			// Stay in Confirming; the user can retry via /set
			return &Reply{Text: fmt.Sprintf("I couldn't verify that alias: %v\nFix it on the resolver side and retry, or use /set <alias>.", err)}, true
		}

		uc.mu.Lock()
		uc.entry(userID).Complete()
		uc.mu.Unlock()

		set := uc.menuSet(userID)
		return &Reply{
			Text:    fmt.Sprintf("You're all set! %s%s resolves to %s.", record.Alias, domain.AliasSuffix, record.Address),
			Actions: set,
		}, true
	}

	return nil, false
}

// menuSet renders the post-onboarding action menu
func (uc *OnboardingUsecase) menuSet(userID string) *domain.ActionSet {
	set := newSet(
		"What would you like to do?",
		domain.Action{ID: mintActionID(domain.ActionCreateLink), Label: "Create payment link", Style: domain.StylePrimary},
		domain.Action{ID: mintActionID(domain.ActionCheckBalance), Label: "Check balance", Style: domain.StyleSecondary},
		domain.Action{ID: mintActionID(domain.ActionShowHelp), Label: "Help", Style: domain.StyleSecondary},
	)
	uc.registry.RecordIssued(userID, set.ID)
	return set
}

// Menu re-renders the main menu (used by /help follow-ups)
func (uc *OnboardingUsecase) Menu(userID string) *Reply {
	return &Reply{Actions: uc.menuSet(userID)}
}

// Sweep evicts entries idle beyond ttl and returns how many went.
// Registry windows for evicted users go with them; onEvict (optional)
// lets the caller drop related state.
func (uc *OnboardingUsecase) Sweep(ttl time.Duration, onEvict func(userID string)) int {
	cutoff := time.Now().Add(-ttl)

	uc.mu.Lock()
	defer uc.mu.Unlock()

	removed := 0
	for userID, e := range uc.entries {
		if e.IdleSince(cutoff) {
			delete(uc.entries, userID)
			uc.registry.Remove(userID)
			if onEvict != nil {
				onEvict(userID)
			}
			removed++
		}
	}
	return removed
}
