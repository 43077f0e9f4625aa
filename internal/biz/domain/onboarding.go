package domain

import "time"

// OnboardingStage represents where a user is in the onboarding flow
type OnboardingStage string

const (
	StageUnknown       OnboardingStage = "unknown"
	StageWelcomed      OnboardingStage = "welcomed"
	StageAwaitingAlias OnboardingStage = "awaiting_alias"
	StageConfirming    OnboardingStage = "confirming"
	StageOnboarded     OnboardingStage = "onboarded"
)

// Onboarding tracks a single user's progress through the flow.
// Stages advance in one direction only, except Confirming, which may
// fall back to AwaitingAlias when the user rejects the candidate.
type Onboarding struct {
	UserID    string
	Stage     OnboardingStage
	Candidate string    // alias awaiting confirmation, set in Confirming
	StagedAt  time.Time // when the current stage was entered
	LastSeen  time.Time
}

// NewOnboarding creates a fresh tracking entry for a first-contact user
func NewOnboarding(userID string) *Onboarding {
	now := time.Now()
	return &Onboarding{
		UserID:   userID,
		Stage:    StageUnknown,
		StagedAt: now,
		LastSeen: now,
	}
}

// Touch updates the last-activity time
func (o *Onboarding) Touch() {
	o.LastSeen = time.Now()
}

// IdleSince checks if the entry has been inactive since before t
func (o *Onboarding) IdleSince(t time.Time) bool {
	return o.LastSeen.Before(t)
}

func (o *Onboarding) enter(stage OnboardingStage) {
	o.Stage = stage
	o.StagedAt = time.Now()
	o.LastSeen = o.StagedAt
}

// Welcome moves Unknown to Welcomed. Returns false if already past it.
func (o *Onboarding) Welcome() bool {
	if o.Stage != StageUnknown {
		return false
	}
	o.enter(StageWelcomed)
	return true
}

// AwaitAlias moves Welcomed (or a rejected Confirming) to AwaitingAlias
func (o *Onboarding) AwaitAlias() bool {
	if o.Stage != StageWelcomed && o.Stage != StageConfirming {
		return false
	}
	o.Candidate = ""
	o.enter(StageAwaitingAlias)
	return true
}

// Propose stores a candidate alias and moves to Confirming
func (o *Onboarding) Propose(alias string) bool {
	if o.Stage == StageOnboarded {
		return false
	}
	o.Candidate = alias
	o.enter(StageConfirming)
	return true
}

// Complete marks the user fully onboarded. Only valid from Confirming;
// the caller must already hold a successful resolution for the candidate.
func (o *Onboarding) Complete() bool {
	if o.Stage != StageConfirming {
		return false
	}
	o.Candidate = ""
	o.enter(StageOnboarded)
	return true
}
