package usecase

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
)

// ValidityWindow is how many recently issued action sets stay clickable
// per user. Greater than one because a user may have several unread
// button sets open at once.
const ValidityWindow = 3

// actionSetTTL bounds how long a rendered set advertises itself as live
const actionSetTTL = 24 * time.Hour

// ActionSetRegistry keeps a per-user FIFO window of issued set IDs and
// rejects click intents referencing anything older.
type ActionSetRegistry struct {
	mu      sync.Mutex
	windows map[string][]string // userID -> newest-first set IDs
}

// NewActionSetRegistry creates an empty registry
func NewActionSetRegistry() *ActionSetRegistry {
	return &ActionSetRegistry{windows: make(map[string][]string)}
}

// RecordIssued appends a set ID to the front of the user's window,
// trimming to the validity window
func (r *ActionSetRegistry) RecordIssued(userID, setID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := append([]string{setID}, r.windows[userID]...)
	if len(window) > ValidityWindow {
		window = window[:ValidityWindow]
	}
	r.windows[userID] = window
}

// IsValid reports whether a referenced set ID is still honorable.
// An empty window is permissive: nothing has been issued yet, so there
// is nothing to be stale against.
func (r *ActionSetRegistry) IsValid(userID, setID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := r.windows[userID]
	if len(window) == 0 {
		return true
	}
	for _, id := range window {
		if id == setID {
			return true
		}
	}
	return false
}

// Remove drops a user's window (reaper)
func (r *ActionSetRegistry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.windows, userID)
}

// newSet mints a fresh action set. A new render always gets a new ID.
func newSet(description string, actions ...domain.Action) *domain.ActionSet {
	return &domain.ActionSet{
		ID:          uuid.New().String(),
		Description: description,
		Actions:     actions,
		ExpiresAt:   time.Now().Add(actionSetTTL),
	}
}

// mintActionID renders a base action with a millisecond suffix so every
// render is distinguishable. domain.ParseActionID strips it back off.
func mintActionID(base domain.BaseAction) string {
	return string(base) + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// Reply is what a handler wants sent back: text, optionally with buttons
type Reply struct {
	Text    string
	Actions *domain.ActionSet
}
