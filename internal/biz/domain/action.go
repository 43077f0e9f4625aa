package domain

import (
	"strings"
	"time"
	"unicode"
)

// ActionStyle controls how a client renders an action button
type ActionStyle string

const (
	StylePrimary   ActionStyle = "primary"
	StyleSecondary ActionStyle = "secondary"
	StyleDanger    ActionStyle = "danger"
)

// Action represents a single clickable option inside an action set
type Action struct {
	ID    string
	Label string
	Style ActionStyle
}

// ActionSet represents an expiring menu of clickable options.
// Immutable once sent; re-rendering produces a new set with a new ID.
type ActionSet struct {
	ID          string
	Description string
	Actions     []Action
	ExpiresAt   time.Time
}

// ClickIntent represents the event produced when a user activates an action
type ClickIntent struct {
	ID          string
	ActionSetID string
	ActionID    string
	Metadata    map[string]string
}

// DedupKey builds the composite key used by the intent cache
func (i *ClickIntent) DedupKey(senderID string) string {
	return senderID + "|" + i.ID + "|" + i.ActionID
}

// BaseAction is the finite inventory of actions the agent dispatches on
type BaseAction string

const (
	ActionHaveAlias     BaseAction = "have-alias"
	ActionNoAlias       BaseAction = "no-alias"
	ActionConfirmAlias  BaseAction = "confirm-alias"
	ActionCancelAlias   BaseAction = "cancel-alias"
	ActionCheckBalance  BaseAction = "check-balance"
	ActionCreateLink    BaseAction = "create-link"
	ActionSendToAddress BaseAction = "send-to-address"
	ActionOpenLink      BaseAction = "open-link"
	ActionOpenAltLink   BaseAction = "open-alt-link"
	ActionCreateAnother BaseAction = "create-another"
	ActionShowHelp      BaseAction = "show-help"
	ActionUnknown       BaseAction = ""
)

// legacyActionAliases maps retired action IDs from earlier renders to their
// current equivalents. Resolved once before dispatch.
var legacyActionAliases = map[BaseAction]BaseAction{
	"share-payment": ActionOpenLink,
	"copy-address":  ActionSendToAddress,
	"make-another":  ActionCreateAnother,
	"set-username":  ActionHaveAlias,
}

// ParseActionID recovers the base action from a rendered action ID.
// Rendered IDs carry a trailing "-<unix-millis>" disambiguation suffix;
// IDs without a suffix, or with a non-numeric tail, are returned whole.
func ParseActionID(id string) BaseAction {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 || idx == len(id)-1 {
		return resolveAlias(BaseAction(id))
	}
	tail := id[idx+1:]
	for _, r := range tail {
		if !unicode.IsDigit(r) {
			return resolveAlias(BaseAction(id))
		}
	}
	return resolveAlias(BaseAction(id[:idx]))
}

func resolveAlias(a BaseAction) BaseAction {
	if canonical, ok := legacyActionAliases[a]; ok {
		return canonical
	}
	return a
}

// Expired checks whether the set's expiry has passed
func (s *ActionSet) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
