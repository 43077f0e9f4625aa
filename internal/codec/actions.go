package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
)

// ContentTypeActions identifies the action set payload
var ContentTypeActions = ContentTypeID{
	Authority:    "anonpay.dev",
	TypeID:       "actions",
	VersionMajor: 1,
	VersionMinor: 0,
}

type actionsBody struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Actions     []actionBody `json:"actions"`
	ExpiresMs   int64        `json:"expiresAtMs,omitempty"`
}

type actionBody struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Style string `json:"style,omitempty"`
}

// ActionsCodec encodes and decodes action set messages
type ActionsCodec struct{}

// ContentType returns the codec's content type
func (ActionsCodec) ContentType() ContentTypeID { return ContentTypeActions }

// ShouldPush marks action sets as push-notification-worthy
func (ActionsCodec) ShouldPush() bool { return true }

// Encode serializes an action set into wire form
func (c ActionsCodec) Encode(set *domain.ActionSet) (*EncodedContent, error) {
	if set.ID == "" {
		return nil, fmt.Errorf("action set has no id")
	}
	if set.Description == "" {
		return nil, fmt.Errorf("action set %s has no description", set.ID)
	}
	if len(set.Actions) == 0 {
		return nil, fmt.Errorf("action set %s has no actions", set.ID)
	}

	body := actionsBody{
		ID:          set.ID,
		Description: set.Description,
	}
	if !set.ExpiresAt.IsZero() {
		body.ExpiresMs = set.ExpiresAt.UnixMilli()
	}
	for _, a := range set.Actions {
		body.Actions = append(body.Actions, actionBody{
			ID:    a.ID,
			Label: a.Label,
			Style: string(a.Style),
		})
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal actions: %w", err)
	}

	return &EncodedContent{
		Type:       ContentTypeActions,
		Parameters: textParameters(),
		Fallback:   c.Fallback(set),
		Content:    raw,
	}, nil
}

// Decode parses wire form back into an action set
func (c ActionsCodec) Decode(ec *EncodedContent) (*domain.ActionSet, error) {
	if !ContentTypeActions.Matches(ec.Type) {
		return nil, fmt.Errorf("content type %s is not %s", ec.Type, ContentTypeActions)
	}
	if err := checkEncoding(ec.Parameters); err != nil {
		return nil, err
	}

	var body actionsBody
	if err := json.Unmarshal(ec.Content, &body); err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	if body.ID == "" || len(body.Actions) == 0 {
		return nil, fmt.Errorf("actions payload missing id or actions")
	}

	set := &domain.ActionSet{
		ID:          body.ID,
		Description: body.Description,
	}
	if body.ExpiresMs > 0 {
		set.ExpiresAt = time.UnixMilli(body.ExpiresMs)
	}
	for _, a := range body.Actions {
		set.Actions = append(set.Actions, domain.Action{
			ID:    a.ID,
			Label: a.Label,
			Style: domain.ActionStyle(a.Style),
		})
	}
	return set, nil
}

// Fallback renders the set for clients without structured support
func (ActionsCodec) Fallback(set *domain.ActionSet) string {
	text := set.Description
	for i, a := range set.Actions {
		text += fmt.Sprintf("\n%d. %s", i+1, a.Label)
	}
	text += "\nReply with the number of your choice."
	return text
}
