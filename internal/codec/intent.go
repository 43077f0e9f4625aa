package codec

import (
	"encoding/json"
	"fmt"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
)

// ContentTypeIntent identifies the click intent payload
var ContentTypeIntent = ContentTypeID{
	Authority:    "anonpay.dev",
	TypeID:       "intent",
	VersionMajor: 1,
	VersionMinor: 0,
}

type intentBody struct {
	ID          string            `json:"id"`
	ActionSetID string            `json:"actionSetId"`
	ActionID    string            `json:"actionId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// IntentCodec encodes and decodes click intent messages
type IntentCodec struct{}

// ContentType returns the codec's content type
func (IntentCodec) ContentType() ContentTypeID { return ContentTypeIntent }

// ShouldPush marks intents as push-notification-worthy
func (IntentCodec) ShouldPush() bool { return true }

// Encode serializes a click intent into wire form
func (c IntentCodec) Encode(intent *domain.ClickIntent) (*EncodedContent, error) {
	if intent.ID == "" || intent.ActionSetID == "" || intent.ActionID == "" {
		return nil, fmt.Errorf("intent missing id, set id or action id")
	}

	raw, err := json.Marshal(intentBody{
		ID:          intent.ID,
		ActionSetID: intent.ActionSetID,
		ActionID:    intent.ActionID,
		Metadata:    intent.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal intent: %w", err)
	}

	return &EncodedContent{
		Type:       ContentTypeIntent,
		Parameters: textParameters(),
		Fallback:   c.Fallback(intent),
		Content:    raw,
	}, nil
}

// Decode parses wire form back into a click intent
func (c IntentCodec) Decode(ec *EncodedContent) (*domain.ClickIntent, error) {
	if !ContentTypeIntent.Matches(ec.Type) {
		return nil, fmt.Errorf("content type %s is not %s", ec.Type, ContentTypeIntent)
	}
	if err := checkEncoding(ec.Parameters); err != nil {
		return nil, err
	}

	var body intentBody
	if err := json.Unmarshal(ec.Content, &body); err != nil {
		return nil, fmt.Errorf("unmarshal intent: %w", err)
	}
	if body.ID == "" || body.ActionSetID == "" || body.ActionID == "" {
		return nil, fmt.Errorf("intent payload missing id, set id or action id")
	}

	return &domain.ClickIntent{
		ID:          body.ID,
		ActionSetID: body.ActionSetID,
		ActionID:    body.ActionID,
		Metadata:    body.Metadata,
	}, nil
}

// Fallback renders the intent for clients without structured support
func (IntentCodec) Fallback(intent *domain.ClickIntent) string {
	return fmt.Sprintf("Intent: %s", intent.ActionID)
}
