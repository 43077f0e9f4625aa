package repo

import (
	"context"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
)

// ConvInfo represents conversation metadata from the transport
type ConvInfo struct {
	ConvID   string
	ConvType domain.ConvType
	Topic    string
}

// TransportRepo is the mesh messaging transport interface.
// Subscribe delivers the full inbound stream and returns when the
// underlying stream drops; the supervisor owns reconnection.
type TransportRepo interface {
	// Subscribe streams inbound messages until the stream fails or ctx ends
	Subscribe(ctx context.Context, out chan<- *domain.Message) error

	// SyncConversations refreshes local conversation state after a
	// reconnect and returns the known conversations
	SyncConversations(ctx context.Context) ([]ConvInfo, error)

	// SendText sends a plain text message to a conversation
	SendText(ctx context.Context, convID, text string) error

	// SendReaction adds an emoji reaction to a message
	SendReaction(ctx context.Context, convID, msgID, emoji string) error

	// SendActions sends an encoded action set to a conversation
	SendActions(ctx context.Context, convID string, set *domain.ActionSet) error

	// AgentID returns the agent's own transport identity, used for
	// self-loop prevention
	AgentID() string
}
