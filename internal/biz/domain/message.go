package domain

import (
	"strings"
	"time"
)

// ConvType represents the conversation type
type ConvType string

const (
	ConvTypeDM    ConvType = "dm"
	ConvTypeGroup ConvType = "group"
)

// ContentKind identifies the declared content type of an inbound message
type ContentKind string

const (
	ContentText           ContentKind = "text"
	ContentIntent         ContentKind = "intent"
	ContentActions        ContentKind = "actions"
	ContentTransactionRef ContentKind = "transactionReference"
)

// Message represents an inbound message from the mesh transport
type Message struct {
	ID            string
	ConvID        string
	SenderID      string
	Kind          ContentKind
	Text          string
	Payload       []byte // raw structured body for non-text kinds
	ConvType      ConvType
	MentionsAgent bool
	CreateTime    time.Time
}

// IsFromAgent checks if the message was authored by the agent itself.
// Transport identities are hex strings and compare case-insensitively.
func (m *Message) IsFromAgent(agentID string) bool {
	return agentID != "" && strings.EqualFold(m.SenderID, agentID)
}

// IsGroup checks if this message arrived in a group conversation
func (m *Message) IsGroup() bool {
	return m.ConvType == ConvTypeGroup
}
