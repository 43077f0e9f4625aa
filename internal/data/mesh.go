package data

import (
	"context"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"
	"github.com/anonpay/paylink-agent/internal/codec"
	"github.com/anonpay/paylink-agent/internal/infra/mesh"
)

// meshRepo implements the transport repository over the gateway client
type meshRepo struct {
	client       *mesh.Client
	actionsCodec codec.ActionsCodec
}

// NewMeshRepo creates a new mesh transport repository
func NewMeshRepo(client *mesh.Client) repo.TransportRepo {
	return &meshRepo{client: client}
}

// Subscribe streams inbound frames, converted to domain messages
func (r *meshRepo) Subscribe(ctx context.Context, out chan<- *domain.Message) error {
	return r.client.Subscribe(ctx, func(env *mesh.Envelope) {
		msg := toDomainMessage(env, r.client.AgentID())
		select {
		case out <- msg:
		case <-ctx.Done():
		}
	})
}

// SyncConversations refreshes gateway-side conversation state
func (r *meshRepo) SyncConversations(ctx context.Context) ([]repo.ConvInfo, error) {
	convs, err := r.client.ListConversations(ctx)
	if err != nil {
		return nil, err
	}

	var result []repo.ConvInfo
	for _, c := range convs {
		result = append(result, repo.ConvInfo{
			ConvID:   c.ID,
			ConvType: toConvType(c.ConvType),
			Topic:    c.Topic,
		})
	}
	return result, nil
}

// SendText sends a plain text message
func (r *meshRepo) SendText(ctx context.Context, convID, text string) error {
	return r.client.SendText(ctx, convID, text)
}

// SendReaction adds an emoji reaction
func (r *meshRepo) SendReaction(ctx context.Context, convID, msgID, emoji string) error {
	return r.client.SendReaction(ctx, convID, msgID, emoji)
}

// SendActions encodes and sends an action set
func (r *meshRepo) SendActions(ctx context.Context, convID string, set *domain.ActionSet) error {
	encoded, err := r.actionsCodec.Encode(set)
	if err != nil {
		return err
	}
	return r.client.SendContent(ctx, convID, codec.ContentTypeActions.String(), encoded, r.actionsCodec.ShouldPush())
}

// AgentID returns the agent's own transport identity
func (r *meshRepo) AgentID() string {
	return r.client.AgentID()
}

// toDomainMessage converts a gateway envelope to the domain message.
// Unrecognized content types come through as-is; the supervisor ignores
// them by kind.
func toDomainMessage(env *mesh.Envelope, agentID string) *domain.Message {
	createTime := time.Now()
	if env.SentAtMs > 0 {
		createTime = time.UnixMilli(env.SentAtMs)
	}

	mentionsAgent := false
	for _, m := range env.Mentions {
		if m == agentID {
			mentionsAgent = true
			break
		}
	}

	return &domain.Message{
		ID:            env.ID,
		ConvID:        env.ConvID,
		SenderID:      env.SenderID,
		Kind:          toContentKind(env.ContentType),
		Text:          env.Text,
		Payload:       []byte(env.Content),
		ConvType:      toConvType(env.ConvType),
		MentionsAgent: mentionsAgent,
		CreateTime:    createTime,
	}
}

func toConvType(s string) domain.ConvType {
	if s == "group" {
		return domain.ConvTypeGroup
	}
	return domain.ConvTypeDM
}

func toContentKind(contentType string) domain.ContentKind {
	switch contentType {
	case "text":
		return domain.ContentText
	case codec.ContentTypeIntent.String():
		return domain.ContentIntent
	case codec.ContentTypeActions.String():
		return domain.ContentActions
	case "transactionReference", "anonpay.dev/transactionReference:1.0":
		return domain.ContentTransactionRef
	default:
		return domain.ContentKind(contentType)
	}
}
