// Package server owns the long-lived subscription to the mesh transport:
// it reconnects on failure, discards the agent's own messages and routes
// everything else to the handlers by content type.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"
	"github.com/anonpay/paylink-agent/internal/service"
)

// reconnectBackoff is the fixed sleep between resubscribe attempts
const reconnectBackoff = 5 * time.Second

// ackEmoji is the lightweight acknowledgment added to accepted texts
const ackEmoji = "👀"

// Supervisor drives the message stream for the process lifetime
type Supervisor struct {
	transport repo.TransportRepo
	agentSvc  *service.AgentService
	pool      *keyedPool

	// Transport-level redelivery guard, swept as it fills
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time
}

// NewSupervisor creates a new stream supervisor
func NewSupervisor(transport repo.TransportRepo, agentSvc *service.AgentService, workers int) *Supervisor {
	return &Supervisor{
		transport: transport,
		agentSvc:  agentSvc,
		pool:      newKeyedPool(workers),
		seenMsgs:  make(map[string]time.Time),
	}
}

// Run maintains the subscription until ctx is cancelled. On stream
// failure it backs off, resynchronizes conversation state and
// resubscribes - indefinitely. This is the process's lifetime driver.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		convs, err := s.transport.SyncConversations(ctx)
		if err != nil {
			fmt.Printf("[Supervisor] Conversation sync failed: %v\n", err)
		} else {
			fmt.Printf("[Supervisor] Synced %d conversations\n", len(convs))
		}

		if err := s.streamOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Printf("[Supervisor] Stream dropped: %v, reconnecting in %v\n", err, reconnectBackoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectBackoff):
		}
	}
}

// streamOnce runs a single subscription until it fails
func (s *Supervisor) streamOnce(ctx context.Context) error {
	msgCh := make(chan *domain.Message, 64)
	subErr := make(chan error, 1)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		subErr <- s.transport.Subscribe(subCtx, msgCh)
	}()

	for {
		select {
		case err := <-subErr:
			return err
		case msg := <-msgCh:
			s.dispatch(ctx, msg)
		}
	}
}

// dispatch routes one inbound message. Handler failures are logged and
// never abort the stream loop.
func (s *Supervisor) dispatch(ctx context.Context, msg *domain.Message) {
	// Self-loop prevention: never process the agent's own messages
	if msg.IsFromAgent(s.transport.AgentID()) {
		return
	}

	if s.isMessageSeen(msg.ID) {
		fmt.Printf("[Supervisor] Duplicate delivery ignored: %s\n", msg.ID)
		return
	}
	s.markMessageSeen(msg.ID)

	switch msg.Kind {
	case domain.ContentIntent:
		s.submit(ctx, msg, func(jobCtx context.Context) error {
			return s.agentSvc.HandleIntent(jobCtx, msg)
		})

	case domain.ContentTransactionRef:
		s.submit(ctx, msg, func(jobCtx context.Context) error {
			return s.agentSvc.HandleReceipt(jobCtx, msg)
		})

	case domain.ContentText:
		// Acknowledge texts the agent will actually process
		if s.agentSvc.AcceptsText(msg) {
			if err := s.transport.SendReaction(ctx, msg.ConvID, msg.ID, ackEmoji); err != nil {
				fmt.Printf("[Supervisor] Reaction failed: %v\n", err)
			}
		}
		s.submit(ctx, msg, func(jobCtx context.Context) error {
			return s.agentSvc.HandleText(jobCtx, msg)
		})

	default:
		// Unrecognized content types are ignored
	}
}

// submit queues a handler on the per-sender lane of the worker pool.
// Jobs inherit the run context so shutdown cancels in-flight calls.
func (s *Supervisor) submit(ctx context.Context, msg *domain.Message, handler func(context.Context) error) {
	s.pool.Submit(msg.SenderID, func() {
		if err := handler(ctx); err != nil {
			fmt.Printf("[Supervisor] Handler error for %s: %v\n", msg.ID, err)
		}
	})
}

// isMessageSeen checks if a message was already delivered
func (s *Supervisor) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen records a delivery and sweeps records older than five
// minutes to keep the map bounded
func (s *Supervisor) markMessageSeen(msgID string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	s.seenMsgs[msgID] = time.Now()

	cutoff := time.Now().Add(-5 * time.Minute)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
