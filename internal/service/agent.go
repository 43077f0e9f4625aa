package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"
	"github.com/anonpay/paylink-agent/internal/biz/usecase"
	"github.com/anonpay/paylink-agent/internal/codec"
)

const receiptTTL = 30 * 24 * time.Hour

// linkPattern matches natural-language payment link requests, e.g.
// "create payment link for $25" or "request 12.50"
var linkPattern = regexp.MustCompile(`(?i)\b(?:payment\s+link|pay\s*link|request)\s+(?:for\s+)?\$?([0-9]+(?:\.[0-9]+)?)`)

// bareAmountPattern matches a message that is just an amount ("$25")
var bareAmountPattern = regexp.MustCompile(`(?i)^\$?([0-9]+(?:\.[0-9]+)?)$`)

// bareAliasPattern matches a pasted alias with the resolver suffix
var bareAliasPattern = regexp.MustCompile(`(?i)^@?[a-z0-9_-]{2,30}\.fkey\.id$`)

type actionHandler func(ctx context.Context, userID string) (*usecase.Reply, error)

// AgentService routes inbound messages: slash commands, amount patterns,
// onboarding free text, button click intents and transaction receipts.
type AgentService struct {
	transport  repo.TransportRepo
	resolver   repo.ResolverRepo
	identity   repo.IdentityRepo
	receipts   repo.ReceiptRepo
	completion repo.CompletionRepo // nil when not configured

	freshness  *usecase.FreshnessUsecase
	onboarding *usecase.OnboardingUsecase
	payment    *usecase.PaymentUsecase
	registry   *usecase.ActionSetRegistry
	intents    *usecase.IntentCache

	handle string // group mention token, e.g. "@paybot"

	actionHandlers map[domain.BaseAction]actionHandler
}

// NewAgentService creates the agent service and its action dispatch table
func NewAgentService(
	transport repo.TransportRepo,
	resolver repo.ResolverRepo,
	identity repo.IdentityRepo,
	receipts repo.ReceiptRepo,
	completion repo.CompletionRepo,
	freshness *usecase.FreshnessUsecase,
	onboarding *usecase.OnboardingUsecase,
	payment *usecase.PaymentUsecase,
	registry *usecase.ActionSetRegistry,
	intents *usecase.IntentCache,
	handle string,
) *AgentService {
	s := &AgentService{
		transport:  transport,
		resolver:   resolver,
		identity:   identity,
		receipts:   receipts,
		completion: completion,
		freshness:  freshness,
		onboarding: onboarding,
		payment:    payment,
		registry:   registry,
		intents:    intents,
		handle:     strings.ToLower(handle),
	}

	onboardingAction := func(base domain.BaseAction) actionHandler {
		return func(ctx context.Context, userID string) (*usecase.Reply, error) {
			reply, _ := s.onboarding.HandleAction(ctx, userID, base)
			return reply, nil
		}
	}
	paymentAction := func(base domain.BaseAction) actionHandler {
		return func(ctx context.Context, userID string) (*usecase.Reply, error) {
			reply, _ := s.payment.HandleAction(ctx, userID, base)
			return reply, nil
		}
	}

	s.actionHandlers = map[domain.BaseAction]actionHandler{
		domain.ActionHaveAlias:    onboardingAction(domain.ActionHaveAlias),
		domain.ActionNoAlias:      onboardingAction(domain.ActionNoAlias),
		domain.ActionConfirmAlias: onboardingAction(domain.ActionConfirmAlias),
		domain.ActionCancelAlias:  onboardingAction(domain.ActionCancelAlias),

		domain.ActionSendToAddress: paymentAction(domain.ActionSendToAddress),
		domain.ActionOpenLink:      paymentAction(domain.ActionOpenLink),
		domain.ActionOpenAltLink:   paymentAction(domain.ActionOpenAltLink),
		domain.ActionCreateAnother: paymentAction(domain.ActionCreateAnother),
		domain.ActionCheckBalance:  paymentAction(domain.ActionCheckBalance),

		domain.ActionCreateLink: func(ctx context.Context, userID string) (*usecase.Reply, error) {
			return &usecase.Reply{Text: "How much should the link be for? Tell me like \"create payment link for $25\"."}, nil
		},
		domain.ActionShowHelp: func(ctx context.Context, userID string) (*usecase.Reply, error) {
			return s.helpReply(userID), nil
		},
	}

	return s
}

// HandleText processes an inbound text message
func (s *AgentService) HandleText(ctx context.Context, msg *domain.Message) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if msg.IsGroup() {
		proceed, err := s.gateGroup(ctx, msg)
		if err != nil || !proceed {
			return err
		}
		text = s.stripHandle(text)
		if text == "" {
			return s.sendReply(ctx, msg.ConvID, s.helpReply(msg.SenderID))
		}
	}

	userID := msg.SenderID

	// A user with a stored identity is onboarded regardless of process
	// restarts
	if s.onboarding.Stage(userID) == domain.StageUnknown {
		if record, err := s.freshness.Record(ctx, userID); err == nil && record.HasAlias() {
			s.onboarding.MarkOnboarded(userID)
		}
	}

	// First contact in a DM starts onboarding before anything else
	if !msg.IsGroup() && s.onboarding.Stage(userID) == domain.StageUnknown {
		if reply := s.onboarding.FirstContact(userID); reply != nil {
			return s.sendReply(ctx, msg.ConvID, reply)
		}
	}

	if strings.HasPrefix(text, "/") {
		return s.sendReply(ctx, msg.ConvID, s.handleCommand(ctx, userID, text))
	}

	if m := linkPattern.FindStringSubmatch(text); m != nil {
		return s.sendReply(ctx, msg.ConvID, s.createLink(ctx, userID, m[1]))
	}

	// A suffixed alias paste is an explicit set and binds immediately,
	// even while an onboarding confirmation is pending. Bare names still
	// go through the Yes/No confirm step below.
	if bareAliasPattern.MatchString(text) {
		return s.sendReply(ctx, msg.ConvID, s.setAlias(ctx, userID, text))
	}

	if reply, handled := s.onboarding.HandleText(ctx, userID, text); handled {
		return s.sendReply(ctx, msg.ConvID, reply)
	}

	// Onboarded users can answer "how much?" with just an amount
	if s.onboarding.Stage(userID) == domain.StageOnboarded {
		if m := bareAmountPattern.FindStringSubmatch(text); m != nil {
			return s.sendReply(ctx, msg.ConvID, s.createLink(ctx, userID, m[1]))
		}
	}

	return s.sendReply(ctx, msg.ConvID, s.fallbackReply(ctx, userID, text))
}

// HandleIntent processes an inbound click intent message
func (s *AgentService) HandleIntent(ctx context.Context, msg *domain.Message) error {
	intent, err := decodeIntent(msg.Payload)
	if err != nil {
		return fmt.Errorf("decode intent: %w", err)
	}
	userID := msg.SenderID

	// Duplicate deliveries and UI double-taps are silent no-ops
	if !s.intents.Process(intent.DedupKey(userID)) {
		fmt.Printf("[Agent] Duplicate intent ignored: %s\n", intent.ID)
		return nil
	}

	// Clicks on sets outside the validity window are stale
	if !s.registry.IsValid(userID, intent.ActionSetID) {
		fmt.Printf("[Agent] Stale action set %s from %s\n", intent.ActionSetID, userID)
		return s.sendReply(ctx, msg.ConvID, &usecase.Reply{
			Text: "Those buttons are outdated. Ask me again and I'll send fresh ones.",
		})
	}

	base := domain.ParseActionID(intent.ActionID)
	handler, ok := s.actionHandlers[base]
	if !ok {
		fmt.Printf("[Agent] Unknown action %q (intent %s)\n", intent.ActionID, intent.ID)
		return s.sendReply(ctx, msg.ConvID, &usecase.Reply{
			Text: "I don't recognize that button anymore. Try /help.",
		})
	}

	reply, err := handler(ctx, userID)
	if err != nil {
		return err
	}
	if reply == nil {
		reply = &usecase.Reply{Text: "Nothing to do for that right now. Try /help."}
	}
	return s.sendReply(ctx, msg.ConvID, reply)
}

// HandleReceipt captures an inbound transaction reference
func (s *AgentService) HandleReceipt(ctx context.Context, msg *domain.Message) error {
	receipt := map[string]any{
		"senderId":   msg.SenderID,
		"convId":     msg.ConvID,
		"msgId":      msg.ID,
		"payload":    json.RawMessage(msg.Payload),
		"receivedAt": time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	key := uuid.New().String()
	if err := s.receipts.Put(ctx, key, raw, receiptTTL); err != nil {
		return fmt.Errorf("store receipt: %w", err)
	}

	fmt.Printf("[Agent] Receipt %s captured from %s\n", key, msg.SenderID)
	return s.sendReply(ctx, msg.ConvID, &usecase.Reply{Text: "Got it - transaction noted."})
}

// AcceptsText reports whether a text message will be processed rather
// than dropped by group gating. The supervisor acks exactly these.
func (s *AgentService) AcceptsText(msg *domain.Message) bool {
	if !msg.IsGroup() {
		return true
	}
	if msg.MentionsAgent {
		return true
	}
	return s.handle != "" && strings.Contains(strings.ToLower(msg.Text), s.handle)
}

// gateGroup applies group rules: one-time introduction, then an explicit
// mention before any processing. Returns whether to keep processing.
func (s *AgentService) gateGroup(ctx context.Context, msg *domain.Message) (bool, error) {
	if first, err := s.identity.MarkGroupIntroduced(ctx, msg.ConvID); err == nil && first {
		intro := fmt.Sprintf("Hi! I create anonymous payment links. DM me to set up your alias, or mention %s here with a command.", s.handle)
		_ = s.transport.SendText(ctx, msg.ConvID, intro)
		return false, nil
	}
	return s.AcceptsText(msg), nil
}

func (s *AgentService) stripHandle(text string) string {
	if s.handle == "" {
		return text
	}
	idx := strings.Index(strings.ToLower(text), s.handle)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:idx] + text[idx+len(s.handle):])
}

// handleCommand serves the slash command surface
func (s *AgentService) handleCommand(ctx context.Context, userID, text string) *usecase.Reply {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help":
		return s.helpReply(userID)

	case "/status":
		return s.statusReply(ctx, userID)

	case "/balance":
		reply, err := s.payment.Balance(ctx, userID)
		if err != nil {
			return s.refreshErrorReply(err)
		}
		return reply

	case "/links":
		return s.payment.Links(userID)

	case "/set":
		if len(fields) < 2 {
			return &usecase.Reply{Text: "Usage: /set <alias>"}
		}
		return s.setAlias(ctx, userID, fields[1])

	case "/fkey":
		if len(fields) < 2 {
			return &usecase.Reply{Text: "Usage: /fkey <alias>"}
		}
		return s.lookupAlias(ctx, fields[1])
	}

	return &usecase.Reply{Text: fmt.Sprintf("Unknown command %s. Try /help.", cmd)}
}

// createLink runs the payment orchestrator and shapes errors for the user
func (s *AgentService) createLink(ctx context.Context, userID, amountText string) *usecase.Reply {
	reply, err := s.payment.CreateLink(ctx, userID, amountText)
	if err == nil {
		return reply
	}
	if usecase.IsValidationError(err) {
		return &usecase.Reply{Text: fmt.Sprintf("I can't make that link: %v.", err)}
	}
	if errors.Is(err, usecase.ErrNoAlias) {
		return &usecase.Reply{Text: "You need an alias first. DM me to set one up, or use /set <alias>."}
	}
	return &usecase.Reply{Text: fmt.Sprintf("Link creation failed: %v\nPlease try again in a moment.", err)}
}

// setAlias resolves and persists a new alias (the /set path)
func (s *AgentService) setAlias(ctx context.Context, userID, alias string) *usecase.Reply {
	record, err := s.freshness.SetAlias(ctx, userID, alias)
	if err != nil {
		return &usecase.Reply{Text: fmt.Sprintf("I couldn't set that alias: %v\nCheck the spelling or your resolver profile, then retry /set.", err)}
	}
	s.onboarding.MarkOnboarded(userID)
	reply := s.onboarding.Menu(userID)
	reply.Text = fmt.Sprintf("Done - %s%s now pays out to %s.", record.Alias, domain.AliasSuffix, record.Address)
	return reply
}

// lookupAlias is the read-only /fkey lookup; stored state is untouched
func (s *AgentService) lookupAlias(ctx context.Context, alias string) *usecase.Reply {
	normalized := domain.NormalizeAlias(alias)
	if !domain.ValidAlias(normalized) {
		return &usecase.Reply{Text: fmt.Sprintf("%q doesn't look like a valid alias.", alias)}
	}

	res, err := s.resolver.Lookup(ctx, normalized)
	if err != nil {
		return &usecase.Reply{Text: fmt.Sprintf("Lookup failed: %v", err)}
	}
	if !res.Registered || res.Address == "" {
		return &usecase.Reply{Text: fmt.Sprintf("%s%s is not registered.", normalized, domain.AliasSuffix)}
	}

	attested := "no attestation"
	if res.Attestation != "" {
		attested = "ownership attested"
	}
	return &usecase.Reply{Text: fmt.Sprintf("%s%s resolves to %s (%s).", normalized, domain.AliasSuffix, res.Address, attested)}
}

func (s *AgentService) statusReply(ctx context.Context, userID string) *usecase.Reply {
	stage := s.onboarding.Stage(userID)
	record, err := s.freshness.Record(ctx, userID)
	if err != nil {
		return &usecase.Reply{Text: fmt.Sprintf("Status unavailable: %v", err)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stage: %s\n", stage)
	if record.HasAlias() {
		fmt.Fprintf(&b, "Alias: %s%s\nAddress: %s\n", record.Alias, domain.AliasSuffix, record.Address)
		if record.Attested {
			b.WriteString("Attestation: present\n")
		} else {
			b.WriteString("Attestation: none\n")
		}
		fmt.Fprintf(&b, "Last verified: %s", record.UpdatedAt.Format("Jan 2 15:04"))
	} else {
		b.WriteString("No alias on record. DM me to set one up.")
	}
	return &usecase.Reply{Text: b.String()}
}

func (s *AgentService) helpReply(userID string) *usecase.Reply {
	reply := s.onboarding.Menu(userID)
	reply.Text = "Commands:\n" +
		"/set <alias> - link your alias\n" +
		"/status - your setup\n" +
		"/balance - funding address & activity\n" +
		"/links - latest payment link\n" +
		"/fkey <alias> - look up any alias\n" +
		"Or just say \"create payment link for $25\"."
	return reply
}

func (s *AgentService) refreshErrorReply(err error) *usecase.Reply {
	if errors.Is(err, usecase.ErrNoAlias) {
		return &usecase.Reply{Text: "You need an alias first. DM me to set one up, or use /set <alias>."}
	}
	return &usecase.Reply{Text: fmt.Sprintf("Verification failed: %v", err)}
}

// fallbackReply answers unmatched text: completion model if configured,
// canned guidance otherwise
func (s *AgentService) fallbackReply(ctx context.Context, userID, text string) *usecase.Reply {
	if s.completion != nil {
		answer, err := s.completion.Complete(ctx, text)
		if err == nil && answer != "" {
			return &usecase.Reply{Text: answer}
		}
		fmt.Printf("[Agent] Completion fallback failed: %v\n", err)
	}
	reply := s.onboarding.Menu(userID)
	reply.Text = "Not sure what you mean. I make anonymous payment links - try /help."
	return reply
}

// sendReply sends a reply's text and buttons. Send failures are logged,
// never fatal to the stream.
func (s *AgentService) sendReply(ctx context.Context, convID string, reply *usecase.Reply) error {
	if reply == nil {
		return nil
	}
	if reply.Text != "" {
		if err := s.transport.SendText(ctx, convID, reply.Text); err != nil {
			fmt.Printf("[Agent] Failed to send text: %v\n", err)
		}
	}
	if reply.Actions != nil {
		if err := s.transport.SendActions(ctx, convID, reply.Actions); err != nil {
			fmt.Printf("[Agent] Failed to send actions: %v\n", err)
		}
	}
	return nil
}

// decodeIntent parses an intent payload off the wire
func decodeIntent(payload []byte) (*domain.ClickIntent, error) {
	var encoded codec.EncodedContent
	if err := json.Unmarshal(payload, &encoded); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return codec.IntentCodec{}.Decode(&encoded)
}
