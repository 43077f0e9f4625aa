package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"
)

// PaymentUsecase validates amounts, re-verifies identity, mints payable
// links and keeps the pending-payment context consumed by follow-up
// actions.
type PaymentUsecase struct {
	freshness *FreshnessUsecase
	payRail   repo.PayRailRepo
	registry  *ActionSetRegistry

	mu      sync.Mutex
	pending map[string]*domain.PendingPayment // userID -> latest context
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(freshness *FreshnessUsecase, payRail repo.PayRailRepo, registry *ActionSetRegistry) *PaymentUsecase {
	return &PaymentUsecase{
		freshness: freshness,
		payRail:   payRail,
		registry:  registry,
		pending:   make(map[string]*domain.PendingPayment),
	}
}

// CreateLink mints a payable link for the user. Amount validation comes
// first so no external call is made for malformed or over-ceiling input.
func (uc *PaymentUsecase) CreateLink(ctx context.Context, userID, amountText string) (*Reply, error) {
	cents, err := domain.ParseAmount(amountText)
	if err != nil {
		return nil, err
	}
	amount := domain.FormatAmount(cents)

	fresh, err := uc.freshness.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	payURL, err := uc.payRail.CreateLink(ctx, &repo.LinkRequest{
		ToAddress: fresh.Address,
		Amount:    amount,
		Currency:  "USD",
		ChainID:   domain.ChainID,
		Memo:      fmt.Sprintf("Payment to %s%s", fresh.Record.Alias, domain.AliasSuffix),
	})
	if err != nil {
		return nil, fmt.Errorf("mint payment link: %w", err)
	}

	transferURI := domain.TransferURI(fresh.Address, cents)
	altURL := domain.WalletRequestLink(transferURI)

	uc.mu.Lock()
	uc.pending[userID] = &domain.PendingPayment{
		Amount:    amount,
		Alias:     fresh.Record.Alias,
		Address:   fresh.Address,
		PayURL:    payURL,
		AltURL:    altURL,
		CreatedAt: time.Now(),
	}
	uc.mu.Unlock()

	set := uc.followUpSet(userID)

	text := fmt.Sprintf("Payment link for $%s ready:\n%s", amount, payURL)
	if fresh.AddressChanged {
		text += fmt.Sprintf("\n\nHeads up: %s%s now resolves to %s.", fresh.Record.Alias, domain.AliasSuffix, fresh.Address)
	}
	return &Reply{Text: text, Actions: set}, nil
}

// followUpSet renders the send/share/copy menu for the latest payment
func (uc *PaymentUsecase) followUpSet(userID string) *domain.ActionSet {
	set := newSet(
		"Your link is live. What next?",
		domain.Action{ID: mintActionID(domain.ActionSendToAddress), Label: "Send to address", Style: domain.StyleSecondary},
		domain.Action{ID: mintActionID(domain.ActionOpenLink), Label: "Open payment link", Style: domain.StylePrimary},
		domain.Action{ID: mintActionID(domain.ActionOpenAltLink), Label: "Open in wallet", Style: domain.StyleSecondary},
		domain.Action{ID: mintActionID(domain.ActionCreateAnother), Label: "Create another", Style: domain.StyleSecondary},
	)
	uc.registry.RecordIssued(userID, set.ID)
	return set
}

// Pending returns the user's latest payment context, nil if none
func (uc *PaymentUsecase) Pending(userID string) *domain.PendingPayment {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.pending[userID]
}

// HandleAction serves the follow-up clicks out of the stored context,
// self-contained, without re-deriving anything. Returns (reply, true)
// when the action belongs to the payment flow.
func (uc *PaymentUsecase) HandleAction(ctx context.Context, userID string, base domain.BaseAction) (*Reply, bool) {
	switch base {
	case domain.ActionSendToAddress, domain.ActionOpenLink, domain.ActionOpenAltLink:
		p := uc.Pending(userID)
		if p == nil {
			return &Reply{Text: "No payment link on file. Say something like \"create payment link for $25\"."}, true
		}
		switch base {
		case domain.ActionSendToAddress:
			return &Reply{Text: fmt.Sprintf("Send $%s directly to:\n%s", p.Amount, p.Address)}, true
		case domain.ActionOpenLink:
			return &Reply{Text: fmt.Sprintf("Payment link for $%s:\n%s", p.Amount, p.PayURL)}, true
		default:
			return &Reply{Text: fmt.Sprintf("Open in your wallet:\n%s", p.AltURL)}, true
		}

	case domain.ActionCreateAnother:
		return &Reply{Text: "Sure - how much? Tell me like \"create payment link for $25\"."}, true

	case domain.ActionCheckBalance:
		reply, err := uc.Balance(ctx, userID)
		if err != nil {
			return &Reply{Text: fmt.Sprintf("I couldn't check that right now: %v", err)}, true
		}
		return reply, true
	}

	return nil, false
}

// Balance re-verifies the identity and reports the funding address view.
// There is no chain RPC collaborator, so the explorer link is the
// balance surface.
func (uc *PaymentUsecase) Balance(ctx context.Context, userID string) (*Reply, error) {
	fresh, err := uc.freshness.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("%s%s receives at:\n%s\n\nBalance & activity: %s",
		fresh.Record.Alias, domain.AliasSuffix, fresh.Address, domain.ExplorerURL(fresh.Address))
	if fresh.AddressChanged {
		text += "\n\nNote: the resolved address changed since I last checked."
	}
	return &Reply{Text: text}, nil
}

// Links replays the pending payment context (the /links command)
func (uc *PaymentUsecase) Links(userID string) *Reply {
	p := uc.Pending(userID)
	if p == nil {
		return &Reply{Text: "No live payment links. Create one with \"create payment link for $25\"."}
	}
	return &Reply{
		Text: fmt.Sprintf("Latest link ($%s for %s%s, created %s):\n%s\nWallet link:\n%s",
			p.Amount, p.Alias, domain.AliasSuffix, p.CreatedAt.Format("Jan 2 15:04"), p.PayURL, p.AltURL),
		Actions: uc.followUpSet(userID),
	}
}

// Remove drops a user's pending context (reaper)
func (uc *PaymentUsecase) Remove(userID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.pending, userID)
}

// IsValidationError reports whether err is a user-input problem rather
// than a collaborator failure
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrBadAmount) ||
		errors.Is(err, domain.ErrAmountTooSmall) ||
		errors.Is(err, domain.ErrAmountTooLarge)
}
