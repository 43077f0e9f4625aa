package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Payment amounts are USDC with two user-facing decimal places.
const (
	AmountCeilingCents int64 = 400000 // 4000.00
	TokenDecimals            = 6      // USDC on-chain precision
)

// Base mainnet USDC, the settlement asset for minted links.
const (
	ChainID      int64 = 8453
	TokenAddress       = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
)

var (
	ErrBadAmount      = errors.New("amount is not a valid decimal number")
	ErrAmountTooSmall = errors.New("amount must be greater than zero")
	ErrAmountTooLarge = fmt.Errorf("amount exceeds the %s limit", FormatAmount(AmountCeilingCents))
)

// ParseAmount parses user-supplied amount text ("25", "$25.5", "0.01")
// into whole cents. Parsing is done on the decimal string itself so that
// boundary values like 4000.01 compare exactly.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, ErrBadAmount
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrBadAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}

	var cents int64
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, ErrBadAmount
		}
		cents = cents*10 + int64(r-'0')
		if cents > 100*AmountCeilingCents {
			return 0, ErrAmountTooLarge
		}
	}

	if cents == 0 {
		return 0, ErrAmountTooSmall
	}
	if cents > AmountCeilingCents {
		return 0, ErrAmountTooLarge
	}
	return cents, nil
}

// FormatAmount renders cents as a fixed two-decimal string ("25.00")
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// PendingPayment is the context saved after a link is minted, consumed by
// the follow-up send/share/copy actions. Superseded by the next creation.
type PendingPayment struct {
	Amount    string // normalized two-decimal string
	Alias     string
	Address   string
	PayURL    string
	AltURL    string
	CreatedAt time.Time
}

// TransferURI builds the ERC-681 token transfer URI for the pending amount
func TransferURI(to string, cents int64) string {
	value := tokenUnits(cents)
	return fmt.Sprintf("ethereum:%s@%d/transfer?address=%s&uint256=%s", TokenAddress, ChainID, to, value)
}

// WalletRequestLink wraps a transfer URI in the wallet provider's
// request-link format so it opens directly in the mobile wallet.
func WalletRequestLink(transferURI string) string {
	return "https://go.cb-w.com/dapp?cb_url=" + url.QueryEscape(transferURI)
}

// ExplorerURL points at the address page of the chain explorer
func ExplorerURL(address string) string {
	return "https://basescan.org/address/" + address
}

// tokenUnits scales cents (2 decimals) to on-chain token units (6 decimals)
func tokenUnits(cents int64) string {
	return fmt.Sprintf("%d", cents*10000)
}
