package repo

import "context"

// LinkRequest describes the payable link to mint
type LinkRequest struct {
	ToAddress string
	Amount    string // normalized two-decimal string
	Currency  string
	ChainID   int64
	Memo      string
}

// PayRailRepo is the external payment-rail interface
type PayRailRepo interface {
	// CreateLink mints a shareable payable link
	CreateLink(ctx context.Context, req *LinkRequest) (paymentURL string, err error)
}
