package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PurchaseRequest is a buyer's claim that a payment was made.
type PurchaseRequest struct {
	Signature     string
	BuyerAddress  string
	ClaimedAmount decimal.Decimal
	TokenMint     string
	Email         string
}

// Validate checks the shape of the request. It does not touch the ledger.
func (r PurchaseRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Signature) == "" {
		missing = append(missing, "transactionSignature")
	}
	if strings.TrimSpace(r.BuyerAddress) == "" {
		missing = append(missing, "userPublicKey")
	}
	if strings.TrimSpace(r.TokenMint) == "" {
		missing = append(missing, "tokenMintAddress")
	}
	if len(missing) > 0 {
		return Reject(RejectInvalidRequest, "Missing parameters: %s", strings.Join(missing, ", "))
	}
	if !r.ClaimedAmount.IsPositive() {
		return Reject(RejectInvalidRequest, "amount must be greater than zero")
	}
	return nil
}

// PurchaseNotice is what the buyer is told after a successful purchase.
type PurchaseNotice struct {
	Recipient   string
	Buyer       string
	Collectible Collectible
	// Artifact is the rendered image, embedded into the message when set.
	Artifact []byte
}

// Mail is a rendered message ready for delivery.
type Mail struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}
