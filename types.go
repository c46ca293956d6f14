package craftnft

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MintEventType string = "net.craftnft.mint"
)

type VerifyPaymentRequest struct {
	TransactionSignature string          `json:"transactionSignature"`
	UserPublicKey        string          `json:"userPublicKey"`
	Amount               decimal.Decimal `json:"amount"`
	TokenMintAddress     string          `json:"tokenMintAddress"`

	// CraftTokenMintAddress is the field name used by older frontends.
	CraftTokenMintAddress string `json:"craftTokenMintAddress,omitempty"`

	Email string `json:"email,omitempty"`
}

// Mint returns the payment token the request claims to have used.
func (r VerifyPaymentRequest) Mint() string {
	if r.TokenMintAddress != "" {
		return r.TokenMintAddress
	}
	return r.CraftTokenMintAddress
}

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFTData is the metadata document uploaded next to the artifact.
type NFTData struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
	NFTID       string      `json:"nft_id"`
	MetadataURL *string     `json:"metadata_url,omitempty"`
}

type VerifyPaymentResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	NFTData *NFTData `json:"nft_data,omitempty"`
}

type OwnedNFT struct {
	NFTID       string  `json:"nft_id"`
	MetadataURL *string `json:"metadata_url"`
}

type MintEvent struct {
	Type      string    `json:"type"`
	NFTID     string    `json:"nft_id"`
	Owner     string    `json:"owner"`
	Signature string    `json:"signature"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}
