package domain

import (
	"time"
)

type Collectible struct {
	ID           string    `json:"id"`
	ArtifactURI  string    `json:"artifactURI"`
	MetadataURI  *string   `json:"metadataURI,omitempty"`
	OwnerAddress string    `json:"ownerAddress"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OwnershipRecord binds a transaction signature to the collectible it paid for.
// A signature appears in at most one record.
type OwnershipRecord struct {
	ID                   int64     `json:"id"`
	TransactionSignature string    `json:"transactionSignature"`
	CollectibleID        string    `json:"collectibleID"`
	BuyerAddress         string    `json:"buyerAddress"`
	CreatedAt            time.Time `json:"createdAt"`
}

// OwnedCollectible joins an ownership record with its collectible.
type OwnedCollectible struct {
	Ownership   OwnershipRecord
	Collectible Collectible
}
