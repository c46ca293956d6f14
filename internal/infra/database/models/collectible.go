package models

import (
	"time"
)

type Collectible struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	ArtifactURI  string    `json:"artifactURI" gorm:"type:text;not null"`
	MetadataURI  *string   `json:"metadataURI" gorm:"type:text"`
	OwnerAddress string    `json:"ownerAddress" gorm:"type:text;not null;index"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null;index"`
}

type OwnershipRecord struct {
	ID                   int64       `json:"id" gorm:"primaryKey;autoIncrement"`
	TransactionSignature string      `json:"transactionSignature" gorm:"type:text;not null;uniqueIndex:idx_ownership_signature"`
	CollectibleID        string      `json:"collectibleID" gorm:"type:text;not null;index"`
	Collectible          Collectible `json:"-" gorm:"foreignKey:CollectibleID;references:ID;constraint:OnDelete:CASCADE;"`
	BuyerAddress         string      `json:"buyerAddress" gorm:"type:text;not null;index"`
	CreatedAt            time.Time   `json:"createdAt" gorm:"not null"`
}
