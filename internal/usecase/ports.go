package usecase

import (
	"context"
	"time"

	"github.com/totegamma/craft-nft"
	"github.com/totegamma/craft-nft/internal/domain"
)

// Ledger fetches finalized transactions.
type Ledger interface {
	FetchTransaction(ctx context.Context, signature string) (domain.TransactionRecord, error)
}

// ContentStore stores immutable content and returns its content id.
type ContentStore interface {
	Add(ctx context.Context, name string, data []byte) (string, error)
}

// OwnershipRepository defines persistence/lookup for minted collectibles.
type OwnershipRepository interface {
	RecordPurchase(ctx context.Context, signature string, collectible domain.Collectible) (domain.OwnershipRecord, error)
	FindBySignature(ctx context.Context, signature string) (domain.Collectible, domain.OwnershipRecord, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.Collectible, error)
}

type Notifier interface {
	SendPurchaseConfirmation(ctx context.Context, notice domain.PurchaseNotice) error
}

// EventPublisher broadcasts mint events to realtime subscribers.
type EventPublisher interface {
	PublishMint(ctx context.Context, event craftnft.MintEvent) error
}

// InflightGuard keeps two requests from working on the same signature at once.
type InflightGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Mailer delivers rendered mail.
type Mailer interface {
	Send(ctx context.Context, m domain.Mail) error
}
