package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/craft-nft/internal/domain"
	"github.com/totegamma/craft-nft/internal/infra/database/models"
	"github.com/totegamma/craft-nft/internal/usecase"
)

var tracer = otel.Tracer("repository")

var _ usecase.OwnershipRepository = (*OwnershipRepository)(nil)

type OwnershipRepository struct {
	db *gorm.DB
}

func NewOwnershipRepository(db *gorm.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// RecordPurchase stores the collectible and binds signature to it in one
// transaction. A signature that is already bound yields domain.ErrConflict
// and nothing is written.
func (r *OwnershipRepository) RecordPurchase(ctx context.Context, signature string, c domain.Collectible) (domain.OwnershipRecord, error) {
	ctx, span := tracer.Start(ctx, "Ownership.Repository.RecordPurchase")
	defer span.End()

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	collectible := models.Collectible{
		ID:           c.ID,
		ArtifactURI:  c.ArtifactURI,
		MetadataURI:  c.MetadataURI,
		OwnerAddress: c.OwnerAddress,
		CreatedAt:    createdAt,
	}
	ownership := models.OwnershipRecord{
		TransactionSignature: signature,
		CollectibleID:        c.ID,
		BuyerAddress:         c.OwnerAddress,
		CreatedAt:            createdAt,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&collectible).Error; err != nil {
			return errors.Wrap(err, "insert collectible")
		}

		result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_signature"}},
			DoNothing: true,
		}).Create(&ownership)
		if result.Error != nil {
			return errors.Wrap(result.Error, "insert ownership record")
		}
		if result.RowsAffected == 0 {
			return domain.ErrConflict
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrConflict) {
			return domain.OwnershipRecord{}, domain.ErrConflict
		}
		return domain.OwnershipRecord{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	return toOwnership(ownership), nil
}

func (r *OwnershipRepository) FindBySignature(ctx context.Context, signature string) (domain.Collectible, domain.OwnershipRecord, error) {
	ctx, span := tracer.Start(ctx, "Ownership.Repository.FindBySignature")
	defer span.End()

	var ownership models.OwnershipRecord
	err := r.db.WithContext(ctx).
		Preload("Collectible").
		Where("transaction_signature = ?", signature).
		Take(&ownership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Collectible{}, domain.OwnershipRecord{}, domain.NotFoundError{Resource: "ownership record"}
		}
		span.RecordError(err)
		return domain.Collectible{}, domain.OwnershipRecord{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	return toCollectible(ownership.Collectible), toOwnership(ownership), nil
}

// ListByOwner returns owner's collectibles in purchase order.
func (r *OwnershipRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Collectible, error) {
	ctx, span := tracer.Start(ctx, "Ownership.Repository.ListByOwner")
	defer span.End()

	var rows []models.Collectible
	err := r.db.WithContext(ctx).
		Model(&models.Collectible{}).
		Select("collectibles.*").
		Joins("JOIN ownership_records ON ownership_records.collectible_id = collectibles.id").
		Where("collectibles.owner_address = ?", owner).
		Order("collectibles.created_at ASC").
		Order("ownership_records.id ASC").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	result := make([]domain.Collectible, 0, len(rows))
	for _, row := range rows {
		result = append(result, toCollectible(row))
	}
	return result, nil
}

func toCollectible(m models.Collectible) domain.Collectible {
	return domain.Collectible{
		ID:           m.ID,
		ArtifactURI:  m.ArtifactURI,
		MetadataURI:  m.MetadataURI,
		OwnerAddress: m.OwnerAddress,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func toOwnership(m models.OwnershipRecord) domain.OwnershipRecord {
	return domain.OwnershipRecord{
		ID:                   m.ID,
		TransactionSignature: m.TransactionSignature,
		CollectibleID:        m.CollectibleID,
		BuyerAddress:         m.BuyerAddress,
		CreatedAt:            m.CreatedAt.UTC(),
	}
}
