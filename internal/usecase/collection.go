package usecase

import (
	"context"

	"github.com/totegamma/craft-nft"
)

type CollectionUsecase struct {
	repo OwnershipRepository
}

func NewCollectionUsecase(repo OwnershipRepository) *CollectionUsecase {
	return &CollectionUsecase{repo: repo}
}

// ListOwned returns the collectibles held by owner, oldest first.
func (uc *CollectionUsecase) ListOwned(ctx context.Context, owner string) ([]craftnft.OwnedNFT, error) {
	ctx, span := tracer.Start(ctx, "Collection.Usecase.ListOwned")
	defer span.End()

	collectibles, err := uc.repo.ListByOwner(ctx, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	owned := make([]craftnft.OwnedNFT, 0, len(collectibles))
	for _, c := range collectibles {
		owned = append(owned, craftnft.OwnedNFT{
			NFTID:       c.ID,
			MetadataURL: c.MetadataURI,
		})
	}
	return owned, nil
}
