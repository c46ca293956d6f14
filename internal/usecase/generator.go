package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/craft-nft"
	"github.com/totegamma/craft-nft/internal/domain"
)

const (
	collectibleNamePrefix = "Craft Collectible - "
	collectibleDesc       = "A unique collectible generated for its buyer"
)

type CollectibleGenerator struct {
	store   ContentStore
	gateway string
	newID   func() (string, error)
	now     func() time.Time
}

func NewCollectibleGenerator(store ContentStore, gateway string) *CollectibleGenerator {
	return &CollectibleGenerator{
		store:   store,
		gateway: gateway,
		newID:   GenerateUniqueID,
		now:     time.Now,
	}
}

// AssembleMetadata builds the public metadata document of a collectible.
func AssembleMetadata(id, buyer, artifactURI string) craftnft.NFTData {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return craftnft.NFTData{
		Name:        collectibleNamePrefix + short,
		Description: collectibleDesc,
		Image:       artifactURI,
		Attributes: []craftnft.Attribute{
			{TraitType: "Generated For", Value: buyer},
			{TraitType: "Unique ID", Value: id},
		},
		NFTID: id,
	}
}

// Generate creates a new collectible for buyer and uploads its artifact and
// metadata. Only a failed artifact upload is an error.
func (g *CollectibleGenerator) Generate(ctx context.Context, buyer string) (domain.Collectible, craftnft.NFTData, error) {
	ctx, span := tracer.Start(ctx, "Collectible.Usecase.Generate")
	defer span.End()

	id, err := g.newID()
	if err != nil {
		span.RecordError(err)
		return domain.Collectible{}, craftnft.NFTData{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	span.SetAttributes(attribute.String("collectible.id", id))

	artifact, err := RenderArtifact(id)
	if err != nil {
		span.RecordError(err)
		return domain.Collectible{}, craftnft.NFTData{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	artifactCID, err := g.store.Add(ctx, id+".svg", artifact)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(
			ctx, "failed to upload artifact",
			slog.String("error", err.Error()),
			slog.String("collectible", id),
			slog.String("module", "generator"),
		)
		return domain.Collectible{}, craftnft.NFTData{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	collectible := domain.Collectible{
		ID:           id,
		ArtifactURI:  craftnft.GatewayURL(g.gateway, artifactCID),
		OwnerAddress: buyer,
		CreatedAt:    g.now().UTC(),
	}

	metadata := AssembleMetadata(id, buyer, collectible.ArtifactURI)

	document, err := json.MarshalIndent(metadata, "", "    ")
	if err == nil {
		var metadataCID string
		metadataCID, err = g.store.Add(ctx, id+".json", document)
		if err == nil {
			uri := craftnft.GatewayURL(g.gateway, metadataCID)
			collectible.MetadataURI = &uri
			metadata.MetadataURL = &uri
		}
	}
	if err != nil {
		slog.WarnContext(
			ctx, "could not upload metadata",
			slog.String("error", err.Error()),
			slog.String("collectible", id),
			slog.String("module", "generator"),
		)
	}

	return collectible, metadata, nil
}
