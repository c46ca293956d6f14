package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/totegamma/craft-nft"
	"github.com/totegamma/craft-nft/internal/domain"
)

const testGateway = "https://gateway.example/ipfs"

func TestAssembleMetadata(t *testing.T) {
	id := strings.Repeat("ab", 32)
	md := AssembleMetadata(id, testBuyer, "https://gateway.example/ipfs/cid")

	if md.Name != "Craft Collectible - abababab" {
		t.Fatalf("unexpected name %q", md.Name)
	}
	if md.NFTID != id || md.Image != "https://gateway.example/ipfs/cid" {
		t.Fatalf("unexpected metadata %+v", md)
	}
	if len(md.Attributes) != 2 ||
		md.Attributes[0] != (craftnft.Attribute{TraitType: "Generated For", Value: testBuyer}) ||
		md.Attributes[1] != (craftnft.Attribute{TraitType: "Unique ID", Value: id}) {
		t.Fatalf("unexpected attributes %+v", md.Attributes)
	}
	if md.MetadataURL != nil {
		t.Fatalf("metadata url must be empty before upload")
	}
}

func TestGenerateUploadsArtifactAndMetadata(t *testing.T) {
	store := &mockContentStore{}
	g := NewCollectibleGenerator(store, testGateway+"/")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	c, md, err := g.Generate(context.Background(), testBuyer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !craftnft.IsCollectibleID(c.ID) {
		t.Fatalf("unexpected id %q", c.ID)
	}
	if c.ArtifactURI != testGateway+"/"+c.ID+".svg-cid" {
		t.Fatalf("unexpected artifact uri %s", c.ArtifactURI)
	}
	if c.MetadataURI == nil || *c.MetadataURI != testGateway+"/"+c.ID+".json-cid" {
		t.Fatalf("unexpected metadata uri %v", c.MetadataURI)
	}
	if md.MetadataURL == nil || *md.MetadataURL != *c.MetadataURI {
		t.Fatalf("metadata url not set on returned metadata")
	}
	if c.OwnerAddress != testBuyer || !c.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected collectible %+v", c)
	}

	var uploaded craftnft.NFTData
	if err := json.Unmarshal(store.added[c.ID+".json-cid"], &uploaded); err != nil {
		t.Fatalf("uploaded metadata is not json: %v", err)
	}
	if uploaded.NFTID != c.ID || uploaded.Image != c.ArtifactURI {
		t.Fatalf("unexpected uploaded metadata %+v", uploaded)
	}

	artifact, _ := RenderArtifact(c.ID)
	if string(store.added[c.ID+".svg-cid"]) != string(artifact) {
		t.Fatalf("uploaded artifact does not match render")
	}
}

func TestGenerateArtifactUploadFailure(t *testing.T) {
	g := NewCollectibleGenerator(&mockContentStore{}, testGateway)
	g.newID = func() (string, error) { return strings.Repeat("1", 64), nil }
	g.store = &mockContentStore{failOn: map[string]bool{strings.Repeat("1", 64) + ".svg": true}}

	_, _, err := g.Generate(context.Background(), testBuyer)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected generation failed, got %v", err)
	}
}

func TestGenerateMetadataUploadFailureIsNotFatal(t *testing.T) {
	id := strings.Repeat("2", 64)
	g := NewCollectibleGenerator(&mockContentStore{failOn: map[string]bool{id + ".json": true}}, testGateway)
	g.newID = func() (string, error) { return id, nil }

	c, md, err := g.Generate(context.Background(), testBuyer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if c.MetadataURI != nil || md.MetadataURL != nil {
		t.Fatalf("expected absent metadata uri")
	}
	if c.ArtifactURI == "" {
		t.Fatalf("expected artifact uri")
	}
}
