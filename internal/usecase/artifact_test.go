package usecase

import (
	"bytes"
	"strings"
	"testing"

	"github.com/totegamma/craft-nft"
)

func TestGenerateUniqueIDShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id, err := GenerateUniqueID()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !craftnft.IsCollectibleID(id) {
			t.Fatalf("unexpected id shape %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d draws", i)
		}
		seen[id] = struct{}{}
	}
}

func TestRenderArtifactGeometry(t *testing.T) {
	// 0x10*5=80, 0x20*5=160, 0x40/8=8
	out, err := RenderArtifact("102040abcdef" + strings.Repeat("0", 52))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`width="1280"`,
		`height="1280"`,
		`cx="80"`,
		`cy="160"`,
		`r="8"`,
		`fill="#abcdef"`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}
}

func TestRenderArtifactIsPure(t *testing.T) {
	id, _ := GenerateUniqueID()
	a, err := RenderArtifact(id)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, _ := RenderArtifact(id)
	if !bytes.Equal(a, b) {
		t.Fatalf("render is not deterministic")
	}

	other, _ := RenderArtifact("ff" + id[2:])
	if bytes.Equal(a, other) && id[:2] != "ff" {
		t.Fatalf("different ids rendered identically")
	}
}

func TestRenderArtifactRejectsBadID(t *testing.T) {
	for _, id := range []string{"", "abc", "zzzzzzzzzzzz", "ABCDEF123456"} {
		if _, err := RenderArtifact(id); err == nil {
			t.Fatalf("expected error for %q", id)
		}
	}
}
