package usecase

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	svg "github.com/ajstarks/svgo"
	"github.com/valyala/bytebufferpool"

	"github.com/totegamma/craft-nft"
)

const ArtifactSize = 1280

// GenerateUniqueID derives a collectible id from the current time and a
// random nonce.
func GenerateUniqueID() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	seed := strconv.FormatInt(time.Now().Unix(), 10) + hex.EncodeToString(nonce)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:]), nil
}

// RenderArtifact draws the circle encoded by the first 12 hex digits of id.
// The output depends on id only.
func RenderArtifact(id string) ([]byte, error) {
	if len(id) < 12 || !craftnft.IsHex(id[:12]) {
		return nil, fmt.Errorf("invalid collectible id %q", id)
	}

	x := hexByte(id[0:2]) * 5
	y := hexByte(id[2:4]) * 5
	r := hexByte(id[4:6]) / 8
	color := id[6:12]

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	canvas := svg.New(buf)
	canvas.Start(ArtifactSize, ArtifactSize)
	canvas.Circle(x, y, r, fmt.Sprintf(`fill="#%s"`, color))
	canvas.End()

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

func hexByte(s string) int {
	v, _ := strconv.ParseUint(s, 16, 8)
	return int(v)
}
