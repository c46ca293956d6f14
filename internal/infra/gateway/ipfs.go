package gateway

import (
	"bytes"
	"context"
	"time"

	ipfsnode "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/craft-nft/internal/usecase"
)

var _ usecase.ContentStore = (*IPFSStore)(nil)

// IPFSStore pins content on an IPFS node through its HTTP API.
type IPFSStore struct {
	shell *ipfsnode.Shell
}

func NewIPFSStore(apiURL string, timeout time.Duration) *IPFSStore {
	sh := ipfsnode.NewShell(apiURL)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}
	return &IPFSStore{shell: sh}
}

type addResult struct {
	cid string
	err error
}

func (s *IPFSStore) Add(ctx context.Context, name string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "Content.Gateway.Add")
	defer span.End()
	span.SetAttributes(
		attribute.String("content.name", name),
		attribute.Int("content.size", len(data)),
	)

	// Shell.Add has no context; the shell timeout bounds the goroutine.
	done := make(chan addResult, 1)
	go func() {
		cid, err := s.shell.Add(bytes.NewReader(data), ipfsnode.Pin(true))
		done <- addResult{cid: cid, err: err}
	}()

	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return "", errors.Wrapf(ctx.Err(), "ipfs add %s", name)
	case res := <-done:
		if res.err != nil {
			span.RecordError(res.err)
			return "", errors.Wrapf(res.err, "ipfs add %s", name)
		}
		span.SetAttributes(attribute.String("content.cid", res.cid))
		return res.cid, nil
	}
}
