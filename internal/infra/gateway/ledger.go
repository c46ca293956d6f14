package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/craft-nft/internal/domain"
	"github.com/totegamma/craft-nft/internal/usecase"
)

var tracer = otel.Tracer("gateway")

var _ usecase.Ledger = (*SolanaLedger)(nil)

// SolanaLedger reads transactions over Solana JSON-RPC.
type SolanaLedger struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
	timeout    time.Duration
}

func NewSolanaLedger(endpoint, commitment string, timeout time.Duration) *SolanaLedger {
	httpClient := &http.Client{Timeout: timeout}
	rpcClient := jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	})
	if commitment == "" {
		commitment = string(rpc.CommitmentFinalized)
	}
	return &SolanaLedger{
		client:     rpc.NewWithCustomRPCClient(rpcClient),
		commitment: rpc.CommitmentType(commitment),
		timeout:    timeout,
	}
}

func (l *SolanaLedger) FetchTransaction(ctx context.Context, signature string) (domain.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "Ledger.Gateway.FetchTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("tx.signature", signature))

	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("%w: %v", domain.ErrMalformedSignature, err)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	maxVersion := uint64(0)
	out, err := l.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     l.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return domain.TransactionRecord{Signature: signature, Status: domain.TxNotFound}, nil
		}
		span.RecordError(err)
		return domain.TransactionRecord{}, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, errors.Wrap(err, "getTransaction"))
	}
	if out == nil || out.Transaction == nil {
		return domain.TransactionRecord{Signature: signature, Status: domain.TxNotFound}, nil
	}

	return convertTransaction(signature, out)
}

func convertTransaction(signature string, out *rpc.GetTransactionResult) (domain.TransactionRecord, error) {
	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, errors.Wrap(err, "decode transaction"))
	}

	record := domain.TransactionRecord{
		Signature: signature,
		Status:    domain.TxUnknown,
	}

	for _, key := range tx.Message.AccountKeys {
		record.AccountKeys = append(record.AccountKeys, key.String())
	}

	if out.Meta != nil {
		if out.Meta.Err != nil {
			record.Status = domain.TxFailed
			record.Err = fmt.Sprint(out.Meta.Err)
		} else {
			record.Status = domain.TxSuccess
		}
		for _, key := range out.Meta.LoadedAddresses.Writable {
			record.AccountKeys = append(record.AccountKeys, key.String())
		}
		for _, key := range out.Meta.LoadedAddresses.ReadOnly {
			record.AccountKeys = append(record.AccountKeys, key.String())
		}
	}

	for _, ix := range tx.Message.Instructions {
		accounts := make([]int, len(ix.Accounts))
		for i, a := range ix.Accounts {
			accounts[i] = int(a)
		}
		record.Instructions = append(record.Instructions, domain.Instruction{
			ProgramIndex: int(ix.ProgramIDIndex),
			Accounts:     accounts,
			Data:         []byte(ix.Data),
		})
	}

	return record, nil
}
