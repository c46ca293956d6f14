package usecase

import (
	"context"
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/craft-nft/internal/domain"
)

var tracer = otel.Tracer("usecase")

const (
	msgNotOnChain = "Transaction failed or not found on Solana"
	msgNoTransfer = "Invalid transaction: No transfer to the recipient found."
)

// SPL token instruction tags.
const (
	splTransfer        = 3
	splTransferChecked = 12
)

// Verdict is the outcome of checking one purchase against the ledger.
type Verdict struct {
	Accepted         bool
	Rejection        *domain.RejectionError
	Transaction      domain.TransactionRecord
	InstructionIndex int
	Amount           uint64
}

// Err returns the rejection as an error, or nil when accepted.
func (v Verdict) Err() error {
	if v.Accepted || v.Rejection == nil {
		return nil
	}
	return v.Rejection
}

func rejected(r *domain.RejectionError) Verdict {
	return Verdict{Rejection: r, InstructionIndex: -1}
}

type TransferValidator struct {
	ledger  Ledger
	payment domain.PaymentConfig
}

func NewTransferValidator(ledger Ledger, payment domain.PaymentConfig) *TransferValidator {
	return &TransferValidator{ledger: ledger, payment: payment}
}

// RequiredAmount is max(price, claimed) in token base units.
func (v *TransferValidator) RequiredAmount(claimed decimal.Decimal) (uint64, error) {
	amount := claimed
	if v.payment.Price.GreaterThan(amount) {
		amount = v.payment.Price
	}
	scaled := amount.Shift(int32(v.payment.Decimals))
	if !scaled.IsInteger() {
		return 0, domain.Reject(domain.RejectInvalidRequest, "amount %s has more precision than the token supports", amount)
	}
	n := scaled.BigInt()
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, domain.Reject(domain.RejectInvalidRequest, "amount %s is out of range", amount)
	}
	return n.Uint64(), nil
}

// Validate checks that the transaction named by req pays the recipient.
// Rejections are reported in the verdict; the error is reserved for
// ledger failures the caller may retry.
func (v *TransferValidator) Validate(ctx context.Context, req domain.PurchaseRequest) (verdict Verdict, err error) {
	ctx, span := tracer.Start(ctx, "Payment.Usecase.Validate")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			verdict = rejected(domain.Reject(domain.RejectVerificationError, "Error verifying transaction: %v", r))
			err = nil
		}
	}()

	if rerr := req.Validate(); rerr != nil {
		var rejection *domain.RejectionError
		if errors.As(rerr, &rejection) {
			return rejected(rejection), nil
		}
		return Verdict{}, rerr
	}

	if req.TokenMint != v.payment.TokenMint {
		return rejected(domain.Reject(domain.RejectNoMatchingTransfer, "unsupported payment token")), nil
	}

	required, rerr := v.RequiredAmount(req.ClaimedAmount)
	if rerr != nil {
		return rejected(rerr.(*domain.RejectionError)), nil
	}

	tx, err := v.ledger.FetchTransaction(ctx, req.Signature)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedSignature) {
			return rejected(domain.Reject(domain.RejectInvalidRequest, "invalid transaction signature")), nil
		}
		span.RecordError(err)
		return Verdict{}, err
	}

	span.SetAttributes(attribute.String("tx.status", tx.Status.String()))

	switch tx.Status {
	case domain.TxNotFound:
		return rejected(domain.Reject(domain.RejectNotFound, msgNotOnChain)), nil
	case domain.TxFailed:
		return rejected(domain.Reject(domain.RejectChainFailure, msgNotOnChain)), nil
	case domain.TxSuccess:
	default:
		return rejected(domain.Reject(domain.RejectMalformed, "transaction status unavailable")), nil
	}

	verdict = v.scan(tx, req.BuyerAddress, required)
	verdict.Transaction = tx
	return verdict, nil
}

func (v *TransferValidator) scan(tx domain.TransactionRecord, buyer string, required uint64) Verdict {
	if len(tx.Instructions) == 0 {
		return rejected(domain.Reject(domain.RejectMalformed, "transaction has no instructions"))
	}
	for i, ix := range tx.Instructions {
		if _, ok := tx.AccountKey(ix.ProgramIndex); !ok {
			return rejected(domain.Reject(domain.RejectMalformed, "instruction %d references program index %d out of range", i, ix.ProgramIndex))
		}
	}

	var shortfall bool
	var best uint64

	for i, ix := range tx.Instructions {
		program, _ := tx.AccountKey(ix.ProgramIndex)
		if program != v.payment.TokenProgram {
			continue
		}

		amount, decimals, ok := decodeTransfer(ix.Data)
		if !ok {
			continue
		}
		if decimals >= 0 && uint8(decimals) != v.payment.Decimals {
			continue
		}

		layout := v.payment.LayoutFor(decimals >= 0)
		if len(ix.Accounts) < layout.MinAccounts() {
			continue
		}

		mint, ok1 := tx.AccountKey(ix.Accounts[layout.Mint])
		source, ok2 := tx.AccountKey(ix.Accounts[layout.Source])
		destination, ok3 := tx.AccountKey(ix.Accounts[layout.Destination])
		if !ok1 || !ok2 || !ok3 {
			return rejected(domain.Reject(domain.RejectMalformed, "instruction %d references an account out of range", i))
		}

		if mint != v.payment.TokenMint || source != buyer || destination != v.payment.Recipient {
			continue
		}

		if amount < required {
			shortfall = true
			if amount > best {
				best = amount
			}
			continue
		}

		return Verdict{Accepted: true, InstructionIndex: i, Amount: amount}
	}

	if shortfall {
		return rejected(domain.Reject(
			domain.RejectNoMatchingTransfer,
			"Invalid transaction: transferred %s, expected at least %s",
			v.tokens(best), v.tokens(required),
		))
	}
	return rejected(domain.Reject(domain.RejectNoMatchingTransfer, msgNoTransfer))
}

func (v *TransferValidator) tokens(base uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(base), -int32(v.payment.Decimals))
}

// decodeTransfer reads the amount of an SPL Transfer or TransferChecked
// payload. decimals is -1 for a plain Transfer.
func decodeTransfer(data []byte) (amount uint64, decimals int, ok bool) {
	if len(data) == 0 {
		return 0, 0, false
	}
	switch data[0] {
	case splTransfer:
		if len(data) < 9 {
			return 0, 0, false
		}
		return binary.LittleEndian.Uint64(data[1:9]), -1, true
	case splTransferChecked:
		if len(data) < 10 {
			return 0, 0, false
		}
		return binary.LittleEndian.Uint64(data[1:9]), int(data[9]), true
	}
	return 0, 0, false
}
