package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/craft-nft"
	"github.com/totegamma/craft-nft/internal/domain"
)

const (
	InflightTTL            = 2 * time.Minute
	DefaultDispatchTimeout = 30 * time.Second
)

type PurchaseOutcome int

const (
	OutcomeCompleted PurchaseOutcome = iota
	OutcomeReplayed
)

func (o PurchaseOutcome) String() string {
	if o == OutcomeReplayed {
		return "replayed"
	}
	return "completed"
}

type PurchaseResult struct {
	Outcome     PurchaseOutcome
	State       domain.PurchaseState
	Collectible domain.Collectible
	Metadata    craftnft.NFTData
	Ownership   domain.OwnershipRecord
}

// PurchaseUsecase drives a payment from verification to a persisted collectible.
// notifier, publisher and guard are optional.
type PurchaseUsecase struct {
	payment   domain.PaymentConfig
	validator *TransferValidator
	generator *CollectibleGenerator
	repo      OwnershipRepository
	notifier  Notifier
	publisher EventPublisher
	guard     InflightGuard

	dispatchTimeout time.Duration
	wg              sync.WaitGroup
	errs            chan error
}

func NewPurchaseUsecase(
	payment domain.PaymentConfig,
	validator *TransferValidator,
	generator *CollectibleGenerator,
	repo OwnershipRepository,
	notifier Notifier,
	publisher EventPublisher,
	guard InflightGuard,
) *PurchaseUsecase {
	return &PurchaseUsecase{
		payment:         payment,
		validator:       validator,
		generator:       generator,
		repo:            repo,
		notifier:        notifier,
		publisher:       publisher,
		guard:           guard,
		dispatchTimeout: DefaultDispatchTimeout,
		errs:            make(chan error, 16),
	}
}

// Purchase verifies req against the ledger and mints a collectible for it.
// A signature already redeemed by the same buyer yields OutcomeReplayed.
func (uc *PurchaseUsecase) Purchase(ctx context.Context, req domain.PurchaseRequest) (PurchaseResult, error) {
	ctx, span := tracer.Start(ctx, "Purchase.Usecase.Purchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("purchase.signature", req.Signature),
		attribute.String("purchase.buyer", req.BuyerAddress),
	)

	state := domain.StateReceived
	defer func() {
		span.SetAttributes(attribute.String("purchase.state", state.String()))
	}()

	if err := req.Validate(); err != nil {
		state = domain.StateRejected
		return PurchaseResult{State: state}, err
	}

	if err := uc.payment.Ready(); err != nil {
		span.RecordError(err)
		return PurchaseResult{State: state}, err
	}

	if uc.guard != nil && req.Signature != "" {
		key := domain.InflightKeyPrefix + req.Signature
		acquired, err := uc.guard.Acquire(ctx, key, InflightTTL)
		if err != nil {
			slog.WarnContext(
				ctx, "inflight guard unavailable",
				slog.String("error", err.Error()),
				slog.String("module", "purchase"),
			)
		} else if !acquired {
			return PurchaseResult{State: state}, domain.ErrPurchaseInProgress
		} else {
			defer func() {
				if err := uc.guard.Release(context.WithoutCancel(ctx), key); err != nil {
					slog.WarnContext(
						ctx, "failed to release inflight guard",
						slog.String("error", err.Error()),
						slog.String("module", "purchase"),
					)
				}
			}()
		}
	}

	state = domain.StateValidating
	verdict, err := uc.validator.Validate(ctx, req)
	if err != nil {
		span.RecordError(err)
		return PurchaseResult{State: state}, err
	}
	if !verdict.Accepted {
		state = domain.StateRejected
		slog.InfoContext(
			ctx, "purchase rejected",
			slog.String("signature", req.Signature),
			slog.String("reason", string(verdict.Rejection.Reason)),
			slog.String("module", "purchase"),
		)
		return PurchaseResult{State: state}, verdict.Rejection
	}
	state = domain.StateValidated

	prior, found, err := uc.lookupPrior(ctx, req)
	if err != nil {
		span.RecordError(err)
		return PurchaseResult{State: state}, err
	}
	if found {
		state = domain.StateCompleted
		prior.State = state
		return prior, nil
	}

	state = domain.StateGenerating
	collectible, metadata, err := uc.generator.Generate(ctx, req.BuyerAddress)
	if err != nil {
		state = domain.StateGenerationFailed
		span.RecordError(err)
		return PurchaseResult{State: state}, err
	}
	state = domain.StateGenerated

	// The buyer has paid and the artifact is uploaded; finish recording even
	// if the client went away.
	state = domain.StatePersisting
	ownership, err := uc.repo.RecordPurchase(context.WithoutCancel(ctx), req.Signature, collectible)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			state = domain.StateConflict
			prior, found, lerr := uc.lookupPrior(ctx, req)
			if lerr != nil {
				return PurchaseResult{State: state}, lerr
			}
			if found {
				prior.State = state
				return prior, nil
			}
			return PurchaseResult{State: state}, domain.ErrConflict
		}
		span.RecordError(err)
		if !errors.Is(err, domain.ErrStorage) {
			err = fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return PurchaseResult{State: state}, err
	}
	state = domain.StatePersisted

	slog.InfoContext(
		ctx, "collectible minted",
		slog.String("collectible", collectible.ID),
		slog.String("buyer", req.BuyerAddress),
		slog.String("signature", req.Signature),
		slog.String("module", "purchase"),
	)

	state = domain.StateNotifying
	uc.dispatch(ctx, req, collectible)
	state = domain.StateCompleted

	return PurchaseResult{
		Outcome:     OutcomeCompleted,
		State:       state,
		Collectible: collectible,
		Metadata:    metadata,
		Ownership:   ownership,
	}, nil
}

// lookupPrior finds an earlier redemption of the same signature. A record
// held by another buyer is a conflict.
func (uc *PurchaseUsecase) lookupPrior(ctx context.Context, req domain.PurchaseRequest) (PurchaseResult, bool, error) {
	collectible, ownership, err := uc.repo.FindBySignature(ctx, req.Signature)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return PurchaseResult{}, false, nil
		}
		if !errors.Is(err, domain.ErrStorage) {
			err = fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return PurchaseResult{}, false, err
	}

	if ownership.BuyerAddress != req.BuyerAddress {
		return PurchaseResult{}, false, domain.ErrConflict
	}

	metadata := AssembleMetadata(collectible.ID, ownership.BuyerAddress, collectible.ArtifactURI)
	metadata.MetadataURL = collectible.MetadataURI

	return PurchaseResult{
		Outcome:     OutcomeReplayed,
		Collectible: collectible,
		Metadata:    metadata,
		Ownership:   ownership,
	}, true, nil
}

func (uc *PurchaseUsecase) dispatch(ctx context.Context, req domain.PurchaseRequest, collectible domain.Collectible) {
	ctx = context.WithoutCancel(ctx)

	if uc.notifier != nil {
		artifact, _ := RenderArtifact(collectible.ID)
		notice := domain.PurchaseNotice{
			Recipient:   req.Email,
			Buyer:       req.BuyerAddress,
			Collectible: collectible,
			Artifact:    artifact,
		}
		uc.wg.Add(1)
		go func() {
			defer uc.wg.Done()
			ctx, cancel := context.WithTimeout(ctx, uc.dispatchTimeout)
			defer cancel()

			err := uc.notifier.SendPurchaseConfirmation(ctx, notice)
			if err == nil {
				return
			}
			if errors.Is(err, domain.ErrNotifierNotConfigured) || errors.Is(err, domain.ErrNoRecipient) {
				slog.InfoContext(
					ctx, "purchase confirmation skipped",
					slog.String("reason", err.Error()),
					slog.String("collectible", collectible.ID),
					slog.String("module", "purchase"),
				)
			} else {
				slog.WarnContext(
					ctx, "purchase confirmation failed",
					slog.String("error", err.Error()),
					slog.String("collectible", collectible.ID),
					slog.String("module", "purchase"),
				)
			}
			uc.report(err)
		}()
	}

	if uc.publisher != nil {
		event := craftnft.MintEvent{
			Type:      craftnft.MintEventType,
			NFTID:     collectible.ID,
			Owner:     collectible.OwnerAddress,
			Signature: req.Signature,
			Image:     collectible.ArtifactURI,
			CreatedAt: collectible.CreatedAt,
		}
		uc.wg.Add(1)
		go func() {
			defer uc.wg.Done()
			ctx, cancel := context.WithTimeout(ctx, uc.dispatchTimeout)
			defer cancel()

			if err := uc.publisher.PublishMint(ctx, event); err != nil {
				slog.WarnContext(
					ctx, "failed to publish mint event",
					slog.String("error", err.Error()),
					slog.String("module", "purchase"),
				)
				uc.report(err)
			}
		}()
	}
}

func (uc *PurchaseUsecase) report(err error) {
	select {
	case uc.errs <- err:
	default:
	}
}

// NotifyErrors yields failures of background notification and publishing.
// Errors are dropped when nobody drains the channel.
func (uc *PurchaseUsecase) NotifyErrors() <-chan error {
	return uc.errs
}

// Wait blocks until background notification work has finished.
func (uc *PurchaseUsecase) Wait() {
	uc.wg.Wait()
}
