package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// RejectionReason classifies why a payment was refused.
type RejectionReason string

const (
	RejectInvalidRequest     RejectionReason = "invalid_request"
	RejectNotFound           RejectionReason = "not_found"
	RejectChainFailure       RejectionReason = "chain_failure"
	RejectMalformed          RejectionReason = "malformed"
	RejectNoMatchingTransfer RejectionReason = "no_matching_transfer"
	RejectVerificationError  RejectionReason = "verification_error"
)

// RejectionError is a terminal refusal of a purchase. Detail is shown to the client.
type RejectionError struct {
	Reason RejectionReason
	Detail string
}

func Reject(reason RejectionReason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return e.Detail
}

// Is matches any *RejectionError with the same reason, or any at all when
// the target has no reason set.
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	ErrLedgerUnavailable  = errors.New("ledger unavailable")
	ErrMalformedSignature = errors.New("malformed transaction signature")
	ErrGenerationFailed   = errors.New("collectible generation failed")
	ErrConflict           = errors.New("transaction signature already used")
	ErrPurchaseInProgress = errors.New("purchase already in progress")
	ErrStorage            = errors.New("storage error")
	ErrNotConfigured      = errors.New("admin wallet not properly configured")

	ErrNotifierNotConfigured = errors.New("email credentials not set")
	ErrNoRecipient           = errors.New("no recipient email address")
)
