package presenter

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/totegamma/craft-nft/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.Reject(domain.RejectNotFound, "Transaction failed or not found on Solana"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.Reject(domain.RejectMalformed, "bad")), http.StatusBadRequest},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrPurchaseInProgress, http.StatusConflict},
		{fmt.Errorf("%w: timeout", domain.ErrLedgerUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: no key", domain.ErrNotConfigured), http.StatusInternalServerError},
		{domain.ErrGenerationFailed, http.StatusInternalServerError},
		{fmt.Errorf("%w: disk", domain.ErrStorage), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		status, msg := Classify(tc.err)
		if status != tc.status {
			t.Fatalf("%v: expected %d got %d", tc.err, tc.status, status)
		}
		if msg == "" {
			t.Fatalf("%v: expected a message", tc.err)
		}
	}
}

func TestClassifyHidesInternalDetail(t *testing.T) {
	_, msg := Classify(fmt.Errorf("%w: pq: password authentication failed", domain.ErrStorage))
	if msg != "Database error" {
		t.Fatalf("unexpected message %q", msg)
	}

	_, msg = Classify(fmt.Errorf("%w: missing key", domain.ErrNotConfigured))
	if msg != "Admin wallet not properly configured" {
		t.Fatalf("unexpected message %q", msg)
	}
}
