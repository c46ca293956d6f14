package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/craft-nft"
	"github.com/totegamma/craft-nft/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.InfoContext(c.Request().Context(), "Bad request", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(c.Request().Context(), "Internal error", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

func ServiceUnavailable(c echo.Context, msg string) error {
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: msg})
}

// Classify maps a purchase error to its HTTP status and client message.
func Classify(err error) (int, string) {
	var rejection *domain.RejectionError
	switch {
	case errors.As(err, &rejection):
		return http.StatusBadRequest, rejection.Error()
	case errors.Is(err, domain.ErrPurchaseInProgress):
		return http.StatusConflict, "Purchase already in progress"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "Transaction already used for another purchase"
	case errors.Is(err, domain.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable, "Solana RPC unavailable, try again later"
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusInternalServerError, "Admin wallet not properly configured"
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusInternalServerError, "NFT generation failed"
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError, "Database error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// PurchaseFailed writes a failed verify_payment response.
func PurchaseFailed(c echo.Context, err error) error {
	status, msg := Classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(
			c.Request().Context(), "Purchase failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("trace_id", trace.SpanFromContext(c.Request().Context()).SpanContext().TraceID().String()),
			slog.String("module", "rest"),
		)
	}
	return c.JSON(status, craftnft.VerifyPaymentResponse{Success: false, Error: msg})
}
