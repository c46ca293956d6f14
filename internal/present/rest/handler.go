package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/craft-nft"
	"github.com/totegamma/craft-nft/internal/domain"
	"github.com/totegamma/craft-nft/internal/present/rest/presenter"
	"github.com/totegamma/craft-nft/internal/usecase"
)

const (
	msgPurchasedMailQueued = "Payment verified and NFT generated! Confirmation email queued."
	msgPurchasedNoEmail    = "Payment verified and NFT generated!"
	msgAlreadyProcessed    = "Payment already processed"
	msgMissingParameters   = "Missing parameters"
)

// RealtimeSource streams mint events until ctx is done.
type RealtimeSource interface {
	Realtime(ctx context.Context, output chan<- craftnft.MintEvent)
}

type Handler struct {
	purchase   *usecase.PurchaseUsecase
	collection *usecase.CollectionUsecase
	realtime   RealtimeSource
}

// NewHandler builds the HTTP handler. realtime may be nil.
func NewHandler(
	purchase *usecase.PurchaseUsecase,
	collection *usecase.CollectionUsecase,
	realtime RealtimeSource,
) *Handler {
	return &Handler{
		purchase:   purchase,
		collection: collection,
		realtime:   realtime,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/verify_payment", h.handleVerifyPayment)
	e.GET("/get_nfts/:ownerAddress", h.handleGetNFTs)
	e.GET("/healthz", h.handleHealthz)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleVerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req craftnft.VerifyPaymentRequest
	err := c.Bind(&req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, craftnft.VerifyPaymentResponse{Success: false, Error: msgMissingParameters})
	}

	result, err := h.purchase.Purchase(ctx, domain.PurchaseRequest{
		Signature:     strings.TrimSpace(req.TransactionSignature),
		BuyerAddress:  strings.TrimSpace(req.UserPublicKey),
		ClaimedAmount: req.Amount,
		TokenMint:     strings.TrimSpace(req.Mint()),
		Email:         strings.TrimSpace(req.Email),
	})
	if err != nil {
		return presenter.PurchaseFailed(c, err)
	}

	message := msgPurchasedNoEmail
	switch {
	case result.Outcome == usecase.OutcomeReplayed:
		message = msgAlreadyProcessed
	case req.Email != "":
		// delivery happens in the background and may still fail
		message = msgPurchasedMailQueued
	}

	metadata := result.Metadata
	return presenter.OK(c, craftnft.VerifyPaymentResponse{
		Success: true,
		Message: message,
		NFTData: &metadata,
	})
}

func (h *Handler) handleGetNFTs(c echo.Context) error {
	ctx := c.Request().Context()

	owner := strings.TrimSpace(c.Param("ownerAddress"))
	if owner == "" {
		return presenter.BadRequestMessage(c, "owner address is required")
	}

	owned, err := h.collection.ListOwned(ctx, owner)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, owned)
}

func (h *Handler) handleHealthz(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type socketRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.realtime == nil {
		return presenter.ServiceUnavailable(c, "realtime feed is not enabled")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan craftnft.MintEvent)
	go h.realtime.Realtime(ctx, output)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req socketRequest
			err := ws.ReadJSON(&req)
			if err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "h": // heartbeat
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
