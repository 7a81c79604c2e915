package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/gin-gonic/gin"
)

type PaymentsService interface {
	CreatePaymentIntent(ctx context.Context, fee float64) (string, error)
	RecordPayment(ctx context.Context, req payment.RecordRequest) (enrollment.RecordResult, error)
	ListPayments(ctx context.Context, email string) ([]payment.Payment, error)
}

type PaymentsHandler struct {
	svc PaymentsService
}

func NewPaymentsHandler(svc PaymentsService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

func (h *PaymentsHandler) CreateIntent(ctx *gin.Context) {
	var req payment.IntentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	secret, err := h.svc.CreatePaymentIntent(ctx.Request.Context(), req.CourseFee)
	if err != nil {
		switch {
		case errors.Is(err, enrollment.ErrInvalidFee):
			RespondError(ctx, http.StatusBadRequest, "invalid_fee", "courseFee must be at least one minor unit", nil)
		case errors.Is(err, enrollment.ErrProcessor):
			slog.Default().ErrorContext(ctx.Request.Context(), "payment intent failed", "err", err, "request_id", requestIDFrom(ctx))
			RespondError(ctx, http.StatusBadGateway, "payment_failed", "Could not create payment intent", nil)
		default:
			RespondInternal(ctx, "Could not create payment intent")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}

type recordResponse struct {
	InsertResult   ack.Insert `json:"insertResult"`
	DeleteResult   ack.Delete `json:"deleteResult"`
	CleanupPending bool       `json:"cleanupPending"`
}

func (h *PaymentsHandler) Record(ctx *gin.Context) {
	var req payment.RecordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !ownsEmail(ctx, user.NormalizeEmail(req.Email)) {
		RespondForbidden(ctx, "forbidden access")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.svc.RecordPayment(cctx, req)
	if err != nil {
		respondStoreError(ctx, err, "Could not record payment")
		return
	}

	ctx.JSON(http.StatusOK, recordResponse{
		InsertResult:   res.Insert,
		DeleteResult:   res.Delete,
		CleanupPending: res.CleanupPending,
	})
}

func (h *PaymentsHandler) List(ctx *gin.Context) {
	email := user.NormalizeEmail(ctx.Query("email"))
	if email == "" {
		ctx.JSON(http.StatusOK, []payment.Payment{})
		return
	}

	if !ownsEmail(ctx, email) {
		RespondForbidden(ctx, "forbidden access")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	list, err := h.svc.ListPayments(cctx, email)
	if err != nil {
		respondStoreError(ctx, err, "Could not list payments")
		return
	}

	ctx.JSON(http.StatusOK, list)
}
