package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/geocoder89/musiccamp/internal/cache"
	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/offering"
	"github.com/gin-gonic/gin"
)

const classesCacheKey = "classes:list"

type OfferingsService interface {
	SubmitOffering(ctx context.Context, req offering.CreateRequest) (offering.Offering, error)
	ListOfferings(ctx context.Context) ([]offering.Offering, error)
	ApproveOffering(ctx context.Context, offeringID string) (ack.Update, error)
}

type OfferingsHandler struct {
	svc   OfferingsService
	cache cache.Store
}

// NewOfferingsHandler caches the public listing in c; c may be nil.
func NewOfferingsHandler(svc OfferingsService, c cache.Store) *OfferingsHandler {
	return &OfferingsHandler{svc: svc, cache: c}
}

func (h *OfferingsHandler) Submit(ctx *gin.Context) {
	var req offering.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	o, err := h.svc.SubmitOffering(cctx, req)
	if err != nil {
		respondStoreError(ctx, err, "Could not submit class")
		return
	}

	h.invalidate(cctx)
	ctx.JSON(http.StatusOK, ack.Inserted(o.ID))
}

func (h *OfferingsHandler) List(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	if h.cache != nil {
		body, ok, err := h.cache.Get(cctx, classesCacheKey)
		if err != nil {
			slog.Default().WarnContext(cctx, "classes cache read failed", "err", err)
		}
		if ok {
			ctx.Header("X-Cache", "HIT")
			RespondBodyWithETag(ctx, http.StatusOK, body)
			return
		}
	}

	list, err := h.svc.ListOfferings(cctx)
	if err != nil {
		respondStoreError(ctx, err, "Could not list classes")
		return
	}

	body, err := json.Marshal(list)
	if err != nil {
		RespondInternal(ctx, "Could not list classes")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(cctx, classesCacheKey, body); err != nil {
			slog.Default().WarnContext(cctx, "classes cache write failed", "err", err)
		}
		ctx.Header("X-Cache", "MISS")
	}

	RespondBodyWithETag(ctx, http.StatusOK, body)
}

func (h *OfferingsHandler) Approve(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.svc.ApproveOffering(cctx, ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "Could not approve class")
		return
	}

	h.invalidate(cctx)
	ctx.JSON(http.StatusOK, res)
}

func (h *OfferingsHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, classesCacheKey); err != nil {
		slog.Default().WarnContext(ctx, "classes cache invalidation failed", "err", err)
	}
}
