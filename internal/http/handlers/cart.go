package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type CartService interface {
	AddToCart(ctx context.Context, req cart.AddRequest) (cart.Entry, error)
	ListCart(ctx context.Context, email string) ([]cart.Entry, error)
	RemoveFromCart(ctx context.Context, email, entryID string) (ack.Delete, error)
}

type CartHandler struct {
	svc CartService
}

func NewCartHandler(svc CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) Add(ctx *gin.Context) {
	var req cart.AddRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !ownsEmail(ctx, user.NormalizeEmail(req.Email)) {
		RespondForbidden(ctx, "forbidden access")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	e, err := h.svc.AddToCart(cctx, req)
	if err != nil {
		respondStoreError(ctx, err, "Could not add to cart")
		return
	}

	ctx.JSON(http.StatusOK, ack.Inserted(e.ID))
}

// List answers an empty array without touching the store when no email is
// given, and 403 when the email is not the caller's.
func (h *CartHandler) List(ctx *gin.Context) {
	email := user.NormalizeEmail(ctx.Query("email"))
	if email == "" {
		ctx.JSON(http.StatusOK, []cart.Entry{})
		return
	}

	if !ownsEmail(ctx, email) {
		RespondForbidden(ctx, "forbidden access")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	entries, err := h.svc.ListCart(cctx, email)
	if err != nil {
		respondStoreError(ctx, err, "Could not list cart")
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// Remove deletes an entry from the caller's own cart. Another user's entry
// is answered with a zero deletedCount.
func (h *CartHandler) Remove(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)
	if !ok {
		RespondForbidden(ctx, "forbidden access")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.svc.RemoveFromCart(cctx, email, ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "Could not remove cart entry")
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func ownsEmail(ctx *gin.Context, email string) bool {
	tokenEmail, ok := middlewares.EmailFromContext(ctx)
	return ok && user.NormalizeEmail(tokenEmail) == email
}
