package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/gin-gonic/gin"
)

type UsersService interface {
	UpsertUser(ctx context.Context, req user.UpsertRequest) (enrollment.UpsertResult, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	SetRole(ctx context.Context, userID string, role user.Role) (ack.Update, error)
	DeleteUser(ctx context.Context, userID string) (ack.Delete, error)
}

type UsersHandler struct {
	svc UsersService
}

func NewUsersHandler(svc UsersService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

const userExistsMessage = "user already exist in DB"

// Upsert records a first sign-in. A repeated sign-in is answered with a
// message instead of an acknowledgment.
func (h *UsersHandler) Upsert(ctx *gin.Context) {
	var req user.UpsertRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.svc.UpsertUser(cctx, req)
	if err != nil {
		respondStoreError(ctx, err, "Could not save user")
		return
	}

	if res.Existing {
		ctx.JSON(http.StatusOK, gin.H{"message": userExistsMessage})
		return
	}

	ctx.JSON(http.StatusOK, res.Insert)
}

func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	users, err := h.svc.ListUsers(cctx)
	if err != nil {
		respondStoreError(ctx, err, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// SetRole returns the handler for one of the role-assignment routes.
func (h *UsersHandler) SetRole(role user.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cctx, cancel := storeCtx(ctx)
		defer cancel()

		res, err := h.svc.SetRole(cctx, ctx.Param("id"), role)
		if err != nil {
			if errors.Is(err, user.ErrInvalidRole) {
				RespondBadRequest(ctx, "Invalid role", gin.H{"role": string(role)})
				return
			}
			respondStoreError(ctx, err, "Could not update role")
			return
		}

		ctx.JSON(http.StatusOK, res)
	}
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.svc.DeleteUser(cctx, ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, res)
}
