package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserFinder interface {
	FindUser(ctx context.Context, email string) (user.User, bool, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, error)
}

type AuthHandler struct {
	users UserFinder
	jwt   TokenIssuer
}

func NewAuthHandler(users UserFinder, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type TokenRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"omitempty,max=120"`
}

// IssueToken signs a token for the posted email. Nothing here proves the
// caller owns that email, so the token carries no role claim and cannot
// pass an enforced role guard. Role-bearing tokens are issued by operators
// with musiccampctl token.
func (h *AuthHandler) IssueToken(ctx *gin.Context) {
	var req TokenRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email := user.NormalizeEmail(req.Email)

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, found, err := h.users.FindUser(cctx, email)
	if err != nil {
		respondStoreError(ctx, err, "Could not issue token")
		return
	}

	var userID string
	if found {
		userID = u.ID
	}

	token, err := h.jwt.GenerateAccessToken(userID, email, "")
	if err != nil {
		RespondInternal(ctx, "Could not issue token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}
