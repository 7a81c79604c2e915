package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/musiccamp/internal/domain/instructor"
	"github.com/gin-gonic/gin"
)

type InstructorsService interface {
	ListInstructors(ctx context.Context) ([]instructor.Instructor, error)
}

type InstructorsHandler struct {
	svc InstructorsService
}

func NewInstructorsHandler(svc InstructorsService) *InstructorsHandler {
	return &InstructorsHandler{svc: svc}
}

func (h *InstructorsHandler) List(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	list, err := h.svc.ListInstructors(cctx)
	if err != nil {
		respondStoreError(ctx, err, "Could not list instructors")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, list)
}
