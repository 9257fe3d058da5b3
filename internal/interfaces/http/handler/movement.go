package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
)

// MovementHandler handles movement log queries
type MovementHandler struct {
	BaseHandler
	movements *appledger.MovementService
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(movements *appledger.MovementService) *MovementHandler {
	return &MovementHandler{movements: movements}
}

// List returns movements filtered by vault, time range, correlation id or source ref
func (h *MovementHandler) List(c *gin.Context) {
	var filter appledger.MovementListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	movements, err := h.movements.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, movements, len(movements), appledger.MovementLimit(filter.Limit))
}
