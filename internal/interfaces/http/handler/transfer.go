package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
)

// TransferHandler handles vault-to-vault transfers
type TransferHandler struct {
	BaseHandler
	transfers *appledger.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transfers *appledger.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Create moves money between two vaults
func (h *TransferHandler) Create(c *gin.Context) {
	var req appledger.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.transfers.Transfer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
