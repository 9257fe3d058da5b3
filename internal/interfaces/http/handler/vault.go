package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
)

// VaultHandler handles vault balance and posting endpoints
type VaultHandler struct {
	BaseHandler
	vaults    *appledger.VaultService
	movements *appledger.MovementService
}

// NewVaultHandler creates a new VaultHandler
func NewVaultHandler(vaults *appledger.VaultService, movements *appledger.MovementService) *VaultHandler {
	return &VaultHandler{vaults: vaults, movements: movements}
}

// Snapshot returns every vault balance read in one view
func (h *VaultHandler) Snapshot(c *gin.Context) {
	snap, err := h.vaults.Snapshot(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snap)
}

// GetByID returns one vault
func (h *VaultHandler) GetByID(c *gin.Context) {
	vault, err := h.vaults.GetBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vault)
}

// Credit posts a direct credit to a vault
func (h *VaultHandler) Credit(c *gin.Context) {
	var req appledger.PostingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	movement, err := h.vaults.Credit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Debit posts a direct debit to a vault
func (h *VaultHandler) Debit(c *gin.Context) {
	var req appledger.PostingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	movement, err := h.vaults.Debit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Replay folds a vault's movements and compares the result with the stored row
func (h *VaultHandler) Replay(c *gin.Context) {
	result, err := h.movements.Replay(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
