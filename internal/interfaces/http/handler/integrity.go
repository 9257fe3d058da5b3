package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
)

// IntegrityHandler exposes the integrity validator and stored cash cuts
type IntegrityHandler struct {
	BaseHandler
	validator *appledger.IntegrityValidator
	cashCuts  *appledger.CashCutService
}

// NewIntegrityHandler creates a new IntegrityHandler
func NewIntegrityHandler(validator *appledger.IntegrityValidator, cashCuts *appledger.CashCutService) *IntegrityHandler {
	return &IntegrityHandler{validator: validator, cashCuts: cashCuts}
}

// Validate runs the validator as of the optional as_of query parameter.
// Violations are part of the report, not an error.
func (h *IntegrityHandler) Validate(c *gin.Context) {
	asOf, err := appledger.ParseAsOf(c.Query("as_of"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	report, err := h.validator.Validate(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// LatestCashCut returns the most recent stored cash cut
func (h *IntegrityHandler) LatestCashCut(c *gin.Context) {
	cut, err := h.cashCuts.Latest(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cut)
}
