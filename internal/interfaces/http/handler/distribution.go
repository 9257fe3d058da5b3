package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
)

// DistributionHandler splits sale proceeds across the cost, freight and
// profit vaults and reverses them for returns
type DistributionHandler struct {
	BaseHandler
	distribution *appledger.DistributionService
	returns      *appledger.ReturnService
}

// NewDistributionHandler creates a new DistributionHandler
func NewDistributionHandler(distribution *appledger.DistributionService, returns *appledger.ReturnService) *DistributionHandler {
	return &DistributionHandler{distribution: distribution, returns: returns}
}

// Distribute posts the split of one sale. A sale is distributed at most once.
func (h *DistributionHandler) Distribute(c *gin.Context) {
	saleID, ok := h.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req appledger.DistributeSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.distribution.DistributeSale(c.Request.Context(), saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Return reverses the shares of returned units of a distributed sale
func (h *DistributionHandler) Return(c *gin.Context) {
	saleID, ok := h.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req appledger.ProcessReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.returns.ProcessReturn(c.Request.Context(), saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
