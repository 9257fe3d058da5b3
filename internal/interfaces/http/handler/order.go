package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
)

// OrderHandler handles order registration, payments and party debt lookups
type OrderHandler struct {
	BaseHandler
	debts *appledger.DebtReconciler
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(debts *appledger.DebtReconciler) *OrderHandler {
	return &OrderHandler{debts: debts}
}

// Register brings an order under ledger control
func (h *OrderHandler) Register(c *gin.Context) {
	var req appledger.RegisterOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.debts.RegisterOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID returns an order with its payment applications
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.UUIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.debts.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ApplyPayment applies a payment against an order, capped at what remains owed
func (h *OrderHandler) ApplyPayment(c *gin.Context) {
	id, ok := h.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req appledger.ApplyPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.debts.ApplyPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetParty returns a party's outstanding balance
func (h *OrderHandler) GetParty(c *gin.Context) {
	id, ok := h.UUIDParam(c, "id")
	if !ok {
		return
	}
	party, err := h.debts.GetParty(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}
