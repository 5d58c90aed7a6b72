package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shoppos/internal/billing/service"
	"shoppos/internal/platform/logger"
)

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(bs service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: bs}
}

func (h *BillingHandler) RegisterRoutes(router *gin.RouterGroup) {
	cartRoutes := router.Group("/cart")
	{
		cartRoutes.GET("", h.GetCart)
		cartRoutes.POST("/checkout", h.Checkout)
		cartRoutes.POST("/clear", h.ClearCart)
	}
	router.GET("/sales", h.ListSales)
}

func (h *BillingHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.billingService.CartView())
}

// Checkout finalizes the open bill. Partial stock decrement failures come
// back in the response body so the operator sees exactly which lines did
// not apply.
func (h *BillingHandler) Checkout(c *gin.Context) {
	result, err := h.billingService.Checkout(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBill):
			c.JSON(http.StatusOK, gin.H{"message": "Empty bill, nothing to finalize"})
		case errors.Is(err, service.ErrSalePersistError):
			logger.Error("Checkout: sale not recorded", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not record the sale, bill kept open, please retry"})
		default:
			logger.Error("Checkout: unexpected error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		}
		return
	}
	if len(result.Failed) > 0 {
		// 207: sale recorded, some stock rows did not update
		c.JSON(http.StatusMultiStatus, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BillingHandler) ClearCart(c *gin.Context) {
	h.billingService.ClearCart()
	c.JSON(http.StatusOK, gin.H{"message": "Bill cleared"})
}

func (h *BillingHandler) ListSales(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	sales, err := h.billingService.ListSales(c.Request.Context(), limit)
	if err != nil {
		logger.Error("ListSales: service error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sales ledger is unavailable, please retry"})
		return
	}
	c.JSON(http.StatusOK, sales)
}
