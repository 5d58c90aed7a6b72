package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shoppos/internal/catalog/domain"
	"shoppos/internal/catalog/repository"
	"shoppos/internal/catalog/service"
	"shoppos/internal/platform/logger"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(cs service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	productRoutes := router.Group("/products")
	{
		productRoutes.GET("", h.SearchProducts)
		productRoutes.GET("/:id", h.GetProduct)
		productRoutes.POST("", h.AddProduct)
		productRoutes.PUT("/:id/quantity", h.UpdateQuantity)
	}
}

// SearchProducts handles GET /products?q=... An empty q returns the full
// catalog ordered by id.
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	products, err := h.catalogService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		logger.Error("SearchProducts: service error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Product store is unavailable, please retry"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("GetProduct: service error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Product store is unavailable, please retry"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) AddProduct(c *gin.Context) {
	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid product payload: " + err.Error()})
		return
	}
	product, err := h.catalogService.AddProduct(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		logger.Error("AddProduct: service error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Product store is unavailable, please retry"})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateQuantity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}
	var req domain.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid quantity payload: " + err.Error()})
		return
	}
	err = h.catalogService.SetQuantity(c.Request.Context(), id, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("UpdateQuantity: service error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Product store is unavailable, please retry"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quantity updated", "id": id, "quantity": req.Quantity})
}
