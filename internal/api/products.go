package api

import (
	"context"
	"net/http"

	"shop-backend/internal/models"
	"shop-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, in *service.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in *service.ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, quantity *int) (int, error)
}

type ProductHandler struct {
	products ProductService
}

func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) Register(r gin.IRouter) {
	r.GET("/", h.list)
	r.GET("/:id", h.get)
	r.POST("/", h.create)
	r.PUT("/:id", h.update)
	r.PUT("/:id/stock", h.adjustStock)
	r.DELETE("/:id", h.delete)
}

func (h *ProductHandler) list(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) create(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.products.CreateProduct(c.Request.Context(), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.products.UpdateProduct(c.Request.Context(), id, &in); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, "Product updated successfully")
}

// stockRequest carries an additive stock delta
type stockRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *ProductHandler) adjustStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req stockRequest
	if !bindJSON(c, &req) {
		return
	}
	stock, err := h.products.AdjustStock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Stock updated successfully",
		"stock":   stock,
	})
}

func (h *ProductHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, "Product deleted successfully")
}
