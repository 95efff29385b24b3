package api

import (
	"context"
	"net/http"

	"shop-backend/internal/models"
	"shop-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type MerchantService interface {
	ListMerchants(ctx context.Context) ([]models.Merchant, error)
	GetMerchant(ctx context.Context, id int64) (*models.Merchant, error)
	CreateMerchant(ctx context.Context, in *service.MerchantInput) (*models.Merchant, error)
	UpdateMerchant(ctx context.Context, id int64, in *service.MerchantInput) error
	DeleteMerchant(ctx context.Context, id int64) error
}

type MerchantHandler struct {
	merchants MerchantService
}

func NewMerchantHandler(merchants MerchantService) *MerchantHandler {
	return &MerchantHandler{merchants: merchants}
}

func (h *MerchantHandler) Register(r gin.IRouter) {
	r.GET("/", h.list)
	r.GET("/:id", h.get)
	r.POST("/", h.create)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.delete)
}

func (h *MerchantHandler) list(c *gin.Context) {
	merchants, err := h.merchants.ListMerchants(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, merchants)
}

func (h *MerchantHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.merchants.GetMerchant(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MerchantHandler) create(c *gin.Context) {
	var in service.MerchantInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.merchants.CreateMerchant(c.Request.Context(), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MerchantHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.MerchantInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.merchants.UpdateMerchant(c.Request.Context(), id, &in); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, "Merchant updated successfully")
}

func (h *MerchantHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.merchants.DeleteMerchant(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, "Merchant deleted successfully")
}
