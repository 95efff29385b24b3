package api

import (
	"context"
	"net/http"

	"shop-backend/internal/models"
	"shop-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, in *service.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, in *service.UserInput) error
	DeleteUser(ctx context.Context, id int64) error
}

// UserHandler serves the user resource
type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Register(r gin.IRouter) {
	r.GET("/", h.list)
	r.GET("/:id", h.get)
	r.POST("/", h.create)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.delete)
}

func (h *UserHandler) list(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) create(c *gin.Context) {
	var in service.UserInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.UserInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.users.UpdateUser(c.Request.Context(), id, &in); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, "User updated successfully")
}

func (h *UserHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, "User deleted successfully")
}
