package api

import (
	"context"
	"net/http"
	"testing"

	"shop-backend/internal/models"
	"shop-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	users map[int64]*models.User
	err   error
}

func (s *stubUsers) ListUsers(context.Context) ([]models.User, error) {
	return []models.User{}, nil
}

func (s *stubUsers) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, &service.NotFoundError{Entity: models.EntityUser}
	}
	return u, nil
}

func (s *stubUsers) CreateUser(_ context.Context, in *service.UserInput) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{ID: 1, Name: in.Name, Email: in.Email}, nil
}

func (s *stubUsers) UpdateUser(context.Context, int64, *service.UserInput) error { return s.err }

func (s *stubUsers) DeleteUser(context.Context, int64) error { return s.err }

type stubMerchants struct{}

func (stubMerchants) ListMerchants(context.Context) ([]models.Merchant, error) {
	return []models.Merchant{{ID: 1, Name: "M"}}, nil
}

func (stubMerchants) GetMerchant(_ context.Context, id int64) (*models.Merchant, error) {
	return &models.Merchant{ID: id, Name: "M"}, nil
}

func (stubMerchants) CreateMerchant(_ context.Context, in *service.MerchantInput) (*models.Merchant, error) {
	return &models.Merchant{ID: 1, Name: in.Name, Status: models.MerchantStatusActive}, nil
}

func (stubMerchants) UpdateMerchant(context.Context, int64, *service.MerchantInput) error { return nil }

func (stubMerchants) DeleteMerchant(context.Context, int64) error { return nil }

type stubProducts struct {
	quantity *int
}

func (s *stubProducts) ListProducts(context.Context) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (s *stubProducts) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	return &models.Product{ID: id, Name: "P"}, nil
}

func (s *stubProducts) CreateProduct(_ context.Context, in *service.ProductInput) (*models.Product, error) {
	return &models.Product{ID: 1, Name: in.Name, MerchantID: in.MerchantID, Price: *in.Price}, nil
}

func (s *stubProducts) UpdateProduct(context.Context, int64, *service.ProductInput) error { return nil }

func (s *stubProducts) DeleteProduct(context.Context, int64) error { return nil }

func (s *stubProducts) AdjustStock(_ context.Context, _ int64, quantity *int) (int, error) {
	s.quantity = quantity
	if quantity == nil {
		return 0, &service.ValidationError{Message: "quantity is required"}
	}
	return 5 + *quantity, nil
}

func TestUserEndpoints(t *testing.T) {
	users := &stubUsers{users: map[int64]*models.User{1: {ID: 1, Name: "U"}}}
	router := NewRouter("test", nil, NewUserHandler(users))

	rec, body := do(t, router, http.MethodPost, "/", `{"name":"U","email":"u@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u@example.com", body["email"])

	rec, body = do(t, router, http.MethodGet, "/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "U", body["name"])

	rec, body = do(t, router, http.MethodGet, "/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", body["error"])

	rec, body = do(t, router, http.MethodPut, "/1", `{"name":"U","email":"u@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User updated successfully", body["message"])

	rec, body = do(t, router, http.MethodDelete, "/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully", body["message"])

	rec, _ = do(t, router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestCreateUserConflict(t *testing.T) {
	router := NewRouter("test", nil, NewUserHandler(&stubUsers{err: &service.ConflictError{Message: "email already exists"}}))

	rec, body := do(t, router, http.MethodPost, "/", `{"name":"U","email":"u@example.com"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already exists", body["error"])
}

func TestMerchantEndpoints(t *testing.T) {
	router := NewRouter("test", nil, NewMerchantHandler(stubMerchants{}))

	rec, body := do(t, router, http.MethodPost, "/", `{"name":"M"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "active", body["status"])

	rec, body = do(t, router, http.MethodDelete, "/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Merchant deleted successfully", body["message"])
}

func TestProductEndpoints(t *testing.T) {
	products := &stubProducts{}
	router := NewRouter("test", nil, NewProductHandler(products))

	rec, body := do(t, router, http.MethodPost, "/", `{"name":"P","merchant_id":1,"price":9.99}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 9.99, body["price"])

	rec, body = do(t, router, http.MethodPut, "/1/stock", `{"quantity":-2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["stock"])
	require.NotNil(t, products.quantity)
	assert.Equal(t, -2, *products.quantity)

	rec, body = do(t, router, http.MethodPut, "/1/stock", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quantity is required", body["error"])
}
