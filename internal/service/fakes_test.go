package service

import (
	"context"
	"sync"
	"testing"

	"shop-backend/internal/models"
	"shop-backend/internal/redisclient"
	"shop-backend/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*redisclient.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redisclient.NewClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type fakeLookup struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	merchants map[int64]*models.Merchant
	products  map[int64]*models.Product
	calls     map[string]int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		users:     map[int64]*models.User{},
		merchants: map[int64]*models.Merchant{},
		products:  map[int64]*models.Product{},
		calls:     map[string]int{},
	}
}

func (f *fakeLookup) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeLookup) GetUser(_ context.Context, id int64) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["user"]++
	return f.users[id]
}

func (f *fakeLookup) GetMerchant(_ context.Context, id int64) *models.Merchant {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["merchant"]++
	return f.merchants[id]
}

func (f *fakeLookup) GetProduct(_ context.Context, id int64) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["product"]++
	return f.products[id]
}

type fakePublisher struct {
	mu      sync.Mutex
	entity  []*models.EntityEvent
	created []*models.OrderCreatedEvent
	err     error
}

func (p *fakePublisher) PublishEntityEvent(_ context.Context, ev *models.EntityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entity = append(p.entity, ev)
	return p.err
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, ev *models.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, ev)
	return p.err
}

// memOrders is an in-memory OrderStore. createErr makes CreateOrderTx fail
// without storing anything.
type memOrders struct {
	mu        sync.Mutex
	nextOrder int64
	nextItem  int64
	orders    map[int64]models.Order
	items     map[int64][]models.OrderItem
	reads     int
	createErr error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[int64]models.Order{}, items: map[int64][]models.OrderItem{}}
}

func (m *memOrders) CreateOrderTx(_ context.Context, order *models.Order, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextOrder++
	order.ID = m.nextOrder
	stored := make([]models.OrderItem, len(items))
	for i := range items {
		m.nextItem++
		items[i].ID = m.nextItem
		items[i].OrderID = order.ID
		stored[i] = items[i]
	}
	m.orders[order.ID] = *order
	m.items[order.ID] = stored
	return nil
}

func (m *memOrders) ListOrders(context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Order, 0, len(m.orders))
	for id := int64(1); id <= m.nextOrder; id++ {
		if o, ok := m.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) GetOrderAggregate(_ context.Context, id int64) (*models.OrderAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.OrderAggregate{Order: o, Items: append([]models.OrderItem(nil), m.items[id]...)}, nil
}

func (m *memOrders) UpdateOrderStatus(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *memOrders) DeleteOrder(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.orders, id)
	delete(m.items, id)
	return nil
}

type memUsers struct {
	nextID int64
	rows   map[int64]models.User
	reads  int
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[int64]models.User{}}
}

func (m *memUsers) ListUsers(context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.rows))
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.reads++
	u, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) emailTaken(email string, except int64) bool {
	for id, u := range m.rows {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (m *memUsers) CreateUser(_ context.Context, user *models.User) error {
	if m.emailTaken(user.Email, 0) {
		return store.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	m.rows[user.ID] = *user
	return nil
}

func (m *memUsers) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := m.rows[user.ID]; !ok {
		return store.ErrNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return store.ErrDuplicate
	}
	m.rows[user.ID] = *user
	return nil
}

func (m *memUsers) DeleteUser(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memProducts struct {
	nextID int64
	rows   map[int64]models.Product
	reads  int
}

func newMemProducts() *memProducts {
	return &memProducts{rows: map[int64]models.Product{}}
}

func (m *memProducts) GetProducts(context.Context) ([]models.Product, error) {
	out := make([]models.Product, 0, len(m.rows))
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	m.reads++
	p, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) GetProductIDsByMerchant(_ context.Context, merchantID int64) ([]int64, error) {
	var ids []int64
	for id, p := range m.rows {
		if p.MerchantID == merchantID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memProducts) CreateProduct(_ context.Context, p *models.Product) error {
	m.nextID++
	p.ID = m.nextID
	m.rows[p.ID] = *p
	return nil
}

func (m *memProducts) UpdateProduct(_ context.Context, p *models.Product) error {
	if _, ok := m.rows[p.ID]; !ok {
		return store.ErrNotFound
	}
	m.rows[p.ID] = *p
	return nil
}

func (m *memProducts) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memProducts) AdjustStock(_ context.Context, id int64, delta int) (int, error) {
	p, ok := m.rows[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return 0, store.ErrInsufficientStock
	}
	p.Stock += delta
	m.rows[id] = p
	return p.Stock, nil
}
