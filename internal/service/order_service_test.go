package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"shop-backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc    *OrderService
	orders *memOrders
	lookup *fakeLookup
	events *fakePublisher
	redis  *miniredis.Miniredis
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	backend, mr := newBackend(t)
	f := &orderFixture{
		orders: newMemOrders(),
		lookup: newFakeLookup(),
		events: &fakePublisher{},
		redis:  mr,
	}
	f.svc = NewOrderService(f.orders, backend, time.Hour, f.lookup, f.lookup, f.events, 4)

	f.lookup.users[1] = &models.User{ID: 1, Name: "U", Email: "u@example.com"}
	f.lookup.products[1] = &models.Product{ID: 1, Name: "P", MerchantID: 1, Price: decimal.RequireFromString("9.99"), Stock: 10}
	f.lookup.products[2] = &models.Product{ID: 2, Name: "Q", MerchantID: 1, Price: decimal.RequireFromString("0.10"), Stock: 10}
	return f
}

func (f *orderFixture) place(t *testing.T, req *CreateOrderRequest) *models.OrderView {
	t.Helper()
	view, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	return view
}

func TestCreateOrderScenario(t *testing.T) {
	f := newOrderFixture(t)

	clientPrice := decimal.RequireFromString("0.01")
	view := f.place(t, &CreateOrderRequest{
		UserID: 1,
		Items:  []OrderItemRequest{{ProductID: 1, Quantity: 2, Price: &clientPrice}},
	})

	assert.NotZero(t, view.ID)
	assert.Equal(t, "19.98", view.TotalPrice.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, view.Status)
	require.NotNil(t, view.UserInfo)
	assert.Equal(t, "U", view.UserInfo.Name)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "9.99", view.Items[0].Price.StringFixed(2))
	require.NotNil(t, view.Items[0].ProductInfo)
	assert.Equal(t, "P", view.Items[0].ProductInfo.Name)

	stored, err := f.svc.GetOrder(context.Background(), view.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.TotalPrice.Equal(view.TotalPrice))
	assert.Equal(t, "9.99", stored.Items[0].Price.StringFixed(2))

	require.Len(t, f.events.created, 1)
	assert.Equal(t, view.ID, f.events.created[0].OrderID)
	assert.Equal(t, "19.98", f.events.created[0].TotalPrice.StringFixed(2))
}

func TestCreateOrderTotal(t *testing.T) {
	f := newOrderFixture(t)

	view := f.place(t, &CreateOrderRequest{
		UserID: 1,
		Items: []OrderItemRequest{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 7},
			{ProductID: 1, Quantity: 1},
		},
	})

	// 3*9.99 + 7*0.10 + 1*9.99
	assert.Equal(t, "40.66", view.TotalPrice.StringFixed(2))

	sum := decimal.Zero
	for _, item := range view.Items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.True(t, sum.Equal(view.TotalPrice))
	assert.Equal(t, 2, f.lookup.count("product"), "each product is looked up once")
}

func TestCreateOrderRejectsMissingInput(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	cases := map[string]*CreateOrderRequest{
		"no user":       {Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}},
		"no items":      {UserID: 1},
		"no product":    {UserID: 1, Items: []OrderItemRequest{{Quantity: 1}}},
		"zero quantity": {UserID: 1, Items: []OrderItemRequest{{ProductID: 1}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, req)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Empty(t, f.orders.orders)
	assert.Zero(t, f.lookup.count("user"))
}

func TestCreateOrderInvalidUser(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), &CreateOrderRequest{
		UserID: 999999,
		Items:  []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid user_id", verr.Message)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.events.created)
}

func TestCreateOrderInvalidProductNamesFirst(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), &CreateOrderRequest{
		UserID: 1,
		Items: []OrderItemRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 42, Quantity: 1},
			{ProductID: 43, Quantity: 1},
		},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid product_id: 42", verr.Message)
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderStorageFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.createErr = errors.New("failed to insert item 1: check violation")

	_, err := f.svc.CreateOrder(context.Background(), &CreateOrderRequest{
		UserID: 1,
		Items:  []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	})

	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.events.created)
}

func TestCreateOrderPublishFailureIsIgnored(t *testing.T) {
	f := newOrderFixture(t)
	f.events.err = errors.New("broker down")

	view := f.place(t, &CreateOrderRequest{UserID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}})
	assert.NotZero(t, view.ID)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.GetOrder(context.Background(), 7)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Order not found", nf.Error())
}

func TestGetOrderDegradesWithoutRemotes(t *testing.T) {
	f := newOrderFixture(t)
	view := f.place(t, &CreateOrderRequest{UserID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}}})

	f.lookup.users = map[int64]*models.User{}
	f.lookup.products = map[int64]*models.Product{}

	got, err := f.svc.GetOrder(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserInfo)
	require.Len(t, got.Items, 1)
	assert.Nil(t, got.Items[0].ProductInfo)
	assert.Equal(t, "19.98", got.TotalPrice.StringFixed(2))

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"user_info":null`)
	assert.Contains(t, string(raw), `"product_info":null`)
}

func TestGetOrderUsesCache(t *testing.T) {
	f := newOrderFixture(t)
	view := f.place(t, &CreateOrderRequest{UserID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}})
	ctx := context.Background()

	_, err := f.svc.GetOrder(ctx, view.ID)
	require.NoError(t, err)
	_, err = f.svc.GetOrder(ctx, view.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.orders.reads)
	assert.True(t, f.redis.Exists("order:1"))
}

func TestGetOrderSurvivesCacheOutage(t *testing.T) {
	f := newOrderFixture(t)
	view := f.place(t, &CreateOrderRequest{UserID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}})
	f.redis.Close()

	got, err := f.svc.GetOrder(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)
}

func TestUpdateStatusInvalidatesCache(t *testing.T) {
	f := newOrderFixture(t)
	view := f.place(t, &CreateOrderRequest{UserID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}})
	ctx := context.Background()

	_, err := f.svc.GetOrder(ctx, view.ID)
	require.NoError(t, err)
	require.True(t, f.redis.Exists("order:1"))

	require.NoError(t, f.svc.UpdateStatus(ctx, view.ID, models.OrderStatusShipped))
	assert.False(t, f.redis.Exists("order:1"))

	got, err := f.svc.GetOrder(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, got.Status)

	// any status may follow any other
	require.NoError(t, f.svc.UpdateStatus(ctx, view.ID, models.OrderStatusPending))

	last := f.events.entity[len(f.events.entity)-1]
	assert.Equal(t, models.EventTypeOrderStatusChanged, last.EventType)
	assert.Equal(t, models.OrderStatusPending, last.Status)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	var verr *ValidationError
	assert.ErrorAs(t, f.svc.UpdateStatus(ctx, 1, "lost"), &verr)

	var nf *NotFoundError
	assert.ErrorAs(t, f.svc.UpdateStatus(ctx, 1, models.OrderStatusConfirmed), &nf)
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture(t)
	view := f.place(t, &CreateOrderRequest{UserID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}})
	ctx := context.Background()

	_, err := f.svc.GetOrder(ctx, view.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(ctx, view.ID))
	assert.False(t, f.redis.Exists("order:1"))
	assert.Empty(t, f.orders.items)

	_, err = f.svc.GetOrder(ctx, view.ID)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	assert.ErrorAs(t, f.svc.DeleteOrder(ctx, view.ID), &nf)
}

func TestListOrdersEnrichesUsersOnce(t *testing.T) {
	f := newOrderFixture(t)
	f.lookup.users[2] = &models.User{ID: 2, Name: "V"}
	for _, uid := range []int64{1, 2, 1} {
		f.place(t, &CreateOrderRequest{UserID: uid, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}})
	}
	delete(f.lookup.users, 2)
	before := f.lookup.count("user")

	views, err := f.svc.ListOrders(context.Background())
	require.NoError(t, err)

	require.Len(t, views, 3)
	for i, v := range views {
		assert.Equal(t, int64(i+1), v.ID)
		assert.Empty(t, v.Items)
	}
	assert.Equal(t, "U", views[0].UserInfo.Name)
	assert.Nil(t, views[1].UserInfo)
	assert.Equal(t, "U", views[2].UserInfo.Name)
	assert.Equal(t, 2, f.lookup.count("user")-before)
}

func TestCreateOrderRejectsOutOfRangeValues(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, &CreateOrderRequest{
		UserID: 1,
		Items:  []OrderItemRequest{{ProductID: 1, Quantity: 3_000_000_000}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity too large for product_id: 1", verr.Message)
	assert.Zero(t, f.lookup.count("user"), "rejected before any lookup")

	// 2e9 * 9.99 does not fit NUMERIC(12,2)
	_, err = f.svc.CreateOrder(ctx, &CreateOrderRequest{
		UserID: 1,
		Items:  []OrderItemRequest{{ProductID: 1, Quantity: 2_000_000_000}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "exceeds the maximum of 9999999999.99")

	assert.Empty(t, f.orders.orders)
}
