package service

import (
	"context"
	"math"
	"time"

	"shop-backend/internal/cache"
	"shop-backend/internal/models"
	"shop-backend/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Column bounds of order_items.quantity (INT) and orders.total_price
// (NUMERIC(12,2)).
var (
	maxItemQuantity = math.MaxInt32
	maxOrderTotal   = decimal.New(1, 10)
)

type OrderStore interface {
	CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrderAggregate(ctx context.Context, id int64) (*models.OrderAggregate, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	DeleteOrder(ctx context.Context, orderID int64) error
}

// OrderService handles order business logic
type OrderService struct {
	store       OrderStore
	cache       *cache.Store[models.OrderAggregate]
	users       UserLookup
	products    ProductLookup
	events      Publisher
	concurrency int
	logger      *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	backend cache.Backend,
	ttl time.Duration,
	users UserLookup,
	products ProductLookup,
	events Publisher,
	concurrency int,
) *OrderService {
	return &OrderService{
		store:       store,
		cache:       cache.New[models.OrderAggregate](backend, models.EntityOrder, ttl),
		users:       users,
		products:    products,
		events:      events,
		concurrency: concurrency,
		logger:      util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	UserID int64              `json:"user_id"`
	Items  []OrderItemRequest `json:"items"`
}

// OrderItemRequest represents an item in an order. Price is accepted for
// compatibility and ignored: items are always priced from the product.
type OrderItemRequest struct {
	ProductID int64            `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// CreateOrder validates the order against the user and product services,
// prices it from the current product prices and stores header and items in
// one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.UserID == 0 || len(req.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, invalid("user_id and items are required")
	}
	for _, item := range req.Items {
		if item.ProductID == 0 {
			util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
			return nil, invalid("product_id is required for every item")
		}
		if item.Quantity <= 0 {
			util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
			return nil, invalid("quantity must be positive for product_id: %d", item.ProductID)
		}
		if item.Quantity > maxItemQuantity {
			util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
			return nil, invalid("quantity too large for product_id: %d", item.ProductID)
		}
	}
	span.SetAttributes(attribute.Int64("user_id", req.UserID), attribute.Int("items", len(req.Items)))

	user := s.users.GetUser(ctx, req.UserID)
	if user == nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_user").Inc()
		return nil, invalid("invalid user_id")
	}

	products, err := s.validateOrderItems(ctx, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	total := s.calculateTotal(req.Items, products)
	if total.GreaterThanOrEqual(maxOrderTotal) {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, invalid("order total %s exceeds the maximum of %s", total.StringFixed(2), maxOrderTotal.Sub(decimal.New(1, -2)).StringFixed(2))
	}

	order := &models.Order{
		UserID:     req.UserID,
		TotalPrice: total,
		Status:     models.OrderStatusPending,
	}
	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     products[item.ProductID].Price,
		}
	}

	if err := s.store.CreateOrderTx(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		s.logger.Error("Failed to create order", zap.Int64("user_id", req.UserID), zap.Error(err))
		return nil, &StorageError{Op: "failed to create order", Err: err}
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.String("total_price", order.TotalPrice.StringFixed(2)))

	s.publishOrderCreated(ctx, order, items)

	view := &models.OrderView{Order: *order, UserInfo: user, Items: make([]models.OrderItemView, len(items))}
	for i := range items {
		view.Items[i] = models.OrderItemView{OrderItem: items[i], ProductInfo: products[items[i].ProductID]}
	}
	return view, nil
}

// validateOrderItems resolves every distinct product concurrently. The
// error names the first unresolved product in request order.
func (s *OrderService) validateOrderItems(ctx context.Context, items []OrderItemRequest) (map[int64]*models.Product, error) {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products := lookupAll(ctx, ids, s.concurrency, s.products.GetProduct)
	for _, id := range ids {
		if products[id] == nil {
			return nil, invalid("invalid product_id: %d", id)
		}
	}
	return products, nil
}

func (s *OrderService) calculateTotal(items []OrderItemRequest, products map[int64]*models.Product) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(products[item.ProductID].Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *models.Order, items []models.OrderItem) {
	data := make([]models.OrderItemData, len(items))
	for i, item := range items {
		data[i] = models.OrderItemData{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:  models.NewBaseEvent(models.EventTypeOrderCreated),
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Items:      data,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Warn("Failed to publish OrderCreated event",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

// ListOrders returns every order in id order with the ordering user
// attached. Each user is looked up once.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, storageErr(models.EntityOrder, "failed to list orders", err)
	}

	ids := make([]int64, len(orders))
	for i := range orders {
		ids[i] = orders[i].UserID
	}
	users := lookupAll(ctx, ids, s.concurrency, s.users.GetUser)

	views := make([]models.OrderView, len(orders))
	for i := range orders {
		views[i] = models.OrderView{Order: orders[i], UserInfo: users[orders[i].UserID]}
	}
	return views, nil
}

// GetOrder returns the order with its items, the ordering user and the
// current product of each item. Unresolved references are left nil.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_id", id))

	agg, err := s.cache.Get(ctx, id, s.store.GetOrderAggregate)
	if err != nil {
		return nil, storageErr(models.EntityOrder, "failed to get order", err)
	}

	var user *models.User
	done := make(chan struct{})
	go func() {
		defer close(done)
		user = s.users.GetUser(ctx, agg.Order.UserID)
	}()

	ids := make([]int64, len(agg.Items))
	for i := range agg.Items {
		ids[i] = agg.Items[i].ProductID
	}
	products := lookupAll(ctx, ids, s.concurrency, s.products.GetProduct)
	<-done

	view := &models.OrderView{Order: agg.Order, UserInfo: user, Items: make([]models.OrderItemView, len(agg.Items))}
	for i := range agg.Items {
		view.Items[i] = models.OrderItemView{OrderItem: agg.Items[i], ProductInfo: products[agg.Items[i].ProductID]}
	}
	return view, nil
}

// UpdateStatus sets the order status. Any status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !models.ValidOrderStatus(status) {
		return invalid("invalid status")
	}
	defer s.cache.Invalidate(ctx, id)

	if err := s.store.UpdateOrderStatus(ctx, id, status); err != nil {
		return storageErr(models.EntityOrder, "failed to update order status", err)
	}

	s.logger.Info("Order status updated", zap.Int64("order_id", id), zap.String("status", status))
	publishEntity(ctx, s.events, s.logger, models.EventTypeOrderStatusChanged, models.EntityOrder, id, status)
	return nil
}

// DeleteOrder removes the order together with its items.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	defer s.cache.Invalidate(ctx, id)

	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return storageErr(models.EntityOrder, "failed to delete order", err)
	}

	s.logger.Info("Order deleted", zap.Int64("order_id", id))
	publishEntity(ctx, s.events, s.logger, models.EventTypeOrderDeleted, models.EntityOrder, id, "")
	return nil
}
