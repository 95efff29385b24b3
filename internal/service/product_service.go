package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shop-backend/internal/cache"
	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductStore interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductIDsByMerchant(ctx context.Context, merchantID int64) ([]int64, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)
}

// ProductService handles the product catalogue. Products are served with
// the owning merchant attached; a product is cached only when its merchant
// could be resolved.
type ProductService struct {
	store       ProductStore
	cache       *cache.Store[models.Product]
	merchants   MerchantLookup
	events      Publisher
	concurrency int
	logger      *zap.Logger
}

func NewProductService(
	store ProductStore,
	backend cache.Backend,
	ttl time.Duration,
	merchants MerchantLookup,
	events Publisher,
	concurrency int,
) *ProductService {
	return &ProductService{
		store: store,
		cache: cache.New[models.Product](backend, models.EntityProduct, ttl,
			cache.WithCacheable[models.Product](func(p *models.Product) bool { return p.MerchantInfo != nil })),
		merchants:   merchants,
		events:      events,
		concurrency: concurrency,
		logger:      util.GetLogger(),
	}
}

// ProductInput is the body of product create and update requests
type ProductInput struct {
	Name        string           `json:"name"`
	MerchantID  int64            `json:"merchant_id"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"image_url"`
	Status      string           `json:"status"`
}

func (in *ProductInput) toModel(id int64) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" || in.MerchantID == 0 || in.Price == nil {
		return nil, invalid("name, merchant_id and price are required")
	}
	if in.Price.IsNegative() {
		return nil, invalid("price must not be negative")
	}
	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}
	if stock < 0 {
		return nil, invalid("stock must not be negative")
	}
	status := in.Status
	if status == "" {
		status = models.ProductStatusActive
	}
	if !models.ValidProductStatus(status) {
		return nil, invalid("invalid status")
	}
	return &models.Product{
		ID:          id,
		Name:        in.Name,
		MerchantID:  in.MerchantID,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       stock,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Status:      status,
	}, nil
}

// ListProducts returns every product with its merchant attached. Each
// merchant is looked up once.
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return nil, storageErr(models.EntityProduct, "failed to list products", err)
	}

	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].MerchantID
	}
	merchants := lookupAll(ctx, ids, s.concurrency, s.merchants.GetMerchant)
	for i := range products {
		products[i].MerchantInfo = merchants[products[i].MerchantID]
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.GetProduct")
	defer span.End()

	p, err := s.cache.Get(ctx, id, s.loadProduct)
	if err != nil {
		return nil, storageErr(models.EntityProduct, "failed to get product", err)
	}
	return p, nil
}

func (s *ProductService) loadProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.MerchantInfo = s.merchants.GetMerchant(ctx, p.MerchantID)
	return p, nil
}

// CreateProduct stores a product after confirming its merchant exists.
func (s *ProductService) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	p, err := in.toModel(0)
	if err != nil {
		return nil, err
	}

	merchant := s.merchants.GetMerchant(ctx, p.MerchantID)
	if merchant == nil {
		return nil, invalid("invalid merchant_id")
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, storageErr(models.EntityProduct, "failed to create product", err)
	}
	p.MerchantInfo = merchant

	s.logger.Info("Product created",
		zap.Int64("product_id", p.ID),
		zap.Int64("merchant_id", p.MerchantID))
	publishEntity(ctx, s.events, s.logger, models.EventTypeProductCreated, models.EntityProduct, p.ID, p.Status)
	return p, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int64, in *ProductInput) error {
	p, err := in.toModel(id)
	if err != nil {
		return err
	}
	defer s.cache.Invalidate(ctx, id)

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return storageErr(models.EntityProduct, "failed to update product", err)
	}

	publishEntity(ctx, s.events, s.logger, models.EventTypeProductUpdated, models.EntityProduct, id, p.Status)
	return nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	defer s.cache.Invalidate(ctx, id)

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return storageErr(models.EntityProduct, "failed to delete product", err)
	}

	publishEntity(ctx, s.events, s.logger, models.EventTypeProductDeleted, models.EntityProduct, id, "")
	return nil
}

// AdjustStock adds quantity (which may be negative) to the stock of a
// product and returns the new level.
func (s *ProductService) AdjustStock(ctx context.Context, id int64, quantity *int) (int, error) {
	if quantity == nil {
		return 0, invalid("quantity is required")
	}
	defer s.cache.Invalidate(ctx, id)

	stock, err := s.store.AdjustStock(ctx, id, *quantity)
	if errors.Is(err, store.ErrInsufficientStock) {
		return 0, invalid("insufficient stock")
	}
	if err != nil {
		return 0, storageErr(models.EntityProduct, "failed to adjust stock", err)
	}

	event := &models.EntityEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeProductStockAdjusted),
		Entity:    models.EntityProduct,
		EntityID:  id,
		Delta:     *quantity,
	}
	if err := s.events.PublishEntityEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish stock event", zap.Int64("product_id", id), zap.Error(err))
	}
	return stock, nil
}

// InvalidateMerchantProducts drops the cached products of a merchant, whose
// embedded merchant snapshot is now stale.
func (s *ProductService) InvalidateMerchantProducts(ctx context.Context, merchantID int64) error {
	ids, err := s.store.GetProductIDsByMerchant(ctx, merchantID)
	if err != nil {
		return storageErr(models.EntityProduct, "failed to list merchant products", err)
	}
	s.cache.Invalidate(ctx, ids...)

	s.logger.Debug("Invalidated merchant products",
		zap.Int64("merchant_id", merchantID),
		zap.Int("count", len(ids)))
	return nil
}
