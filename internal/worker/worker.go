package worker

import (
	"context"

	"shop-backend/internal/broker"
	"shop-backend/internal/models"
	"shop-backend/internal/util"

	"go.uber.org/zap"
)

// MerchantProductsInvalidator drops cached products of one merchant.
// *service.ProductService satisfies it.
type MerchantProductsInvalidator interface {
	InvalidateMerchantProducts(ctx context.Context, merchantID int64) error
}

// ProductCacheWorker keeps cached products coherent with merchant writes:
// a cached product embeds its merchant, so every merchant update or delete
// evicts that merchant's products.
type ProductCacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	products     MerchantProductsInvalidator
	logger       *zap.Logger
}

// NewProductCacheWorker creates a new product cache worker
func NewProductCacheWorker(consumer *broker.Consumer, products MerchantProductsInvalidator) *ProductCacheWorker {
	w := &ProductCacheWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		products:     products,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnEntityEvent(models.EntityMerchant, w.handleMerchantEvent)
	return w
}

// Start consumes events until ctx is cancelled.
func (w *ProductCacheWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting product cache worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ProductCacheWorker) Stop() error {
	w.logger.Info("Stopping product cache worker")
	return w.consumer.Close()
}

func (w *ProductCacheWorker) handleMerchantEvent(ctx context.Context, event *models.EntityEvent) error {
	switch event.EventType {
	case models.EventTypeMerchantUpdated, models.EventTypeMerchantDeleted:
	default:
		return nil
	}

	if err := w.products.InvalidateMerchantProducts(ctx, event.EntityID); err != nil {
		w.logger.Error("Failed to invalidate merchant products",
			zap.Int64("merchant_id", event.EntityID),
			zap.Error(err))
		return err
	}
	return nil
}
