package service

import (
	"context"

	"shop-backend/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserLookup resolves a user owned by the user service. nil means the user
// could not be fetched.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) *models.User
}

type MerchantLookup interface {
	GetMerchant(ctx context.Context, id int64) *models.Merchant
}

type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) *models.Product
}

// Publisher emits domain events. *broker.EventPublisher and
// broker.NoopPublisher satisfy it.
type Publisher interface {
	PublishEntityEvent(ctx context.Context, event *models.EntityEvent) error
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
}

func publishEntity(ctx context.Context, pub Publisher, logger *zap.Logger, eventType, entity string, id int64, status string) {
	event := &models.EntityEvent{
		BaseEvent: models.NewBaseEvent(eventType),
		Entity:    entity,
		EntityID:  id,
		Status:    status,
	}
	if err := pub.PublishEntityEvent(ctx, event); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("type", eventType),
			zap.Int64("entity_id", id),
			zap.Error(err))
	}
}

// lookupAll resolves every distinct id once, with at most limit lookups in
// flight. Ids that could not be resolved map to nil.
func lookupAll[T any](ctx context.Context, ids []int64, limit int, fetch func(context.Context, int64) *T) map[int64]*T {
	distinct := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	found := make([]*T, len(distinct))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range distinct {
		g.Go(func() error {
			found[i] = fetch(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int64]*T, len(distinct))
	for i, id := range distinct {
		out[id] = found[i]
	}
	return out
}
