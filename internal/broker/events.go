package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"shop-backend/internal/models"
	"shop-backend/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishEntityEvent publishes a single-entity change, keyed by entity.
func (ep *EventPublisher) PublishEntityEvent(ctx context.Context, event *models.EntityEvent) error {
	key := fmt.Sprintf("%s-%d", event.Entity, event.EntityID)
	return ep.publish(ctx, key, event.EventType, event)
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.publish(ctx, key, event.EventType, event)
}

func (ep *EventPublisher) publish(ctx context.Context, key, eventType string, event interface{}) error {
	if err := ep.producer.PublishEvent(ctx, key, eventType, event); err != nil {
		util.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		return err
	}
	return nil
}

// NoopPublisher drops every event. It stands in when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishEntityEvent(context.Context, *models.EntityEvent) error {
	return nil
}

func (NoopPublisher) PublishOrderCreated(context.Context, *models.OrderCreatedEvent) error {
	return nil
}

// EventHandler routes incoming entity events to handlers registered per
// entity kind.
type EventHandler struct {
	onEntity map[string]func(context.Context, *models.EntityEvent) error
	logger   *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{
		onEntity: make(map[string]func(context.Context, *models.EntityEvent) error),
		logger:   util.GetLogger(),
	}
}

// OnEntityEvent registers a handler for events about the given entity kind.
func (eh *EventHandler) OnEntityEvent(entity string, handler func(context.Context, *models.EntityEvent) error) {
	eh.onEntity[entity] = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	if baseEvent.EventType == models.EventTypeOrderCreated {
		return nil
	}

	var event models.EntityEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal entity event: %w", err)
	}

	handler, ok := eh.onEntity[event.Entity]
	if !ok {
		return nil
	}

	eh.logger.Debug("Handling event",
		zap.String("type", event.EventType),
		zap.String("id", event.EventID),
		zap.Int64("entity_id", event.EntityID))
	return handler(ctx, &event)
}
