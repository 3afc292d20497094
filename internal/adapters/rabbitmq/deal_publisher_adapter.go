package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"analytics-service/internal/adapters/metrics"
	"analytics-service/internal/constants"
	"analytics-service/internal/contextkeys"
	"analytics-service/internal/contracts"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessagePublisher is satisfied by rabbitmq_producer.Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// DealPublisherAdapter публикует DealFlaggedEvent для исключительных сделок
type DealPublisherAdapter struct {
	producer   MessagePublisher
	routingKey string
	timeout    time.Duration
}

func NewDealPublisherAdapter(producer MessagePublisher, routingKey string) (*DealPublisherAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		routingKey = constants.RoutingKeyDealsFlagged
	}
	return &DealPublisherAdapter{
		producer:   producer,
		routingKey: routingKey,
		timeout:    10 * time.Second,
	}, nil
}

func (a *DealPublisherAdapter) PublishDealFlagged(ctx context.Context, flag domain.DealFlag) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "DealPublisherAdapter",
		"routing_key": a.routingKey,
		"property_id": flag.PropertyID.String(),
	})

	body, err := json.Marshal(toDealFlaggedDTO(flag))
	if err != nil {
		metrics.DealsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("rabbitmq adapter: failed to marshal deal flag: %w", err)
	}

	// исходящее событие проверяем той же схемой, что и потребители
	if err := contracts.ValidateEvent(constants.EventDealFlagged, constants.EventVersionV1, body); err != nil {
		metrics.DealsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("rabbitmq adapter: deal flag violates its contract: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"event-type":    constants.EventDealFlagged,
			"event-version": constants.EventVersionV1,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		metrics.DealsPublished.WithLabelValues("error").Inc()
		adapterLogger.Error("Failed to publish deal flag", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish deal flag for %s: %w", flag.PropertyID, err)
	}

	metrics.DealsPublished.WithLabelValues("success").Inc()
	adapterLogger.Debug("Deal flag published", nil)
	return nil
}
