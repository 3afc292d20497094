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
	"analytics-service/internal/core/port/usecases_port"
	"analytics-service/pkg/rabbitmq/rabbitmq_common"
	"analytics-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ListingConsumerAdapter - входящий адаптер: слушает очередь с объявлениями и
// наблюдениями аренды и вызывает use case'ы сохранения
type ListingConsumerAdapter struct {
	consumer     *rabbitmq_consumer.BatchConsumer
	saveListings usecases_port.SaveListingsUseCase
	saveComps    usecases_port.SaveRentalCompsUseCase
	logger       port.LoggerPort
}

// NewListingConsumerAdapter создает адаптер и объявляет топологию очереди
func NewListingConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	saveListings usecases_port.SaveListingsUseCase,
	saveComps usecases_port.SaveRentalCompsUseCase,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
	batchSize int,
	batchTimeout time.Duration,
) (*ListingConsumerAdapter, error) {

	adapter := &ListingConsumerAdapter{
		saveListings: saveListings,
		saveComps:    saveComps,
		logger:       logger,
	}

	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_batch_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewBatchConsumer(consumerCfg, adapter.batchMessageHandler, batchSize, batchTimeout, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for listings: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

// decodedBatch - содержимое одной пачки, разобранное по типам событий
type decodedBatch struct {
	listings []domain.ListingRecord
	comps    []domain.RentalComp
}

// batchMessageHandler разбирает пачку целиком; одно невалидное сообщение
// возвращает всю пачку в цикл повторов (и в итоге в DLQ).
func (a *ListingConsumerAdapter) batchMessageHandler(ctx context.Context, deliveries []amqp.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}

	traceID, _ := deliveries[0].Headers["x-trace-id"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}

	batchLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"batch_id":     uuid.New().String(),
		"batch_size":   len(deliveries),
		"adapter_name": "ListingConsumerAdapter",
	})

	ctx = contextkeys.ContextWithLogger(ctx, batchLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	batchLogger.Info("Received batch of messages to process.", nil)

	var batch decodedBatch
	for _, d := range deliveries {
		if err := a.decodeDelivery(d, &batch, batchLogger); err != nil {
			metrics.IngestBatchFailures.WithLabelValues("validation").Inc()
			return err
		}
	}

	// сначала аренда: оценка пропущенной аренды объявлений в этой же пачке
	// опирается на нее
	if len(batch.comps) > 0 {
		if _, err := a.saveComps.Execute(ctx, batch.comps); err != nil {
			batchLogger.Error("Saving rental comps failed, the entire batch will be requeued.", err, nil)
			metrics.IngestBatchFailures.WithLabelValues("storage").Inc()
			return err
		}
	}

	if len(batch.listings) > 0 {
		stats, err := a.saveListings.Execute(ctx, batch.listings)
		if err != nil {
			batchLogger.Error("Saving listings failed, the entire batch will be requeued.", err, nil)
			metrics.IngestBatchFailures.WithLabelValues("storage").Inc()
			return err
		}
		metrics.ListingsIngested.WithLabelValues("created").Add(float64(stats.Created))
		metrics.ListingsIngested.WithLabelValues("updated").Add(float64(stats.Updated))
		metrics.ListingsIngested.WithLabelValues("rent_estimated").Add(float64(stats.RentEstimated))
		metrics.ListingsIngested.WithLabelValues("flagged").Add(float64(stats.Flagged))
	}

	batchLogger.Info("Batch processed successfully.", port.Fields{
		"listings":     len(batch.listings),
		"rental_comps":  len(batch.comps),
	})
	return nil
}

// decodeDelivery валидирует сообщение по схеме и раскладывает его по типу события
func (a *ListingConsumerAdapter) decodeDelivery(d amqp.Delivery, batch *decodedBatch, parentLogger port.LoggerPort) error {
	eventType, _ := d.Headers["event-type"].(string)
	eventVersion, _ := d.Headers["event-version"].(string)

	msgLogger := parentLogger.WithFields(port.Fields{
		"message_id":    d.MessageId,
		"event_type":    eventType,
		"event_version": eventVersion,
	})

	if err := contracts.ValidateEvent(eventType, eventVersion, d.Body); err != nil {
		msgLogger.Error("Message failed schema validation. Rejecting.", err, nil)
		return err
	}

	switch eventType {
	case constants.EventListingUpserted:
		var dto ListingUpsertedDTO
		if err := json.Unmarshal(d.Body, &dto); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
		}
		batch.listings = append(batch.listings, toListingRecord(dto))
	case constants.EventRentalCompObserved:
		var dto RentalCompObservedDTO
		if err := json.Unmarshal(d.Body, &dto); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
		}
		batch.comps = append(batch.comps, toRentalComp(dto))
	default:
		// схема есть, но этот адаптер событие не потребляет
		return fmt.Errorf("event type %q is not consumed by the listing queue", eventType)
	}
	return nil
}

// Start реализует EventListenerPort, запуская прослушивание очереди
func (a *ListingConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close реализует EventListenerPort, корректно останавливая консьюмера
func (a *ListingConsumerAdapter) Close() error {
	return a.consumer.Close()
}
