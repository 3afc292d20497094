package rabbitmq_consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"analytics-service/pkg/rabbitmq/rabbitmq_common"
	"analytics-service/pkg/rabbitmq/rabbitmq_producer"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BatchMessageHandler обрабатывает пачку сообщений. A non-nil error sends
// the whole batch into the retry loop.
type BatchMessageHandler func(ctx context.Context, deliveries []amqp.Delivery) error

// BatchConsumer accumulates deliveries until batchSize or batchTimeout and
// hands them to the handler in one call.
type BatchConsumer struct {
	config            ConsumerConfig
	connection        *amqp.Connection
	channel           *amqp.Channel
	actualQueueName   string
	finalDlxPublisher *rabbitmq_producer.Publisher
	wg                sync.WaitGroup

	handler      BatchMessageHandler
	batchSize    int
	batchTimeout time.Duration

	Logger rabbitmq_common.Logger
}

// NewBatchConsumer создает пакетного потребителя и объявляет топологию.
func NewBatchConsumer(cfg ConsumerConfig, handler BatchMessageHandler, batchSize int, batchTimeout time.Duration, connManager *rabbitmq_common.ConnectionManager) (*BatchConsumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("batch Consumer: message handler is required")
	}
	if batchSize <= 0 || batchTimeout <= 0 {
		return nil, fmt.Errorf("batch Consumer: batch size and timeout must be positive")
	}
	if cfg.PrefetchCount < batchSize {
		cfg.PrefetchCount = batchSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("batch Consumer: invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	c := &BatchConsumer{
		config:       cfg,
		handler:      handler,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		Logger:       logger,
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("batch Consumer: failed to get channel from manager: %w", err)
	}
	c.connection = conn
	c.channel = ch

	if err := c.setupTopology(); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("batch Consumer: setup failed: %w", err)
	}

	if cfg.EnableRetryMechanism {
		dlxPublisher, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:       cfg.Config,
			ExchangeName: cfg.FinalDLXExchange,
			Logger:       logger,
		}, connManager)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("batch Consumer: failed to create final DLX publisher: %w", err)
		}
		c.finalDlxPublisher = dlxPublisher
	}

	return c, nil
}

func (c *BatchConsumer) setupTopology() error {
	cfg := &c.config

	if cfg.PrefetchCount > 0 || cfg.PrefetchSize > 0 {
		c.Logger.Debug("Setting QoS", "prefetch_count", cfg.PrefetchCount, "prefetch_size", cfg.PrefetchSize)
		if err := c.channel.Qos(cfg.PrefetchCount, cfg.PrefetchSize, cfg.QosGlobal); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	if cfg.EnableRetryMechanism {
		if cfg.QueueArgs == nil {
			cfg.QueueArgs = amqp.Table{}
		}
		// rejected messages go to the retry exchange
		cfg.QueueArgs["x-dead-letter-exchange"] = cfg.RetryExchange
	}

	if cfg.DeclareExchangeForBind {
		c.Logger.Debug("Declaring exchange", "name", cfg.ExchangeNameForBind, "type", cfg.ExchangeTypeForBind)
		err := c.channel.ExchangeDeclare(cfg.ExchangeNameForBind, cfg.ExchangeTypeForBind, cfg.DurableExchangeForBind, false, false, false, cfg.ExchangeArgsForBind)
		if err != nil {
			return fmt.Errorf("failed to declare exchange '%s' for binding: %w", cfg.ExchangeNameForBind, err)
		}
	}

	c.actualQueueName = cfg.QueueName
	if cfg.DeclareQueue {
		c.Logger.Debug("Declaring queue", "name", cfg.QueueName, "durable", cfg.DurableQueue)
		q, err := c.channel.QueueDeclare(cfg.QueueName, cfg.DurableQueue, cfg.AutoDeleteQueue, cfg.ExclusiveQueue, false, cfg.QueueArgs)
		if err != nil {
			return fmt.Errorf("failed to declare queue '%s': %w", cfg.QueueName, err)
		}
		c.actualQueueName = q.Name
	}

	if cfg.ExchangeNameForBind != "" {
		c.Logger.Debug("Binding queue to exchange",
			"queue_name", c.actualQueueName,
			"exchange_name", cfg.ExchangeNameForBind,
			"routing_key", cfg.RoutingKeyForBind,
		)
		if err := c.channel.QueueBind(c.actualQueueName, cfg.RoutingKeyForBind, cfg.ExchangeNameForBind, false, cfg.BindingArgs); err != nil {
			return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.actualQueueName, cfg.ExchangeNameForBind, err)
		}
	}

	if !cfg.EnableRetryMechanism {
		return nil
	}

	if err := c.channel.ExchangeDeclare(cfg.FinalDLXExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare final DLX: %w", err)
	}
	if _, err := c.channel.QueueDeclare(cfg.FinalDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare final DLQ: %w", err)
	}
	if err := c.channel.QueueBind(cfg.FinalDLQ, cfg.FinalDLQRoutingKey, cfg.FinalDLXExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind final DLQ: %w", err)
	}
	if err := c.channel.ExchangeDeclare(cfg.RetryExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare retry exchange: %w", err)
	}

	c.Logger.Debug("Declaring retry-wait queue with TTL", "name", cfg.RetryQueue, "ttl", cfg.RetryTTL)
	_, err := c.channel.QueueDeclare(cfg.RetryQueue, true, false, false, false, amqp.Table{
		"x-message-ttl":             int32(cfg.RetryTTL),
		"x-dead-letter-exchange":    cfg.ExchangeNameForBind,
		"x-dead-letter-routing-key": cfg.RoutingKeyForBind,
	})
	if err != nil {
		return fmt.Errorf("failed to declare retry-wait queue: %w", err)
	}
	if err := c.channel.QueueBind(cfg.RetryQueue, "", cfg.RetryExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind retry-wait queue: %w", err)
	}

	c.Logger.Debug("Setup complete", "queue", c.actualQueueName)
	return nil
}

// StartConsuming blocks until ctx is cancelled or the connection drops.
func (c *BatchConsumer) StartConsuming(ctx context.Context) error {
	if c.channel == nil || c.connection.IsClosed() {
		return fmt.Errorf("batch Consumer: not connected")
	}

	msgs, err := c.channel.Consume(c.actualQueueName, c.config.ConsumerTag, false, c.config.ExclusiveConsumer, false, false, nil)
	if err != nil {
		return fmt.Errorf("batch Consumer: failed to register a consumer: %w", err)
	}

	c.Logger.Info("[*] Waiting for messages on queue",
		"queue_name", c.actualQueueName,
		"batch_size", c.batchSize,
		"batch_timeout", c.batchTimeout)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.collect(ctx, msgs)
	}()

	notifyClose := c.connection.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		c.Logger.Info("Context cancelled for consumer. Shutting down.", "consumer_tag", c.config.ConsumerTag)
		return nil
	case amqpErr := <-notifyClose:
		if amqpErr == nil {
			return nil
		}
		c.Logger.Error(amqpErr, "Connection closed for consumer", "consumer_tag", c.config.ConsumerTag)
		return amqpErr
	}
}

func (c *BatchConsumer) collect(ctx context.Context, msgs <-chan amqp.Delivery) {
	batch := make([]amqp.Delivery, 0, c.batchSize)
	timer := time.NewTimer(c.batchTimeout)
	if !timer.Stop() {
		<-timer.C
	}

	flush := func() {
		// the final batch must be handled even after ctx is cancelled
		c.processBatch(context.WithoutCancel(ctx), batch)
		batch = make([]amqp.Delivery, 0, c.batchSize)
	}

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Context cancelled. Processing final batch...", "batch_size", len(batch))
			timer.Stop()
			flush()
			return

		case msg, ok := <-msgs:
			if !ok {
				c.Logger.Info("Deliveries channel closed. Processing final batch...", "batch_size", len(batch))
				timer.Stop()
				flush()
				return
			}
			if len(batch) == 0 {
				timer.Reset(c.batchTimeout)
			}
			batch = append(batch, msg)

			if len(batch) >= c.batchSize {
				if !timer.Stop() {
					<-timer.C
				}
				flush()
			}

		case <-timer.C:
			if len(batch) > 0 {
				c.Logger.Debug("Timeout reached. Processing batch", "batch_size", len(batch))
				flush()
			}
		}
	}
}

// processBatch вызывает обработчик и отправляет Ack/Nack.
func (c *BatchConsumer) processBatch(ctx context.Context, batch []amqp.Delivery) {
	if len(batch) == 0 {
		return
	}
	lastTag := batch[len(batch)-1].DeliveryTag

	err := c.handler(ctx, batch)
	if err == nil {
		_ = c.channel.Ack(lastTag, true)
		c.Logger.Debug("Acked batch", "batch_size", len(batch))
		return
	}
	c.Logger.Error(err, "Handler returned error for batch", "batch_size", len(batch))

	if !c.config.EnableRetryMechanism {
		_ = c.channel.Nack(lastTag, true, false)
		return
	}

	for _, d := range batch {
		deaths := deathCount(d.Headers, c.actualQueueName)
		if deaths < int64(c.config.MaxRetries) {
			c.Logger.Info("Nacking message for retry", "delivery_tag", d.DeliveryTag, "death_count", deaths)
			_ = c.channel.Nack(d.DeliveryTag, false, false)
			continue
		}

		c.Logger.Warn("Max retries reached for message. Publishing to final DLX.", "delivery_tag", d.DeliveryTag)
		pubErr := c.finalDlxPublisher.Publish(ctx, c.config.FinalDLQRoutingKey, amqp.Publishing{
			ContentType:  d.ContentType,
			Body:         d.Body,
			Headers:      d.Headers,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		})
		if pubErr != nil {
			c.Logger.Error(pubErr, "Failed to publish to final DLX, retrying later", "delivery_tag", d.DeliveryTag)
			_ = c.channel.Nack(d.DeliveryTag, false, false)
			continue
		}
		_ = c.channel.Ack(d.DeliveryTag, false)
	}
}

// Close дожидается последней пачки и закрывает канал.
func (c *BatchConsumer) Close() error {
	c.Logger.Debug("Waiting for message handlers to finish...")
	c.wg.Wait()

	var firstErr error
	if c.finalDlxPublisher != nil {
		if err := c.finalDlxPublisher.Close(); err != nil {
			firstErr = err
		}
	}
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && firstErr == nil {
			c.Logger.Error(err, "Error closing channel")
			firstErr = err
		}
		c.channel = nil
	}

	c.Logger.Info("Consumer closed", "queue", c.actualQueueName)
	return firstErr
}
