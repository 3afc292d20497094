package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	"analytics-service/internal/constants"
	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	routingKey string
	msgs       []amqp.Publishing
	err        error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.routingKey = routingKey
	p.msgs = append(p.msgs, msg)
	return nil
}

func dealFlag() domain.DealFlag {
	rent := int64(250000)
	ratio := 0.83
	vs := 18.57
	return domain.DealFlag{
		PropertyID:           uuid.MustParse("7f1d1a4e-55c4-4a7e-9f58-2c1f0c1b7a01"),
		ExternalID:           "zl-1",
		DataSource:           "zillow",
		ZipCode:              "78701",
		Bedrooms:             2,
		ListPrice:            30000000,
		MonthlyRent:          &rent,
		PriceToRentRatio:     &ratio,
		RatioVsMarketPercent: &vs,
		Score:                71,
		FlaggedAt:            time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

func TestPublishDealFlagged(t *testing.T) {
	pub := &recordingPublisher{}
	a, err := NewDealPublisherAdapter(pub, "")
	require.NoError(t, err)

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-7")
	require.NoError(t, a.PublishDealFlagged(ctx, dealFlag()))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, constants.RoutingKeyDealsFlagged, pub.routingKey)

	msg := pub.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, constants.EventDealFlagged, msg.Headers["event-type"])
	assert.Equal(t, constants.EventVersionV1, msg.Headers["event-version"])
	assert.Equal(t, "trace-7", msg.Headers["x-trace-id"])

	var body DealFlaggedDTO
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, 300000.0, body.ListPrice)
	require.NotNil(t, body.MonthlyRent)
	assert.Equal(t, 2500.0, *body.MonthlyRent)
	assert.Equal(t, 71, body.Score)
}

func TestPublishDealFlagged_ContractViolation(t *testing.T) {
	pub := &recordingPublisher{}
	a, err := NewDealPublisherAdapter(pub, "")
	require.NoError(t, err)

	flag := dealFlag()
	flag.Score = 140

	assert.Error(t, a.PublishDealFlagged(context.Background(), flag))
	assert.Empty(t, pub.msgs)
}

func TestPublishDealFlagged_BrokerError(t *testing.T) {
	a, err := NewDealPublisherAdapter(&recordingPublisher{err: errors.New("channel closed")}, "custom.key")
	require.NoError(t, err)

	err = a.PublishDealFlagged(context.Background(), dealFlag())
	assert.ErrorContains(t, err, "channel closed")
}

func TestNewDealPublisherAdapter_NilProducer(t *testing.T) {
	_, err := NewDealPublisherAdapter(nil, "")
	assert.Error(t, err)
}

func TestPkgLoggerBridge_ToFields(t *testing.T) {
	b := &PkgLoggerBridge{internalLogger: discardLogger{}}
	fields := b.toFields("queue", "q1", 42, "skipped", "dangling")
	assert.Equal(t, "q1", fields["queue"])
	assert.Len(t, fields, 1)
}
