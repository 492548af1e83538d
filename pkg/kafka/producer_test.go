package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/resilience"
)

func testEvent() *cloudevents.WMSCloudEvent {
	return &cloudevents.WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            cloudevents.PedidoCreated,
		Source:          cloudevents.SourceFulfillment,
		Subject:         "pedido/p-1",
		ID:              "evt-1",
		Time:            time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		DataContentType: "application/json",
		CorrelationID:   "corr-1",
	}
}

func headers(t *testing.T, ctx context.Context) map[string]string {
	t.Helper()
	msg, err := toMessage(ctx, testEvent())
	require.NoError(t, err)
	assert.Equal(t, "pedido/p-1", string(msg.Key))

	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestToMessage(t *testing.T) {
	h := headers(t, context.Background())

	assert.Equal(t, "1.0", h["ce-specversion"])
	assert.Equal(t, cloudevents.PedidoCreated, h["ce-type"])
	assert.Equal(t, "evt-1", h["ce-id"])
	assert.Equal(t, "corr-1", h["ce-wmscorrelationid"])
	assert.NotContains(t, h, "ce-wmsrequestid")
	assert.NotContains(t, h, "traceparent")
}

func TestToMessage_PropagatesTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	ctx, span := sdktrace.NewTracerProvider().Tracer("test").Start(context.Background(), "relay")
	defer span.End()

	h := headers(t, ctx)
	assert.Contains(t, h["traceparent"], span.SpanContext().TraceID().String())
}

type fakePublisher struct {
	err   error
	calls int
}

func (f *fakePublisher) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	f.calls++
	return f.err
}

func TestCircuitBreakerProducer(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("test"))

	t.Run("success passes through", func(t *testing.T) {
		pub := &fakePublisher{}
		p := NewCircuitBreakerProducer(pub, logging.NewNop(), m)
		require.NoError(t, p.PublishEvent(context.Background(), "wms.fulfillment.pedido", testEvent()))
		assert.Equal(t, 1, pub.calls)
	})

	t.Run("opens after repeated failures", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		p := NewCircuitBreakerProducer(pub, logging.NewNop(), m)

		var err error
		for i := 0; i < 10; i++ {
			err = p.PublishEvent(context.Background(), "wms.fulfillment.pedido", testEvent())
		}
		assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
		assert.Less(t, pub.calls, 10)
	})
}
