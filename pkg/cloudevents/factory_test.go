package cloudevents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

func TestCreateEvent(t *testing.T) {
	factory := NewEventFactory(SourceFulfillment)
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	ctx = logging.ContextWithRequestID(ctx, "req-1")
	occurred := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	event := factory.CreateEvent(ctx, PedidoCreated, "pedido/p-1", occurred, map[string]string{"pedidoId": "p-1"})

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, PedidoCreated, event.Type)
	assert.Equal(t, SourceFulfillment, event.Source)
	assert.Equal(t, "pedido/p-1", event.Subject)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, time.UTC, event.Time.Location())
	assert.True(t, occurred.Equal(event.Time))
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, "req-1", event.RequestID)
}

func TestCreateEvent_ZeroTimeDefaultsToNow(t *testing.T) {
	event := NewEventFactory(SourceFulfillment).CreateEvent(context.Background(), RotaCreated, "rota/r-1", time.Time{}, nil)
	assert.WithinDuration(t, time.Now(), event.Time, time.Second)
	assert.Empty(t, event.CorrelationID)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "wms.fulfillment.pedido", TopicFor("pedido"))
}
