package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new WMSCloudEvent. Correlation and request ids found
// in ctx are copied into the extensions.
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	occurredAt time.Time,
	data interface{},
) *WMSCloudEvent {
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            occurredAt.UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	if ctx != nil {
		if v, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
			event.CorrelationID = v
		}
		if v, ok := ctx.Value(logging.RequestIDKey).(string); ok {
			event.RequestID = v
		}
	}

	return event
}
