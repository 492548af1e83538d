package kafka

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/resilience"
	"github.com/wms-platform/fulfillment-service/pkg/tracing"
)

// EventPublisher is what the outbox relay needs from a producer
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error
}

// CircuitBreakerProducer wraps a publisher with circuit breaker protection,
// metrics and publish logging
type CircuitBreakerProducer struct {
	producer       EventPublisher
	circuitBreaker *resilience.CircuitBreaker
	logger         *logging.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

// NewCircuitBreakerProducer creates a new circuit breaker protected producer
func NewCircuitBreakerProducer(producer EventPublisher, logger *logging.Logger, m *metrics.Metrics) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	config.MaxRequests = 5

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, logger.Logger, m.SetCircuitBreakerState),
		logger:         logger,
		metrics:        m,
		tracer:         otel.Tracer("kafka"),
	}
}

// PublishEvent publishes a CloudEvent through the breaker
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	ctx, span := tracing.StartTimedSpan(ctx, p.tracer, "kafka.publish "+topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(tracing.MessagingSpanAttributes("kafka", topic, event.Type)...),
	)
	err := p.circuitBreaker.Execute(ctx, func() error {
		return p.producer.PublishEvent(ctx, topic, event)
	})
	duration := span.EndWithError(err)

	p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, duration)
	p.logger.KafkaPublish(ctx, topic, event.Type, err == nil, duration)
	return err
}
